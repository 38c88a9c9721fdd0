package events

import (
	"context"
	"errors"
	"testing"
)

func TestMultiPublishesToAll(t *testing.T) {
	var got []string
	record := func(name string, err error) Publisher {
		return PublisherFunc(func(_ context.Context, e CompanyImported) error {
			got = append(got, name+":"+e.Name)
			return err
		})
	}
	errA := errors.New("a down")
	errC := errors.New("c down")
	m := Multi{record("a", errA), nil, record("b", nil), record("c", errC)}

	err := m.Publish(context.Background(), CompanyImported{Name: "Apple Inc."})
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if len(got) != 3 || got[1] != "b:Apple Inc." {
		t.Errorf("every publisher should run in order, got %v", got)
	}
}

func TestMultiEmpty(t *testing.T) {
	if err := (Multi{}).Publish(context.Background(), CompanyImported{}); err != nil {
		t.Errorf("empty Multi: %v", err)
	}
	if err := (Nop{}).Publish(context.Background(), CompanyImported{}); err != nil {
		t.Errorf("Nop: %v", err)
	}
}
