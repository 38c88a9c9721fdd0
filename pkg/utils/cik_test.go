package utils

import "testing"

func TestPadCIK(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{320193, "0000320193"},
		{1, "0000000001"},
		{1234567890, "1234567890"},
		{12345678901, "12345678901"}, // Already longer
	}
	for _, tt := range tests {
		if got := PadCIK(tt.input); got != tt.expected {
			t.Errorf("PadCIK(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseCIK(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"320193", 320193, false},
		{"0000320193", 320193, false},
		{" 0000320193 ", 320193, false},
		{"CIK0000320193", 320193, false},
		{"cik320193", 320193, false},
		{"0", 0, true},
		{"0000000000", 0, true},
		{"-5", 0, true},
		{"12a34", 0, true},
		{"", 0, true},
		{"CIK", 0, true},
		{"99999999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCIK(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCIK(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCIK(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCIKs(t *testing.T) {
	got, err := ParseCIKs([]string{"1", "0000000002", "CIK3"})
	if err != nil {
		t.Fatalf("ParseCIKs error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("got %v", got)
	}
	if _, err := ParseCIKs([]string{"1", "x"}); err == nil {
		t.Error("expected error for invalid entry")
	}
}
