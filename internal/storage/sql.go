package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundseeker/internal/company"
)

// sqlStore implements Store over database/sql for SQLite and PostgreSQL.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

const selectCompanies = `SELECT c.cik, c.name, i.year, i.amount, i.form, i.frame
FROM companies c
LEFT JOIN company_incomes i ON i.cik = c.cik`

func (s *sqlStore) Load(ctx context.Context, cik int) (*company.Company, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	q := selectCompanies + " WHERE c.cik = ? ORDER BY i.year"
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), cik)
	if err != nil {
		return nil, fmt.Errorf("load company %d: %w", cik, err)
	}
	cs, err := scanCompanies(rows)
	if err != nil {
		return nil, fmt.Errorf("load company %d: %w", cik, err)
	}
	if len(cs) == 0 {
		return nil, ErrNotFound
	}
	return cs[0], nil
}

func (s *sqlStore) Save(ctx context.Context, c *company.Company) (err error) {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO companies (cik, name) VALUES (?, ?)
		 ON CONFLICT (cik) DO UPDATE SET name = excluded.name`),
		c.CIK(), c.Name(),
	); err != nil {
		return fmt.Errorf("save company %d: %w", c.CIK(), err)
	}
	if _, err = tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM company_incomes WHERE cik = ?`), c.CIK()); err != nil {
		return fmt.Errorf("clear incomes for %d: %w", c.CIK(), err)
	}

	insert := s.dialect.rebind(`INSERT INTO company_incomes (cik, year, amount, form, frame) VALUES (?, ?, ?, ?, ?)`)
	for _, r := range c.Ledger().Records() {
		if _, err = tx.ExecContext(ctx, insert, c.CIK(), r.Year(), r.Amount(), r.Form(), r.Frame()); err != nil {
			return fmt.Errorf("save income %d/%d: %w", c.CIK(), r.Year(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save %d: %w", c.CIK(), err)
	}
	return nil
}

func (s *sqlStore) FindByNamePrefix(ctx context.Context, prefix string) ([]*company.Company, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	prefix = strings.TrimSpace(prefix)

	q := selectCompanies
	var args []any
	// SQLite UPPER folds ASCII only; other prefixes are matched in Go below.
	if prefix != "" && isASCII(prefix) {
		q += ` WHERE UPPER(c.name) LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(strings.ToUpper(prefix))+"%")
	}
	q += " ORDER BY " + s.dialect.nameOrder + ", c.cik, i.year"

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("find companies by prefix %q: %w", prefix, err)
	}
	cs, err := scanCompanies(rows)
	if err != nil {
		return nil, fmt.Errorf("find companies by prefix %q: %w", prefix, err)
	}

	out := cs[:0]
	for _, c := range cs {
		if hasNamePrefix(c.Name(), prefix) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return errors.New("storage is not configured")
	}
	return nil
}

// scanCompanies groups joined company/income rows, which must arrive
// ordered by company.
func scanCompanies(rows *sql.Rows) ([]*company.Company, error) {
	defer rows.Close()

	type pending struct {
		cik     int
		name    string
		records []company.IncomeRecord
	}
	var (
		out []*company.Company
		cur *pending
	)
	flush := func() {
		if cur != nil {
			out = append(out, company.Restore(cur.cik, cur.name, cur.records))
		}
	}

	for rows.Next() {
		var (
			cik         int64
			name        string
			year        sql.NullInt64
			amount      decimal.NullDecimal
			form, frame sql.NullString
		)
		if err := rows.Scan(&cik, &name, &year, &amount, &form, &frame); err != nil {
			return nil, err
		}
		if cur == nil || cur.cik != int(cik) {
			flush()
			cur = &pending{cik: int(cik), name: name}
		}
		if year.Valid {
			cur.records = append(cur.records,
				company.RestoreIncomeRecord(int(year.Int64), amount.Decimal, form.String, frame.String))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

var _ Store = (*sqlStore)(nil)
