package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG implements Lookup against the host database.
type PG struct {
	Pool *pgxpool.Pool
}

func (s PG) AddressByID(ctx context.Context, id int64) (Address, error) {
	var a Address
	row := s.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, street, city, zip, phone, email,
		       COALESCE(state_id, 0), COALESCE(country_id, 0)
		FROM addresses
		WHERE id = $1`, id)
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Street, &a.City,
		&a.Zip, &a.Phone, &a.Email, &a.StateID, &a.CountryID); err != nil {
		return Address{}, wrapNotFound("address", id, err)
	}
	return a, nil
}

func (s PG) CurrencyByID(ctx context.Context, id int64) (Currency, error) {
	var c Currency
	row := s.Pool.QueryRow(ctx, `SELECT id, code FROM currencies WHERE id = $1`, id)
	if err := row.Scan(&c.ID, &c.Code); err != nil {
		return Currency{}, wrapNotFound("currency", id, err)
	}
	return c, nil
}

func (s PG) CountryByID(ctx context.Context, id int64) (Country, error) {
	var c Country
	row := s.Pool.QueryRow(ctx, `SELECT id, three_letter_iso_code FROM countries WHERE id = $1`, id)
	if err := row.Scan(&c.ID, &c.ThreeLetterCode); err != nil {
		return Country{}, wrapNotFound("country", id, err)
	}
	return c, nil
}

func (s PG) StateByID(ctx context.Context, id int64) (State, error) {
	var st State
	row := s.Pool.QueryRow(ctx, `SELECT id, abbreviation FROM states WHERE id = $1`, id)
	if err := row.Scan(&st.ID, &st.Abbreviation); err != nil {
		return State{}, wrapNotFound("state", id, err)
	}
	return st, nil
}

func wrapNotFound(kind string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("directory: %s %d: %w", kind, id, err)
}
