// Package directory provides the address, currency, country and state lookups
// the redirect builder consumes from the host platform.
package directory

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup misses. The redirect builder treats a
// miss on state or country as "omit the field", not as a failure.
var ErrNotFound = errors.New("directory: not found")

// Address carries the billing fields forwarded to the gateway.
type Address struct {
	ID        int64
	FirstName string
	LastName  string
	Street    string
	City      string
	Zip       string
	Phone     string
	Email     string
	StateID   int64
	CountryID int64
}

// Currency identifies the store currency by its ISO 4217 code.
type Currency struct {
	ID   int64
	Code string
}

// Country carries the ISO 3166-1 alpha-3 code the gateway expects.
type Country struct {
	ID              int64
	ThreeLetterCode string
}

// State carries the state/province abbreviation.
type State struct {
	ID           int64
	Abbreviation string
}

// Lookup is the host collaborator contract for directory data.
type Lookup interface {
	AddressByID(ctx context.Context, id int64) (Address, error)
	CurrencyByID(ctx context.Context, id int64) (Currency, error)
	CountryByID(ctx context.Context, id int64) (Country, error)
	StateByID(ctx context.Context, id int64) (State, error)
}
