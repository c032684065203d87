package chronopay_test

import (
	"context"
	"sync"

	"github.com/noah-isme/chronopay-gateway/internal/chronopay"
	"github.com/noah-isme/chronopay-gateway/internal/directory"
	"github.com/noah-isme/chronopay-gateway/internal/events"
	"github.com/noah-isme/chronopay-gateway/internal/order"
	"github.com/noah-isme/chronopay-gateway/internal/settings"
)

type fakeSettings struct {
	mu      sync.Mutex
	current settings.Settings
	loadErr error
	saved   []settings.Settings
	deleted int
}

func (f *fakeSettings) Load(context.Context) (settings.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return settings.Settings{}, f.loadErr
	}
	return f.current, nil
}

func (f *fakeSettings) Save(_ context.Context, s settings.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = s
	f.loadErr = nil
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSettings) Delete(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	f.loadErr = settings.ErrNotConfigured
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[int64]order.Order
	marked []int64
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) CanMarkAsPaid(o order.Order) bool {
	return o.PaymentStatus == order.PaymentPending
}

func (f *fakeOrders) MarkAsPaid(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[id]
	o.PaymentStatus = order.PaymentPaid
	f.orders[id] = o
	f.marked = append(f.marked, id)
	return nil
}

type fakeDirectory struct {
	addresses  map[int64]directory.Address
	currencies map[int64]directory.Currency
	countries  map[int64]directory.Country
	states     map[int64]directory.State
}

func (f fakeDirectory) AddressByID(_ context.Context, id int64) (directory.Address, error) {
	a, ok := f.addresses[id]
	if !ok {
		return directory.Address{}, directory.ErrNotFound
	}
	return a, nil
}

func (f fakeDirectory) CurrencyByID(_ context.Context, id int64) (directory.Currency, error) {
	c, ok := f.currencies[id]
	if !ok {
		return directory.Currency{}, directory.ErrNotFound
	}
	return c, nil
}

func (f fakeDirectory) CountryByID(_ context.Context, id int64) (directory.Country, error) {
	c, ok := f.countries[id]
	if !ok {
		return directory.Country{}, directory.ErrNotFound
	}
	return c, nil
}

func (f fakeDirectory) StateByID(_ context.Context, id int64) (directory.State, error) {
	s, ok := f.states[id]
	if !ok {
		return directory.State{}, directory.ErrNotFound
	}
	return s, nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEventStore) InsertEvent(_ context.Context, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	records []chronopay.CallbackRecord
}

func (f *fakeAudit) Record(_ context.Context, rec chronopay.CallbackRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}
