package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chronopay-gateway/internal/events"
)

type memStore struct {
	inserted []events.Event
	err      error
}

func (s *memStore) InsertEvent(_ context.Context, ev events.Event) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, ev)
	return nil
}

type recordingNotifier struct {
	seen []events.Event
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, ev events.Event) error {
	n.seen = append(n.seen, ev)
	return n.err
}

func TestBusEmitPersistsAndNotifies(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), events.TopicOrderPaid, 42, map[string]any{"orderId": 42})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPaid, ev.Topic)
	require.Equal(t, int64(42), ev.OrderID)
	require.Len(t, store.inserted, 1)
	require.Len(t, notifier.seen, 1)
	require.JSONEq(t, `{"orderId":42}`, string(ev.Payload))
}

func TestBusEmitNotifierFailureStillPersists(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	notifier := &recordingNotifier{err: errors.New("boom")}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	_, err := bus.Emit(context.Background(), events.TopicOrderPaid, 7, nil)
	require.Error(t, err)
	require.Len(t, store.inserted, 1)
}

func TestBusEmitValidation(t *testing.T) {
	t.Parallel()

	bus := &events.Bus{Store: &memStore{}}
	_, err := bus.Emit(context.Background(), "  ", 1, nil)
	require.Error(t, err)

	var nilBus *events.Bus
	_, err = nilBus.Emit(context.Background(), events.TopicOrderPaid, 1, nil)
	require.Error(t, err)
}
