package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"rtshell/internal/repository"
)

type recordingSink struct {
	mu      sync.Mutex
	records []repository.EventRecord
	fail    bool
}

func (s *recordingSink) RecordEvent(ctx context.Context, rec repository.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestRunJournal(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewEventBus()
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunJournal(ctx, bus, sink, nil)
		close(done)
	}()

	// wait for the subscription before publishing
	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers) == 1
	}, time.Second, 5*time.Millisecond)

	bus.Publish(Event{Type: EventStateChanged, Ref: "/a/Std0.rtc", Payload: map[string]string{"state": "Active"}})
	bus.Publish(Event{Type: EventExited, Ref: "/a/Std0.rtc"})

	require.Eventually(t, func() bool { return sink.len() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "state_changed", sink.records[0].Type)
	assert.Equal(t, "Active", sink.records[0].Payload["state"])
	assert.Equal(t, "exited", sink.records[1].Type)
	assert.False(t, sink.records[1].CreatedAt.IsZero())

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	assert.Empty(t, bus.subscribers)
}

func TestRunJournalSurvivesSinkErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewEventBus()
	sink := &recordingSink{fail: true}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunJournal(ctx, bus, sink, nil)
		close(done)
	}()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers) == 1
	}, time.Second, 5*time.Millisecond)
	bus.Publish(Event{Type: EventBound, Ref: "/x.rtc"})

	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()
	bus.Publish(Event{Type: EventUnbound, Ref: "/x.rtc"})

	require.Eventually(t, func() bool { return sink.len() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
