package events

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/lib/service"
	"github.com/ziflex/lecho/v3"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	err    error
	done   chan struct{}
}

func (r *recordingEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	r.mu.Lock()
	r.events = append(r.events, eventType)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return r.err
}

func TestAsyncDoesNotReturnPublishErrors(t *testing.T) {
	inner := &recordingEmitter{err: errors.New("broker down"), done: make(chan struct{}, 1)}
	async := &Async{Emitter: inner, Logger: lecho.New(io.Discard)}

	require.NoError(t, async.Emit(context.Background(), common.EventLedgerEntryChanged, nil))
	select {
	case <-inner.done:
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
	assert.Equal(t, []string{common.EventLedgerEntryChanged}, inner.events)
}

func TestLedgerChangeHookEmitsEntryChanged(t *testing.T) {
	inner := &recordingEmitter{}
	hook := LedgerChangeHook(inner, lecho.New(io.Discard))
	hook(context.Background(), service.LedgerChange{Kind: service.ChangeAllocated, ReferenceID: "p-1"})
	assert.Equal(t, []string{common.EventLedgerEntryChanged}, inner.events)
}

func TestMultiReturnsFirstError(t *testing.T) {
	ok := &recordingEmitter{}
	failing := &recordingEmitter{err: errors.New("nope")}
	err := Multi{failing, ok, Nop{}}.Emit(context.Background(), "x", nil)
	assert.EqualError(t, err, "nope")
	assert.Len(t, ok.events, 1)
}
