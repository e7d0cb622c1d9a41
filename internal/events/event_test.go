package events

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gellahi/EduConnect-Pakistan/internal/logger"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker unavailable")
}
func (f *failingPublisher) System() string { return "test" }
func (f *failingPublisher) Close() error   { return nil }

func TestBestEffort_LogsAndSwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	pub := &failingPublisher{}
	emitter := NewBestEffort(pub, logger.New(logger.Options{Env: "prod", Output: &buf}), metrics.NewMock())

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), SessionStatusChanged, uuid.New(), map[string]string{"to": "confirmed"})
	})

	assert.Equal(t, 1, pub.calls)
	assert.Contains(t, buf.String(), "failed to publish event")
	assert.Contains(t, buf.String(), "broker unavailable")
}

func TestBestEffort_UnencodablePayload(t *testing.T) {
	var buf bytes.Buffer
	pub := &failingPublisher{}
	emitter := NewBestEffort(pub, logger.New(logger.Options{Env: "prod", Output: &buf}), metrics.NewMock())

	emitter.Emit(context.Background(), ReviewCreated, uuid.New(), make(chan int))

	assert.Equal(t, 0, pub.calls)
	assert.Contains(t, buf.String(), "failed to encode event")
}
