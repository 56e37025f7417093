package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-hub/backend/pkg/logger"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

func TestKafkaPublisherWritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "feedback.created"}

	err := p.Publish(context.Background(), FeedbackCreated{
		RecordID: "rec-1",
		RunID:    "run_1",
		Product:  "Workers",
		Summary:  "Deployments failing.",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "rec-1", string(msg.Key))

	var got FeedbackCreated
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, TypeFeedbackCreated, got.Type)
	assert.Equal(t, "Workers", got.Product)
}

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "topic")
	assert.Error(t, err)
}

func TestPublishAsyncDetachesFromCaller(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	PublishAsync(p, logger.Nop(), FeedbackCreated{RecordID: "rec-2"})

	assert.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestPublishAsyncSwallowsErrors(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	assert.NotPanics(t, func() {
		PublishAsync(p, logger.Nop(), FeedbackCreated{RecordID: "rec-3"})
		PublishAsync(nil, logger.Nop(), FeedbackCreated{})
	})
}
