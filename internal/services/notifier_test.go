package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeQueueEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    QueueEvent
	}{
		{
			name:    "current object shape",
			payload: `{"doctorId": 7, "date": "2026-09-01"}`,
			want:    QueueEvent{DoctorID: 7, Date: "2026-09-01"},
		},
		{
			name:    "legacy bare doctor id defaults to today",
			payload: `12`,
			want:    QueueEvent{DoctorID: 12, Date: time.Now().Format("2006-01-02")},
		},
		{
			name:    "garbage yields the zero event",
			payload: `{"unrelated": true}`,
			want:    QueueEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeQueueEvent(tt.payload))
		})
	}
}

func TestInMemoryNotifier(t *testing.T) {
	n := NewInMemoryNotifier()

	var got []QueueEvent
	n.Subscribe(EventRefreshQueue, func(e QueueEvent) { got = append(got, e) })

	event := QueueEvent{DoctorID: 1, Date: "2026-09-01"}
	assert.NoError(t, n.Emit(context.Background(), EventRefreshQueue, event))
	assert.Equal(t, []QueueEvent{event}, got)

	// Other event names do not reach this handler.
	assert.NoError(t, n.Emit(context.Background(), EventQueueUpdated, event))
	assert.Len(t, got, 1)

	// Close drops all handlers.
	assert.NoError(t, n.Close())
	assert.NoError(t, n.Emit(context.Background(), EventRefreshQueue, event))
	assert.Len(t, got, 1)
}
