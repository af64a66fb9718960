package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-admin-server/internal/models"
)

type fetchCall struct {
	ctx      context.Context
	doctorID uint
	respond  chan []models.Appointment
}

// fakeQueueFetcher hands each ListDoctorQueue call to the test, which
// decides when and with what the call completes.
type fakeQueueFetcher struct {
	calls chan *fetchCall
}

func newFakeQueueFetcher() *fakeQueueFetcher {
	return &fakeQueueFetcher{calls: make(chan *fetchCall, 10)}
}

func (f *fakeQueueFetcher) ListDoctorQueue(ctx context.Context, doctorID uint, _ time.Time) ([]models.Appointment, error) {
	call := &fetchCall{ctx: ctx, doctorID: doctorID, respond: make(chan []models.Appointment)}
	f.calls <- call
	return <-call.respond, nil
}

func tokenedAppointment(id uint, token int) models.Appointment {
	return models.Appointment{
		BaseModel:     models.BaseModel{ID: id},
		Status:        models.StatusCheckedIn,
		TokenNumber:   &token,
		QueuePosition: &token,
	}
}

func TestQueueBoardLastRequestWins(t *testing.T) {
	fetcher := newFakeQueueFetcher()
	notifier := NewInMemoryNotifier()
	updated := make(chan QueueEvent, 10)
	notifier.Subscribe(EventQueueUpdated, func(e QueueEvent) { updated <- e })

	board := NewQueueBoard(fetcher, notifier)
	board.Start()

	event := QueueEvent{DoctorID: 1, Date: "2026-09-01"}

	// First refresh starts fetch A.
	require.NoError(t, notifier.Emit(context.Background(), EventRefreshQueue, event))
	callA := <-fetcher.calls

	// Second refresh for the same scope cancels A and starts B.
	require.NoError(t, notifier.Emit(context.Background(), EventRefreshQueue, event))
	callB := <-fetcher.calls
	assert.Error(t, callA.ctx.Err(), "earlier fetch must be cancelled")

	// B resolves first and becomes the snapshot.
	callB.respond <- []models.Appointment{tokenedAppointment(102, 2)}
	select {
	case <-updated:
	case <-time.After(time.Second):
		t.Fatal("expected queueUpdated after fetch B")
	}

	// A resolves late; its result must be discarded.
	callA.respond <- []models.Appointment{tokenedAppointment(101, 1)}

	select {
	case <-updated:
		t.Fatal("stale fetch must not emit queueUpdated")
	case <-time.After(100 * time.Millisecond):
	}

	snapshot, err := board.Snapshot(context.Background(), 1, "2026-09-01")
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, uint(102), snapshot.Entries[0].AppointmentID)
	assert.Equal(t, 2, snapshot.Entries[0].TokenNumber)
}

func TestQueueBoardFansOutBothEvents(t *testing.T) {
	fetcher := newFakeQueueFetcher()
	notifier := NewInMemoryNotifier()
	updated := make(chan string, 10)
	notifier.Subscribe(EventQueueUpdated, func(QueueEvent) { updated <- EventQueueUpdated })
	notifier.Subscribe(EventQueueUpdatedAll, func(QueueEvent) { updated <- EventQueueUpdatedAll })

	board := NewQueueBoard(fetcher, notifier)
	board.Start()

	require.NoError(t, notifier.Emit(context.Background(), EventRefreshQueue, QueueEvent{DoctorID: 2, Date: "2026-09-01"}))
	call := <-fetcher.calls
	call.respond <- nil

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-updated:
			got[name] = true
		case <-time.After(time.Second):
			t.Fatal("expected both fan-out events")
		}
	}
	assert.True(t, got[EventQueueUpdated])
	assert.True(t, got[EventQueueUpdatedAll])
}

func TestQueueBoardSnapshotFetchesOnMiss(t *testing.T) {
	fetcher := newFakeQueueFetcher()
	board := NewQueueBoard(fetcher, NewInMemoryNotifier())

	go func() {
		call := <-fetcher.calls
		assert.Equal(t, uint(3), call.doctorID)
		call.respond <- []models.Appointment{tokenedAppointment(7, 1)}
	}()

	snapshot, err := board.Snapshot(context.Background(), 3, "2026-09-01")
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, "IN_QUEUE", snapshot.Entries[0].Status)

	// Second read is served from cache without a new fetch.
	snapshot2, err := board.Snapshot(context.Background(), 3, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, snapshot, snapshot2)
}

func TestQueueBoardIgnoresBadDates(t *testing.T) {
	fetcher := newFakeQueueFetcher()
	board := NewQueueBoard(fetcher, NewInMemoryNotifier())

	board.Refresh(QueueEvent{DoctorID: 1, Date: "not-a-date"})

	select {
	case <-fetcher.calls:
		t.Fatal("bad date must not trigger a fetch")
	case <-time.After(50 * time.Millisecond):
	}
}
