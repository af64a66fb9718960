package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hospital-admin-server/internal/logging"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/status"
)

// QueueFetcher is the slice of the appointment store the board needs.
type QueueFetcher interface {
	ListDoctorQueue(ctx context.Context, doctorID uint, day time.Time) ([]models.Appointment, error)
}

// QueueEntry is one row of a doctor's live queue.
type QueueEntry struct {
	AppointmentID uint   `json:"appointmentId"`
	TokenNumber   int    `json:"tokenNumber"`
	QueuePosition int    `json:"queuePosition"`
	PatientName   string `json:"patientName,omitempty"`
	TimeSlot      string `json:"timeSlot"`
	Status        string `json:"status"`
}

// QueueSnapshot is the board's view of one doctor's day.
type QueueSnapshot struct {
	DoctorID    uint         `json:"doctorId"`
	Date        string       `json:"date"`
	Entries     []QueueEntry `json:"entries"`
	RefreshedAt time.Time    `json:"refreshedAt"`
}

type refreshState struct {
	generation uint64
	cancel     context.CancelFunc
}

// QueueBoard keeps live per-doctor day snapshots. It consumes the
// refreshQueue events emitted after every mutation, re-fetches the
// affected queue, and fans the change out as queueUpdated and
// queueUpdatedForAllDoctors for the viewing screens.
//
// Refreshes are last-request-wins: a newer event for the same
// (doctor, date) cancels the in-flight fetch, and a slow stale fetch
// can never overwrite a newer snapshot.
type QueueBoard struct {
	fetcher  QueueFetcher
	notifier QueueNotifier

	mu        sync.Mutex
	snapshots map[string]*QueueSnapshot
	refreshes map[string]*refreshState
}

// NewQueueBoard creates a new QueueBoard.
func NewQueueBoard(fetcher QueueFetcher, notifier QueueNotifier) *QueueBoard {
	return &QueueBoard{
		fetcher:   fetcher,
		notifier:  notifier,
		snapshots: make(map[string]*QueueSnapshot),
		refreshes: make(map[string]*refreshState),
	}
}

// Start subscribes the board to the queue-refresh channel. The
// subscription lives until the notifier closes.
func (b *QueueBoard) Start() {
	b.notifier.Subscribe(EventRefreshQueue, b.Refresh)
}

func queueKey(doctorID uint, date string) string {
	return fmt.Sprintf("%d|%s", doctorID, date)
}

// Refresh re-fetches one doctor's day, cancelling any fetch already in
// flight for the same scope.
func (b *QueueBoard) Refresh(event QueueEvent) {
	if event.DoctorID == 0 {
		return
	}
	date := event.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		logging.Log.Warn("queue refresh with bad date", zap.String("date", date), zap.Error(err))
		return
	}

	key := queueKey(event.DoctorID, date)
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	state := &refreshState{cancel: cancel}
	if prev, ok := b.refreshes[key]; ok {
		prev.cancel()
		state.generation = prev.generation + 1
	}
	b.refreshes[key] = state
	generation := state.generation
	b.mu.Unlock()

	go b.fetch(ctx, key, generation, event.DoctorID, date, day)
}

func (b *QueueBoard) fetch(ctx context.Context, key string, generation uint64, doctorID uint, date string, day time.Time) {
	appointments, err := b.fetcher.ListDoctorQueue(ctx, doctorID, day)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Log.Warn("queue fetch failed", zap.Uint("doctorId", doctorID), zap.Error(err))
		}
		return
	}

	snapshot := buildSnapshot(doctorID, date, appointments)

	b.mu.Lock()
	current, ok := b.refreshes[key]
	if !ok || current.generation != generation {
		// A newer refresh superseded this one while it was in flight.
		b.mu.Unlock()
		return
	}
	b.snapshots[key] = snapshot
	b.mu.Unlock()

	event := QueueEvent{DoctorID: doctorID, Date: date}
	if err := b.notifier.Emit(context.Background(), EventQueueUpdated, event); err != nil {
		logging.Log.Warn("queueUpdated emit failed", zap.Error(err))
	}
	if err := b.notifier.Emit(context.Background(), EventQueueUpdatedAll, event); err != nil {
		logging.Log.Warn("queueUpdatedForAllDoctors emit failed", zap.Error(err))
	}
}

func buildSnapshot(doctorID uint, date string, appointments []models.Appointment) *QueueSnapshot {
	entries := make([]QueueEntry, 0, len(appointments))
	for _, a := range appointments {
		entry := QueueEntry{
			AppointmentID: a.ID,
			TimeSlot:      a.TimeSlot,
			Status:        status.Display(a.Status),
		}
		if a.TokenNumber != nil {
			entry.TokenNumber = *a.TokenNumber
		}
		if a.QueuePosition != nil {
			entry.QueuePosition = *a.QueuePosition
		}
		if a.Patient != nil {
			entry.PatientName = a.Patient.Name
		}
		entries = append(entries, entry)
	}
	return &QueueSnapshot{
		DoctorID:    doctorID,
		Date:        date,
		Entries:     entries,
		RefreshedAt: time.Now(),
	}
}

// Snapshot returns the board's view of one doctor's day, fetching
// synchronously when nothing is cached yet.
func (b *QueueBoard) Snapshot(ctx context.Context, doctorID uint, date string) (*QueueSnapshot, error) {
	key := queueKey(doctorID, date)

	b.mu.Lock()
	cached, ok := b.snapshots[key]
	b.mu.Unlock()
	if ok {
		return cached, nil
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	appointments, err := b.fetcher.ListDoctorQueue(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}

	snapshot := buildSnapshot(doctorID, date, appointments)
	b.mu.Lock()
	b.snapshots[key] = snapshot
	b.mu.Unlock()
	return snapshot, nil
}
