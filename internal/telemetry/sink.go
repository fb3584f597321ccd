// internal/telemetry/sink.go
//
// Fire-and-forget gameplay events.
// Responsibilities:
//   - Record never blocks: events go into a bounded channel and are dropped
//     (and counted) when it is full.
//   - One worker drains the channel into the events table.
//   - Close stops intake and waits for the backlog to be written.

package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pano/internal/database"
)

// Event is one recorded gameplay event.
type Event struct {
	Kind      string
	SessionID string
	Fields    map[string]any
	At        time.Time
}

// Writer persists events.
type Writer interface {
	Write(ctx context.Context, ev Event) error
}

type Sink struct {
	w       Writer
	ch      chan Event
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	written atomic.Int64
	now     func() time.Time
}

// NewSink starts the worker. buffer is the channel capacity.
func NewSink(w Writer, buffer int) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Sink{
		w:    w,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
		now:  time.Now,
	}
	go s.run()
	return s
}

// Record enqueues an event. The sessionId field, when present, becomes the
// row's session column.
func (s *Sink) Record(kind string, fields map[string]any) {
	ev := Event{Kind: kind, Fields: fields, At: s.now().UTC()}
	if id, ok := fields["sessionId"].(string); ok {
		ev.SessionID = id
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- ev:
	default:
		if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Warn().Int64("dropped", n).Str("kind", kind).Msg("telemetry buffer full")
		}
	}
}

// Dropped reports how many events were discarded.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Written reports how many events were persisted.
func (s *Sink) Written() int64 { return s.written.Load() }

func (s *Sink) run() {
	defer close(s.done)
	for ev := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.w.Write(ctx, ev); err != nil {
			log.Warn().Err(err).Str("kind", ev.Kind).Msg("telemetry write")
		} else {
			s.written.Add(1)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the backlog is written or
// ctx ends.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DBWriter writes events into the events table.
type DBWriter struct {
	db *database.DB
}

func NewDBWriter(db *database.DB) *DBWriter { return &DBWriter{db: db} }

func (d *DBWriter) Write(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO events (kind, session_id, payload, created_at) VALUES (?,?,?,?)`,
		ev.Kind, ev.SessionID, string(payload), ev.At.Format(time.RFC3339Nano),
	)
	return err
}
