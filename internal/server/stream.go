package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwbudde/bitsearch/internal/store"
)

// ProgressEvent is one update on a job's experiment. Seq increases per job
// and doubles as the SSE event id.
type ProgressEvent struct {
	Seq        uint64    `json:"seq"`
	JobID      string    `json:"jobId"`
	State      JobState  `json:"state"`
	Algorithm  string    `json:"algorithm,omitempty"`
	Trial      int       `json:"trial"`
	Generation int       `json:"generation"`
	Best       float64   `json:"best"`
	Timestamp  time.Time `json:"timestamp"`

	// Set on the final event of a completed job.
	Summaries []store.AlgorithmSummary `json:"summaries,omitempty"`
}

// eventFor builds a progress event from a job snapshot
func eventFor(job *Job) ProgressEvent {
	ev := ProgressEvent{
		JobID:      job.ID,
		State:      job.State,
		Algorithm:  job.Algorithm,
		Trial:      job.Trial,
		Generation: job.Generation,
		Best:       job.Best,
		Timestamp:  time.Now(),
	}
	if job.State.Done() {
		ev.Summaries = job.Summaries
	}
	return ev
}

// sseName is the SSE event type: "progress" while the job runs, "done" for
// its final state.
func (ev ProgressEvent) sseName() string {
	if ev.State.Done() {
		return "done"
	}
	return "progress"
}

const subscriberBuffer = 16

// EventBroadcaster fans job events out to SSE subscribers. The latest
// event of a running job is replayed to new subscribers; a job's state is
// released once its final event has been delivered.
type EventBroadcaster struct {
	mu      sync.Mutex
	clients map[string]map[chan ProgressEvent]struct{}
	last    map[string]ProgressEvent
	seq     map[string]uint64
}

// NewEventBroadcaster creates a new event broadcaster
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[string]map[chan ProgressEvent]struct{}),
		last:    make(map[string]ProgressEvent),
		seq:     make(map[string]uint64),
	}
}

// Subscribe registers a client for a job's events.
func (eb *EventBroadcaster) Subscribe(jobID string) chan ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan ProgressEvent, subscriberBuffer)
	if eb.clients[jobID] == nil {
		eb.clients[jobID] = make(map[chan ProgressEvent]struct{})
	}
	eb.clients[jobID][ch] = struct{}{}

	if ev, ok := eb.last[jobID]; ok {
		ch <- ev
	}

	slog.Debug("SSE client subscribed", "job_id", jobID, "clients", len(eb.clients[jobID]))
	return ch
}

// Unsubscribe removes and closes a client channel. It is safe to call more
// than once.
func (eb *EventBroadcaster) Unsubscribe(jobID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	clients := eb.clients[jobID]
	if _, ok := clients[ch]; !ok {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(eb.clients, jobID)
	}
	slog.Debug("SSE client unsubscribed", "job_id", jobID)
}

// Broadcast stamps the event with the job's next sequence number and sends
// it to every subscriber. A subscriber whose buffer is full loses its oldest
// pending event, never the new one, so the final state always arrives.
func (eb *EventBroadcaster) Broadcast(event ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.seq[event.JobID]++
	event.Seq = eb.seq[event.JobID]

	if event.State.Done() {
		delete(eb.last, event.JobID)
		delete(eb.seq, event.JobID)
	} else {
		eb.last[event.JobID] = event
	}

	for ch := range eb.clients[event.JobID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
			slog.Warn("SSE client lagging, dropped oldest event", "job_id", event.JobID)
		}
	}
}

// handleJobStream streams a job's progress as server-sent events until the
// job reaches a final state or the client goes away.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe before reading the job so a final event sent in between is
	// not missed.
	events := s.jobManager.broadcaster.Subscribe(jobID)
	defer s.jobManager.broadcaster.Unsubscribe(jobID, events)

	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeSSEEvent(w, eventFor(job)); err != nil {
		slog.Error("Failed to write initial SSE event", "job_id", jobID, "error", err)
		return
	}
	flusher.Flush()

	if job.State.Done() {
		return
	}

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("SSE client disconnected", "job_id", jobID)
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "job_id", jobID, "error", err)
				return
			}
			flusher.Flush()
			if event.State.Done() {
				return
			}

		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes one event frame. The snapshot sent on connect has
// no sequence number and carries no id line.
func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if event.Seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", event.Seq); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.sseName(), data)
	return err
}
