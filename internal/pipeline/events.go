// Package pipeline orchestrates document processing: download, OCR,
// writeback, and optional AI analysis, with progress streamed to consumers
// over SSE.
package pipeline

import "sync"

// Step identifies a pipeline progress event.
type Step string

const (
	StepStart     Step = "start"
	StepProgress  Step = "progress"
	StepDownload  Step = "download"
	StepOCR       Step = "ocr"
	StepWriteback Step = "writeback"
	StepAI        Step = "ai"
	StepDone      Step = "done"
	StepError     Step = "error"
)

// Item step variants emitted for individual documents within a batch run.
const (
	StepItemDownload  Step = "item_download"
	StepItemOCR       Step = "item_ocr"
	StepItemWriteback Step = "item_writeback"
	StepItemAI        Step = "item_ai"
	StepItemDone      Step = "item_done"
	StepItemError     Step = "item_error"
)

// itemStep maps a single-document step to its batch item variant.
func itemStep(step Step) Step {
	switch step {
	case StepDownload:
		return StepItemDownload
	case StepOCR:
		return StepItemOCR
	case StepWriteback:
		return StepItemWriteback
	case StepAI:
		return StepItemAI
	case StepDone:
		return StepItemDone
	case StepError:
		return StepItemError
	}
	return step
}

// Event is one progress notification.
type Event struct {
	Step    Step           `json:"step"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Emitter receives progress events from a run.
type Emitter interface {
	Emit(step Step, message string, data map[string]any)
}

// Stream is a bounded single-producer event channel. Emit never blocks the
// producer: events are dropped when the buffer is full or the stream is
// closed, so an abandoned consumer cannot stall an in-flight run.
type Stream struct {
	ch chan Event

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewStream creates a Stream with the given buffer size.
func NewStream(buffer int) *Stream {
	if buffer < 1 {
		buffer = 1
	}
	return &Stream{ch: make(chan Event, buffer)}
}

// Emit queues an event without blocking, dropping it when the buffer is full
// or the stream is closed.
func (s *Stream) Emit(step Step, message string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.dropped++
		return
	}

	select {
	case s.ch <- Event{Step: step, Message: message, Data: data}:
	default:
		s.dropped++
	}
}

// Events returns the receive side of the stream. The channel closes when the
// producer calls Close.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Close marks the stream finished and closes the event channel. Safe to call
// once per stream; Emit after Close drops.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Dropped returns the number of events discarded by the drop policy.
func (s *Stream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// nopEmitter discards all events.
type nopEmitter struct{}

func (nopEmitter) Emit(Step, string, map[string]any) {}

// itemEmitter forwards events to a batch stream, rewriting steps to their
// item variants and tagging each event with the document ID.
type itemEmitter struct {
	inner      Emitter
	documentID int
}

func (e itemEmitter) Emit(step Step, message string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["document_id"] = e.documentID
	e.inner.Emit(itemStep(step), message, data)
}
