package queue_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/courier/internal/queue"
	"github.com/JaimeStill/courier/pkg/pagination"
)

// fakeSystem serves canned responses for handler tests.
type fakeSystem struct {
	entries map[int]*queue.QueueEntry
	stats   *queue.Stats
	addErr  error
}

func (s *fakeSystem) Handler() *queue.Handler { return nil }

func (s *fakeSystem) List(context.Context, pagination.PageRequest, queue.Filters) (*pagination.PageResult[queue.QueueEntry], error) {
	var entries []queue.QueueEntry
	for _, e := range s.entries {
		entries = append(entries, *e)
	}
	result := pagination.NewPageResult(entries, len(entries), 1, 10)
	return &result, nil
}

func (s *fakeSystem) Find(_ context.Context, documentID int) (*queue.QueueEntry, error) {
	entry, ok := s.entries[documentID]
	if !ok {
		return nil, queue.ErrNotFound
	}
	return entry, nil
}

func (s *fakeSystem) Stats(context.Context) (*queue.Stats, error) { return s.stats, nil }

func (s *fakeSystem) Add(_ context.Context, cmd queue.AddCommand) (*queue.QueueEntry, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &queue.QueueEntry{DocumentID: cmd.DocumentID, Status: queue.StatusPending, Reason: cmd.Reason}, nil
}

func (s *fakeSystem) Enqueue(context.Context, int, string) (*queue.QueueEntry, error) {
	return nil, nil
}

func (s *fakeSystem) Remove(_ context.Context, documentID int) error {
	entry, ok := s.entries[documentID]
	if !ok {
		return queue.ErrNotFound
	}
	if entry.Status == queue.StatusProcessing {
		return queue.ErrProcessing
	}
	return nil
}

func (s *fakeSystem) Text(_ context.Context, documentID int) (string, error) {
	entry, ok := s.entries[documentID]
	if !ok {
		return "", queue.ErrNotFound
	}
	if !entry.HasText() {
		return "", queue.ErrNoText
	}
	return *entry.OCRText, nil
}

func (s *fakeSystem) SetStatus(context.Context, int, queue.Status, *string) error { return nil }

func (s *fakeSystem) ListProcessable(context.Context) ([]queue.QueueEntry, error) { return nil, nil }

func (s *fakeSystem) Delete(context.Context, int) error { return nil }

func testHandler(sys queue.System) *queue.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return queue.NewHandler(sys, logger, pagination.Config{DefaultPageSize: 10, MaxPageSize: 100})
}

func TestHandlerText(t *testing.T) {
	text := "extracted text"
	sys := &fakeSystem{entries: map[int]*queue.QueueEntry{
		42: {DocumentID: 42, Status: queue.StatusDone, OCRText: &text},
		7:  {DocumentID: 7, Status: queue.StatusPending},
	}}
	h := testHandler(sys)

	tests := []struct {
		name     string
		id       string
		expected int
	}{
		{"stored text", "42", http.StatusOK},
		{"no text yet", "7", http.StatusNotFound},
		{"unknown document", "99", http.StatusNotFound},
		{"malformed id", "abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/queue/"+tt.id+"/text", nil)
			r.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			h.Text(w, r)

			if w.Code != tt.expected {
				t.Fatalf("status = %d, expected %d", w.Code, tt.expected)
			}
			if tt.expected != http.StatusOK {
				return
			}

			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["ocr_text"] != text {
				t.Errorf("ocr_text = %v, expected %q", body["ocr_text"], text)
			}
		})
	}
}

func TestHandlerAdd(t *testing.T) {
	t.Run("creates entry", func(t *testing.T) {
		h := testHandler(&fakeSystem{})
		r := httptest.NewRequest("POST", "/queue", strings.NewReader(`{"document_id": 42, "reason": "manual"}`))
		w := httptest.NewRecorder()

		h.Add(w, r)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, expected %d", w.Code, http.StatusCreated)
		}

		var entry queue.QueueEntry
		if err := json.NewDecoder(w.Body).Decode(&entry); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if entry.DocumentID != 42 || entry.Status != queue.StatusPending {
			t.Errorf("entry = %+v", entry)
		}
	})

	t.Run("duplicate conflicts", func(t *testing.T) {
		h := testHandler(&fakeSystem{addErr: queue.ErrDuplicate})
		r := httptest.NewRequest("POST", "/queue", strings.NewReader(`{"document_id": 42}`))
		w := httptest.NewRecorder()

		h.Add(w, r)

		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, expected %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		h := testHandler(&fakeSystem{})
		r := httptest.NewRequest("POST", "/queue", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		h.Add(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, expected %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestHandlerRemove(t *testing.T) {
	sys := &fakeSystem{entries: map[int]*queue.QueueEntry{
		42: {DocumentID: 42, Status: queue.StatusDone},
		7:  {DocumentID: 7, Status: queue.StatusProcessing},
	}}
	h := testHandler(sys)

	tests := []struct {
		name     string
		id       string
		expected int
	}{
		{"removable entry", "42", http.StatusNoContent},
		{"processing entry", "7", http.StatusConflict},
		{"unknown document", "99", http.StatusNotFound},
		{"malformed id", "abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("DELETE", "/queue/"+tt.id, nil)
			r.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			h.Remove(w, r)

			if w.Code != tt.expected {
				t.Errorf("status = %d, expected %d", w.Code, tt.expected)
			}
		})
	}
}

func TestHandlerStats(t *testing.T) {
	sys := &fakeSystem{stats: &queue.Stats{Pending: 2, Done: 1, Total: 3}}
	h := testHandler(sys)

	r := httptest.NewRequest("GET", "/queue/stats", nil)
	w := httptest.NewRecorder()

	h.Stats(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected %d", w.Code, http.StatusOK)
	}

	var stats queue.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if stats.Pending != 2 || stats.Total != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRoutes(t *testing.T) {
	group := testHandler(&fakeSystem{}).Routes()

	if group.Prefix != "/queue" {
		t.Errorf("prefix = %s, expected /queue", group.Prefix)
	}
	if len(group.Routes) != 5 {
		t.Errorf("routes = %d, expected 5", len(group.Routes))
	}
}
