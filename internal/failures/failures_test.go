package failures_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courier/internal/failures"
	"github.com/JaimeStill/courier/pkg/pagination"
)

func TestSourceValid(t *testing.T) {
	tests := []struct {
		name     string
		source   failures.Source
		expected bool
	}{
		{"ocr", failures.SourceOCR, true},
		{"ai", failures.SourceAI, true},
		{"empty", failures.Source(""), false},
		{"unknown", failures.Source("scanner"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.source.Valid(); got != tt.expected {
				t.Errorf("Valid() = %t, expected %t", got, tt.expected)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", failures.ErrNotFound, http.StatusNotFound},
		{"duplicate", failures.ErrDuplicate, http.StatusConflict},
		{"invalid id", failures.ErrInvalidID, http.StatusBadRequest},
		{"invalid source", failures.ErrInvalidSource, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failures.MapHTTPStatus(tt.err); got != tt.expected {
				t.Errorf("MapHTTPStatus = %d, expected %d", got, tt.expected)
			}
		})
	}
}

// fakeSystem serves canned responses for handler tests.
type fakeSystem struct {
	stats    *failures.Stats
	resetErr error
	resets   []int
}

func (s *fakeSystem) Handler() *failures.Handler { return nil }

func (s *fakeSystem) List(context.Context, pagination.PageRequest, failures.Filters) (*pagination.PageResult[failures.PermanentFailure], error) {
	result := pagination.NewPageResult([]failures.PermanentFailure{}, 0, 1, 10)
	return &result, nil
}

func (s *fakeSystem) Find(context.Context, int) (*failures.PermanentFailure, error) {
	return nil, failures.ErrNotFound
}

func (s *fakeSystem) Stats(context.Context) (*failures.Stats, error) { return s.stats, nil }

func (s *fakeSystem) Add(context.Context, int, string, failures.Source) (*failures.PermanentFailure, error) {
	return nil, nil
}

func (s *fakeSystem) Reset(_ context.Context, documentID int) error {
	if s.resetErr != nil {
		return s.resetErr
	}
	s.resets = append(s.resets, documentID)
	return nil
}

func testHandler(sys failures.System) *failures.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return failures.NewHandler(sys, logger, pagination.Config{DefaultPageSize: 10, MaxPageSize: 100})
}

func TestHandlerReset(t *testing.T) {
	t.Run("resets failure", func(t *testing.T) {
		sys := &fakeSystem{}
		h := testHandler(sys)

		r := httptest.NewRequest("POST", "/failures/42/reset", nil)
		r.SetPathValue("id", "42")
		w := httptest.NewRecorder()

		h.Reset(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, expected %d", w.Code, http.StatusOK)
		}
		if len(sys.resets) != 1 || sys.resets[0] != 42 {
			t.Errorf("resets = %v, expected [42]", sys.resets)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["reset"] != true {
			t.Errorf("reset = %v, expected true", body["reset"])
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		h := testHandler(&fakeSystem{resetErr: failures.ErrNotFound})

		r := httptest.NewRequest("POST", "/failures/99/reset", nil)
		r.SetPathValue("id", "99")
		w := httptest.NewRecorder()

		h.Reset(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, expected %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		h := testHandler(&fakeSystem{})

		r := httptest.NewRequest("POST", "/failures/abc/reset", nil)
		r.SetPathValue("id", "abc")
		w := httptest.NewRecorder()

		h.Reset(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, expected %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestHandlerStats(t *testing.T) {
	h := testHandler(&fakeSystem{stats: &failures.Stats{OCR: 2, AI: 1, Total: 3}})

	r := httptest.NewRequest("GET", "/failures/stats", nil)
	w := httptest.NewRecorder()

	h.Stats(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected %d", w.Code, http.StatusOK)
	}

	var stats failures.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if stats.OCR != 2 || stats.Total != 3 {
		t.Errorf("stats = %+v", stats)
	}
}
