package pipeline_test

import (
	"testing"

	"github.com/JaimeStill/courier/internal/pipeline"
)

func TestStream(t *testing.T) {
	t.Run("buffers up to capacity", func(t *testing.T) {
		s := pipeline.NewStream(4)
		for i := 0; i < 4; i++ {
			s.Emit(pipeline.StepProgress, "working", nil)
		}
		s.Close()

		var received int
		for range s.Events() {
			received++
		}
		if received != 4 {
			t.Errorf("received = %d, expected 4", received)
		}
		if s.Dropped() != 0 {
			t.Errorf("dropped = %d, expected 0", s.Dropped())
		}
	})

	t.Run("drops when full without blocking", func(t *testing.T) {
		s := pipeline.NewStream(2)
		for i := 0; i < 5; i++ {
			s.Emit(pipeline.StepProgress, "working", nil)
		}

		if s.Dropped() != 3 {
			t.Errorf("dropped = %d, expected 3", s.Dropped())
		}
	})

	t.Run("emit after close drops", func(t *testing.T) {
		s := pipeline.NewStream(4)
		s.Close()
		s.Emit(pipeline.StepDone, "finished", nil)

		if s.Dropped() != 1 {
			t.Errorf("dropped = %d, expected 1", s.Dropped())
		}
		if _, ok := <-s.Events(); ok {
			t.Error("expected closed channel")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := pipeline.NewStream(1)
		s.Close()
		s.Close()
	})

	t.Run("minimum buffer of one", func(t *testing.T) {
		s := pipeline.NewStream(0)
		s.Emit(pipeline.StepStart, "begin", nil)
		if s.Dropped() != 0 {
			t.Errorf("dropped = %d, expected 0", s.Dropped())
		}
	})
}
