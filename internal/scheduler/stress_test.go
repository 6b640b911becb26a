package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func drain(t *testing.T, engine *Engine, want int) []ReminderEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	got := make([]ReminderEvent, 0, want)
	for len(got) < want {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting events: received=%d want=%d dropped=%d", len(got), want, engine.Dropped())
		case ev := <-engine.C():
			got = append(got, ev)
		}
	}
	return got
}

func TestEngineStressCancelDuringSchedule(t *testing.T) {
	engine := NewEngine(4096)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const perWorker = 150
	now := time.Now().UTC()

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				keep := ReminderEvent{
					ID:        fmt.Sprintf("keep-%d-%d", w, i),
					TaskID:    fmt.Sprintf("keep-%d", i),
					TriggerAt: now.Add(time.Duration((w+i)%40+10) * time.Millisecond),
				}
				later := ReminderEvent{
					ID:        fmt.Sprintf("drop-%d-%d", w, i),
					TaskID:    fmt.Sprintf("drop-%d", w),
					TriggerAt: now.Add(time.Hour),
				}
				if err := engine.Schedule(keep); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
				if err := engine.Schedule(later); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}

	stop := make(chan struct{})
	var cancels sync.WaitGroup
	cancels.Add(1)
	go func() {
		defer cancels.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				engine.Cancel(fmt.Sprintf("drop-%d", i%workers))
			}
		}
	}()

	wg.Wait()
	close(stop)
	cancels.Wait()
	for w := 0; w < workers; w++ {
		engine.Cancel(fmt.Sprintf("drop-%d", w))
	}

	for _, ev := range drain(t, engine, workers*perWorker) {
		if !strings.HasPrefix(ev.ID, "keep-") {
			t.Fatalf("cancelled reminder delivered: %s", ev.ID)
		}
	}
	if n := engine.Pending(); n != 0 {
		t.Fatalf("expected nothing pending after cancel, got %d", n)
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}

func TestEngineStressResetDuringSchedule(t *testing.T) {
	engine := NewEngine(4096)
	engine.Start()
	defer engine.Stop()

	const workers = 6
	const perWorker = 200
	now := time.Now().UTC()

	plan := func(prefix string, n int, trigger time.Time) []ReminderEvent {
		out := make([]ReminderEvent, n)
		for i := range out {
			out[i] = ReminderEvent{ID: fmt.Sprintf("%s-%d", prefix, i), TaskID: fmt.Sprintf("task-%d", i), TriggerAt: trigger}
		}
		return out
	}

	var wg sync.WaitGroup
	wg.Add(workers + 1)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ev := ReminderEvent{ID: fmt.Sprintf("w%d-%d", w, i), TaskID: "stale", TriggerAt: now.Add(time.Hour)}
				if err := engine.Schedule(ev); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}
	go func() {
		defer wg.Done()
		for r := 0; r < 50; r++ {
			if err := engine.Reset(plan(fmt.Sprintf("round%d", r), 20, now.Add(time.Hour))); err != nil {
				t.Errorf("reset failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	const final = 300
	if err := engine.Reset(plan("final", final, time.Now().UTC().Add(20*time.Millisecond))); err != nil {
		t.Fatalf("final reset: %v", err)
	}
	if n := engine.Pending(); n != final {
		t.Fatalf("expected reset to replace the queue with %d reminders, got %d", final, n)
	}
	for _, ev := range drain(t, engine, final) {
		if !strings.HasPrefix(ev.ID, "final-") {
			t.Fatalf("reminder from before the reset delivered: %s", ev.ID)
		}
	}
	if n := engine.Pending(); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}
