package sprite

import (
	"context"
	"errors"
	"testing"
)

func TestWarmerBatchesAndReportsProgress(t *testing.T) {
	w := NewWarmer(3)
	yields := 0
	w.Yield = func(ctx context.Context) error {
		yields++
		return nil
	}
	var seen []Progress
	unsubscribe := w.Subscribe(func(p Progress) { seen = append(seen, p) })
	defer unsubscribe()

	count := 0
	jobs := make([]Job, 7)
	for i := range jobs {
		jobs[i] = func() { count++ }
	}
	if err := w.Warm(context.Background(), jobs); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if count != 7 || yields != 2 {
		t.Fatalf("count=%d yields=%d want 7 and 2", count, yields)
	}
	want := []Progress{{7, 0, false}, {7, 3, false}, {7, 6, false}, {7, 7, false}, {7, 7, true}}
	if len(seen) != len(want) {
		t.Fatalf("got=%+v want=%+v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("progress %d got=%+v want=%+v", i, seen[i], want[i])
		}
	}
	if got := w.Progress(); !got.Completed {
		t.Fatalf("final progress should be completed, got %+v", got)
	}
}

func TestWarmerStopsOnCancel(t *testing.T) {
	w := NewWarmer(1)
	ctx, cancel := context.WithCancel(context.Background())
	jobs := []Job{func() {}, Job(cancel), func() { t.Fatalf("ran after cancel") }}
	if err := w.Warm(ctx, jobs); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if p := w.Progress(); p.Completed || p.Done != 2 {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestWarmerUnsubscribe(t *testing.T) {
	w := NewWarmer(2)
	calls := 0
	unsubscribe := w.Subscribe(func(Progress) { calls++ })
	unsubscribe()
	_ = w.Warm(context.Background(), []Job{func() {}})
	if calls != 0 {
		t.Fatalf("listener called %d times after unsubscribe", calls)
	}
}
