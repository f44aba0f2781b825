package file

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"gardensync/internal/app/ports"
)

func TestTxManagerSerializesReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "layouts.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tx := NewTxManager(store)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- tx.RunInTx(ctx, func(ctx context.Context) error {
				n := 0
				raw, err := store.Get(ctx, "counter")
				switch {
				case errors.Is(err, ports.ErrNotFound):
				case err != nil:
					return err
				default:
					if n, err = strconv.Atoi(string(raw)); err != nil {
						return err
					}
				}
				return store.Set(ctx, "counter", json.RawMessage(strconv.Itoa(n+1)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("tx error: %v", err)
		}
	}

	raw, err := store.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := string(raw); got != strconv.Itoa(workers) {
		t.Fatalf("lost updates: got=%s want=%d", got, workers)
	}
}

func TestTxManagerHonorsCanceledContext(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "layouts.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = NewTxManager(store).RunInTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected canceled without running fn, got err=%v called=%v", err, called)
	}
}
