package file

import "context"

type TxManager struct {
	store *JSONStore
}

func NewTxManager(store *JSONStore) TxManager {
	return TxManager{store: store}
}

// RunInTx serializes fn against every other transaction on the store, so a
// read-modify-write of one document is never interleaved with another. Plain
// Get and Set calls outside a transaction are not blocked. Writes are not
// rolled back when fn fails.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.txMutex.Lock()
	defer t.store.txMutex.Unlock()
	return fn(ctx)
}
