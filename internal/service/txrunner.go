package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/core/db"
	"planforge.app/anvil/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	Checklists() store.ChecklistStore
	Reconciliations() store.ReconciliationStore
	Publications() store.PublicationStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db     *db.DB
	stores *store.Stores
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(database *db.DB, stores *store.Stores) TxRunner {
	return &dbTxRunner{db: database, stores: stores}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(r.stores.WithTx(tx))
	})
}
