package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations stores execute against. It is
// satisfied by both *pgxpool.Pool and pgx.Tx, so the same store code runs
// inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Stores bundles all entity stores over one connection source.
type Stores struct {
	db DBTX
}

func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{db: pool}
}

// WithTx returns a Stores whose operations all run on the given
// transaction.
func (s *Stores) WithTx(tx pgx.Tx) *Stores {
	return &Stores{db: tx}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.db)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.db)
}

func (s *Stores) Projects() ProjectStore {
	return newProjectStore(s.db)
}

func (s *Stores) Documents() DocumentStore {
	return newDocumentStore(s.db)
}

func (s *Stores) Plans() PlanStore {
	return newPlanStore(s.db)
}

func (s *Stores) Checklists() ChecklistStore {
	return newChecklistStore(s.db)
}

func (s *Stores) Quotes() QuoteStore {
	return newQuoteStore(s.db)
}

func (s *Stores) Reconciliations() ReconciliationStore {
	return newReconciliationStore(s.db)
}

func (s *Stores) Publications() PublicationStore {
	return newPublicationStore(s.db)
}
