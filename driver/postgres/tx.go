package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"inkwell/domain"
)

type txKey struct{}

// withTx stores the running transaction in the context so repository
// methods called inside RunInTx operate on it instead of the pool.
func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// querier returns the transaction bound to ctx, or db when none is.
func querier(ctx context.Context, db DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// TxRunner implements port.TxRunner. It collects searchable changes
// while fn runs and surfaces them only once the commit is durable;
// anything recorded before a rollback is discarded with the
// transaction.
type TxRunner struct {
	db DB
}

func NewTxRunner(db DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, changes *domain.ChangeSet) error) (*domain.ChangeSet, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	changes := domain.NewChangeSet()

	if err := fn(withTx(ctx, tx), changes); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return changes, nil
}
