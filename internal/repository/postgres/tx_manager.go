package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doctrack/internal/port"
)

type txManager struct {
	db *sqlx.DB
}

// NewTxManager creates a TxManager whose repositories share one sqlx.Tx per unit of work.
func NewTxManager(db *sqlx.DB) port.TxManager {
	return &txManager{db: db}
}

func repositoriesOn(q sqlx.ExtContext) port.Repositories {
	return port.Repositories{
		Requests:   &requestRepo{db: q},
		Gates:      &gateDocumentRepo{db: q},
		Audit:      &auditLogRepo{db: q},
		Signatures: &signatureRepo{db: q},
	}
}

func (m *txManager) Repositories() port.Repositories {
	return repositoriesOn(m.db)
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("txManager.WithinTx begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, repositoriesOn(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("txManager.WithinTx commit: %w", err)
	}
	return nil
}
