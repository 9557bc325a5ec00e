package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/lotes-api/internal/application/inventory"
	"github.com/jhoicas/lotes-api/internal/application/production"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// Ensure TxRunner implementa ambos puertos de transacción.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ production.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. PostgreSQL
// sí ofrece atomicidad multi-fila, así que el servicio de batches usa el
// camino atómico nativo y la saga queda como fallback para stores que no la
// tienen.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos de inventario atados a
// la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewMaterialLotRepository(tx), NewInventoryTransactionRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunProduction inicia una transacción con los repos de inventario y batches
// (creación/actualización de batches multi-lote en una sola tx).
func (r *TxRunner) RunProduction(ctx context.Context, fn func(
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
	batchRepo repository.ProductionBatchRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewMaterialLotRepository(tx),
		NewInventoryTransactionRepository(tx),
		NewProductionBatchRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
