package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*InventoryTransactionRepo)(nil)

const txColumns = `id, lot_id, kind, delta, quantity_before, quantity_after,
	reference_id, reference_type, reason, created_by, created_at`

// InventoryTransactionRepo implementación del log append-only sobre
// PostgreSQL (usable con pool o tx). Solo inserta y lista: las transacciones
// nunca se actualizan ni se borran.
type InventoryTransactionRepo struct {
	q Querier
}

// NewInventoryTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryTransactionRepository(q Querier) *InventoryTransactionRepo {
	return &InventoryTransactionRepo{q: q}
}

// Create persiste una transacción de inventario.
func (r *InventoryTransactionRepo) Create(tx *entity.InventoryTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.LotID, tx.Kind, tx.Delta, tx.QuantityBefore, tx.QuantityAfter,
		nullIfEmpty(tx.ReferenceID), nullIfEmpty(tx.ReferenceType),
		nullIfEmpty(tx.Reason), nullIfEmpty(tx.CreatedBy), tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inventory transaction: %w", err)
	}
	return nil
}

// ListByLot historial de un lote, más reciente primero.
func (r *InventoryTransactionRepo) ListByLot(lotID string) ([]*entity.InventoryTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM inventory_transactions
		WHERE lot_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.list(query, lotID)
}

// ListByReference movimientos originados por una referencia (ej: un batch),
// en orden cronológico ascendente.
func (r *InventoryTransactionRepo) ListByReference(referenceID string) ([]*entity.InventoryTransaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM inventory_transactions
		WHERE reference_id = $1
		ORDER BY created_at ASC, id ASC`
	return r.list(query, referenceID)
}

func (r *InventoryTransactionRepo) list(query string, arg any) ([]*entity.InventoryTransaction, error) {
	rows, err := r.q.Query(context.Background(), query, arg)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	defer rows.Close()

	var txs []*entity.InventoryTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows pgx.Rows) (*entity.InventoryTransaction, error) {
	var t entity.InventoryTransaction
	var refID, refType, reason, createdBy *string
	err := rows.Scan(
		&t.ID, &t.LotID, &t.Kind, &t.Delta, &t.QuantityBefore, &t.QuantityAfter,
		&refID, &refType, &reason, &createdBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ReferenceID = derefStr(refID)
	t.ReferenceType = derefStr(refType)
	t.Reason = derefStr(reason)
	t.CreatedBy = derefStr(createdBy)
	return &t, nil
}
