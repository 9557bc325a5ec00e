package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

var _ repository.MaterialLotRepository = (*MaterialLotRepo)(nil)

const lotColumns = `id, material_id, supplier_id, lot_number, quantity_received,
	quantity_remaining, cost_per_unit, intake_at, expires_at, grade, location,
	created_by, created_at, updated_at`

// MaterialLotRepo implementación de MaterialLotRepository sobre PostgreSQL
// (usable con pool o tx).
type MaterialLotRepo struct {
	q Querier
}

// NewMaterialLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialLotRepository(q Querier) *MaterialLotRepo {
	return &MaterialLotRepo{q: q}
}

// Create persiste un lote nuevo.
func (r *MaterialLotRepo) Create(lot *entity.MaterialLot) error {
	query := `
		INSERT INTO material_lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.MaterialID, lot.SupplierID, lot.LotNumber,
		lot.QuantityReceived, lot.QuantityRemaining, lot.CostPerUnit,
		lot.IntakeAt, lot.ExpiresAt, nullIfEmpty(lot.Grade), nullIfEmpty(lot.Location),
		nullIfEmpty(lot.CreatedBy), lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote duplicado: %w", err)
		}
		return fmt.Errorf("insert material lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote; nil si no existe.
func (r *MaterialLotRepo) GetByID(id string) (*entity.MaterialLot, error) {
	query := `SELECT ` + lotColumns + ` FROM material_lots WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get material lot")
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE). Es la
// unidad de serialización: dos mutadores del mismo lote se encolan acá.
func (r *MaterialLotRepo) GetForUpdate(id string) (*entity.MaterialLot, error) {
	query := `SELECT ` + lotColumns + ` FROM material_lots WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get material lot for update")
}

// ListAvailableByMaterial lotes con remaining > 0 y no vencidos, en orden
// FIFO: intake_at ascendente con empate por id (determinista).
func (r *MaterialLotRepo) ListAvailableByMaterial(materialID string, now time.Time) ([]*entity.MaterialLot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM material_lots
		WHERE material_id = $1
		  AND quantity_remaining > 0
		  AND (expires_at IS NULL OR expires_at >= $2)
		ORDER BY intake_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, materialID, now)
	if err != nil {
		return nil, fmt.Errorf("list available lots: %w", err)
	}
	defer rows.Close()

	var lots []*entity.MaterialLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// UpdateRemaining fija la cantidad restante del lote.
func (r *MaterialLotRepo) UpdateRemaining(id string, remaining decimal.Decimal, now time.Time) error {
	query := `UPDATE material_lots SET quantity_remaining = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, remaining, now)
	if err != nil {
		return fmt.Errorf("update lot remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot remaining: lote %s no existe", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *MaterialLotRepo) scanOne(row pgx.Row, op string) (*entity.MaterialLot, error) {
	lot, err := scanLot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lot, nil
}

func scanLot(row rowScanner) (*entity.MaterialLot, error) {
	var l entity.MaterialLot
	var grade, location, createdBy *string
	err := row.Scan(
		&l.ID, &l.MaterialID, &l.SupplierID, &l.LotNumber,
		&l.QuantityReceived, &l.QuantityRemaining, &l.CostPerUnit,
		&l.IntakeAt, &l.ExpiresAt, &grade, &location,
		&createdBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Grade = derefStr(grade)
	l.Location = derefStr(location)
	l.CreatedBy = derefStr(createdBy)
	return &l, nil
}
