package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

var _ repository.ProductionBatchRepository = (*ProductionBatchRepo)(nil)

const batchColumns = `id, batch_number, production_date, status, output_quantity,
	total_input_cost, cost_per_unit, notes, created_by, created_at, updated_at`

// ProductionBatchRepo implementación de ProductionBatchRepository sobre
// PostgreSQL (usable con pool o tx).
type ProductionBatchRepo struct {
	q Querier
}

// NewProductionBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionBatchRepository(q Querier) *ProductionBatchRepo {
	return &ProductionBatchRepo{q: q}
}

// Create persiste cabecera e insumos.
func (r *ProductionBatchRepo) Create(batch *entity.ProductionBatch) error {
	query := `
		INSERT INTO production_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		batch.ID, batch.BatchNumber, batch.ProductionDate, batch.Status,
		batch.OutputQuantity, batch.TotalInputCost, batch.CostPerUnit,
		nullIfEmpty(batch.Notes), nullIfEmpty(batch.CreatedBy),
		batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("batch number ya existe: %w", err)
		}
		return fmt.Errorf("insert production batch: %w", err)
	}
	return r.insertInputs(batch.ID, batch.Inputs)
}

// GetByID obtiene el batch con sus insumos; nil si no existe.
func (r *ProductionBatchRepo) GetByID(id string) (*entity.ProductionBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM production_batches WHERE id = $1`
	return r.getOne(query, id)
}

// GetByNumber obtiene el batch por su número humano; nil si no existe.
func (r *ProductionBatchRepo) GetByNumber(number string) (*entity.ProductionBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM production_batches WHERE batch_number = $1`
	return r.getOne(query, number)
}

// UpdateHeader actualiza solo los campos de cabecera.
func (r *ProductionBatchRepo) UpdateHeader(batch *entity.ProductionBatch) error {
	query := `
		UPDATE production_batches
		SET production_date  = $2,
		    status           = $3,
		    output_quantity  = $4,
		    total_input_cost = $5,
		    cost_per_unit    = $6,
		    notes            = $7,
		    updated_at       = $8
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		batch.ID, batch.ProductionDate, batch.Status, batch.OutputQuantity,
		batch.TotalInputCost, batch.CostPerUnit, nullIfEmpty(batch.Notes), batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update batch header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update batch header: batch %s no existe", batch.ID)
	}
	return nil
}

// ReplaceInputs borra y re-inserta el set de insumos del batch.
func (r *ProductionBatchRepo) ReplaceInputs(batchID string, inputs []entity.BatchInput) error {
	if _, err := r.q.Exec(context.Background(),
		`DELETE FROM production_batch_inputs WHERE batch_id = $1`, batchID); err != nil {
		return fmt.Errorf("delete batch inputs: %w", err)
	}
	return r.insertInputs(batchID, inputs)
}

// UpdateStatus fija el estado del batch.
func (r *ProductionBatchRepo) UpdateStatus(batchID, status string, now time.Time) error {
	query := `UPDATE production_batches SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, batchID, status, now)
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update batch status: batch %s no existe", batchID)
	}
	return nil
}

func (r *ProductionBatchRepo) insertInputs(batchID string, inputs []entity.BatchInput) error {
	query := `
		INSERT INTO production_batch_inputs (id, batch_id, lot_id, material_id, quantity_used, unit_cost, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, input := range inputs {
		if input.ID == "" {
			input.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(context.Background(), query,
			input.ID, batchID, input.LotID, input.MaterialID,
			input.QuantityUsed, input.UnitCost, input.Position,
		); err != nil {
			return fmt.Errorf("insert batch input: %w", err)
		}
	}
	return nil
}

func (r *ProductionBatchRepo) getOne(query string, arg any) (*entity.ProductionBatch, error) {
	var b entity.ProductionBatch
	var notes, createdBy *string
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&b.ID, &b.BatchNumber, &b.ProductionDate, &b.Status, &b.OutputQuantity,
		&b.TotalInputCost, &b.CostPerUnit, &notes, &createdBy,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production batch: %w", err)
	}
	b.Notes = derefStr(notes)
	b.CreatedBy = derefStr(createdBy)

	inputs, err := r.listInputs(b.ID)
	if err != nil {
		return nil, err
	}
	b.Inputs = inputs
	return &b, nil
}

func (r *ProductionBatchRepo) listInputs(batchID string) ([]entity.BatchInput, error) {
	query := `
		SELECT id, batch_id, lot_id, material_id, quantity_used, unit_cost, position
		FROM production_batch_inputs
		WHERE batch_id = $1
		ORDER BY position ASC`
	rows, err := r.q.Query(context.Background(), query, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch inputs: %w", err)
	}
	defer rows.Close()

	var inputs []entity.BatchInput
	for rows.Next() {
		var in entity.BatchInput
		if err := rows.Scan(&in.ID, &in.BatchID, &in.LotID, &in.MaterialID,
			&in.QuantityUsed, &in.UnitCost, &in.Position); err != nil {
			return nil, fmt.Errorf("scan batch input: %w", err)
		}
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}
