// Package memory implementa el Ledger Store en memoria: mismo contrato que
// los adaptadores PostgreSQL, pensado para tests y desarrollo local. La
// dualidad saga/tx-nativa del motor de batches se prueba contra este fake.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/application/inventory"
	"github.com/jhoicas/lotes-api/internal/application/production"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)
var _ production.TxRunner = (*Store)(nil)

// Store guarda lotes, transacciones, batches y usuarios bajo un único mutex:
// toda operación (y toda "transacción" vía Run) se serializa completa, lo que
// da la misma garantía de lectura-modificación-escritura atómica por lote que
// el SELECT FOR UPDATE de PostgreSQL.
type Store struct {
	mu      sync.Mutex
	lots    map[string]*entity.MaterialLot
	movs    []*entity.InventoryTransaction
	batches map[string]*entity.ProductionBatch
	users   map[string]*entity.User
}

// NewStore construye el store vacío.
func NewStore() *Store {
	return &Store{
		lots:    make(map[string]*entity.MaterialLot),
		batches: make(map[string]*entity.ProductionBatch),
		users:   make(map[string]*entity.User),
	}
}

// Lots devuelve el repositorio de lotes (con locking propio).
func (s *Store) Lots() repository.MaterialLotRepository { return &lockedLots{s} }

// Transactions devuelve el log de transacciones (con locking propio).
func (s *Store) Transactions() repository.InventoryTransactionRepository {
	return &lockedMovs{s}
}

// Batches devuelve el repositorio de batches (con locking propio).
func (s *Store) Batches() repository.ProductionBatchRepository { return &lockedBatches{s} }

// Users devuelve el repositorio de usuarios (con locking propio).
func (s *Store) Users() repository.UserRepository { return &lockedUsers{s} }

// Run ejecuta fn como una transacción: bajo el mutex global y con snapshot
// previo, así un error de fn revierte todo (mismo contrato que una tx SQL).
func (s *Store) Run(_ context.Context, fn func(
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&lotView{s}, &movView{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RunProduction igual que Run, con el repositorio de batches incluido.
func (s *Store) RunProduction(_ context.Context, fn func(
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
	batchRepo repository.ProductionBatchRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&lotView{s}, &movView{s}, &batchView{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type state struct {
	lots    map[string]*entity.MaterialLot
	movs    []*entity.InventoryTransaction
	batches map[string]*entity.ProductionBatch
}

func (s *Store) snapshot() state {
	snap := state{
		lots:    make(map[string]*entity.MaterialLot, len(s.lots)),
		movs:    make([]*entity.InventoryTransaction, len(s.movs)),
		batches: make(map[string]*entity.ProductionBatch, len(s.batches)),
	}
	for id, lot := range s.lots {
		snap.lots[id] = cloneLot(lot)
	}
	copy(snap.movs, s.movs)
	for id, b := range s.batches {
		snap.batches[id] = cloneBatch(b)
	}
	return snap
}

func (s *Store) restore(snap state) {
	s.lots = snap.lots
	s.movs = snap.movs
	s.batches = snap.batches
}

// ── Vistas sin locking (para usar dentro de Run/RunProduction) ──────────────

type lotView struct{ s *Store }

func (v *lotView) Create(lot *entity.MaterialLot) error {
	v.s.lots[lot.ID] = cloneLot(lot)
	return nil
}

func (v *lotView) GetByID(id string) (*entity.MaterialLot, error) {
	lot, ok := v.s.lots[id]
	if !ok {
		return nil, nil
	}
	return cloneLot(lot), nil
}

// GetForUpdate: el mutex global ya serializa, así que equivale a GetByID.
func (v *lotView) GetForUpdate(id string) (*entity.MaterialLot, error) {
	return v.GetByID(id)
}

func (v *lotView) ListAvailableByMaterial(materialID string, now time.Time) ([]*entity.MaterialLot, error) {
	var lots []*entity.MaterialLot
	for _, lot := range v.s.lots {
		if lot.MaterialID != materialID || !lot.Available(now) {
			continue
		}
		lots = append(lots, cloneLot(lot))
	}
	sort.Slice(lots, func(i, j int) bool {
		if lots[i].IntakeAt.Equal(lots[j].IntakeAt) {
			return lots[i].ID < lots[j].ID
		}
		return lots[i].IntakeAt.Before(lots[j].IntakeAt)
	})
	return lots, nil
}

func (v *lotView) UpdateRemaining(id string, remaining decimal.Decimal, now time.Time) error {
	lot, ok := v.s.lots[id]
	if !ok {
		return errLotNotFound(id)
	}
	lot.QuantityRemaining = remaining
	lot.UpdatedAt = now
	return nil
}

type movView struct{ s *Store }

func (v *movView) Create(tx *entity.InventoryTransaction) error {
	c := *tx
	v.s.movs = append(v.s.movs, &c)
	return nil
}

func (v *movView) ListByLot(lotID string) ([]*entity.InventoryTransaction, error) {
	var out []*entity.InventoryTransaction
	// El slice ya está en orden de inserción; recorrer al revés = más
	// reciente primero.
	for i := len(v.s.movs) - 1; i >= 0; i-- {
		if v.s.movs[i].LotID == lotID {
			c := *v.s.movs[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (v *movView) ListByReference(referenceID string) ([]*entity.InventoryTransaction, error) {
	var out []*entity.InventoryTransaction
	for _, tx := range v.s.movs {
		if tx.ReferenceID == referenceID {
			c := *tx
			out = append(out, &c)
		}
	}
	return out, nil
}

type batchView struct{ s *Store }

func (v *batchView) Create(batch *entity.ProductionBatch) error {
	v.s.batches[batch.ID] = cloneBatch(batch)
	return nil
}

func (v *batchView) GetByID(id string) (*entity.ProductionBatch, error) {
	b, ok := v.s.batches[id]
	if !ok {
		return nil, nil
	}
	return cloneBatch(b), nil
}

func (v *batchView) GetByNumber(number string) (*entity.ProductionBatch, error) {
	for _, b := range v.s.batches {
		if b.BatchNumber == number {
			return cloneBatch(b), nil
		}
	}
	return nil, nil
}

func (v *batchView) UpdateHeader(batch *entity.ProductionBatch) error {
	existing, ok := v.s.batches[batch.ID]
	if !ok {
		return errBatchNotFound(batch.ID)
	}
	c := cloneBatch(batch)
	c.Inputs = existing.Inputs // cabecera solamente
	v.s.batches[batch.ID] = c
	return nil
}

func (v *batchView) ReplaceInputs(batchID string, inputs []entity.BatchInput) error {
	b, ok := v.s.batches[batchID]
	if !ok {
		return errBatchNotFound(batchID)
	}
	b.Inputs = append([]entity.BatchInput(nil), inputs...)
	return nil
}

func (v *batchView) UpdateStatus(batchID, status string, now time.Time) error {
	b, ok := v.s.batches[batchID]
	if !ok {
		return errBatchNotFound(batchID)
	}
	b.Status = status
	b.UpdatedAt = now
	return nil
}

type userView struct{ s *Store }

func (v *userView) Create(user *entity.User) error {
	c := *user
	v.s.users[user.ID] = &c
	return nil
}

func (v *userView) GetByID(id string) (*entity.User, error) {
	u, ok := v.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (v *userView) FindByEmail(email string) (*entity.User, error) {
	for _, u := range v.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// ── Wrappers con locking (uso fuera de transacciones) ───────────────────────

type lockedLots struct{ s *Store }

func (l *lockedLots) Create(lot *entity.MaterialLot) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&lotView{l.s}).Create(lot)
}

func (l *lockedLots) GetByID(id string) (*entity.MaterialLot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&lotView{l.s}).GetByID(id)
}

func (l *lockedLots) GetForUpdate(id string) (*entity.MaterialLot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&lotView{l.s}).GetForUpdate(id)
}

func (l *lockedLots) ListAvailableByMaterial(materialID string, now time.Time) ([]*entity.MaterialLot, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&lotView{l.s}).ListAvailableByMaterial(materialID, now)
}

func (l *lockedLots) UpdateRemaining(id string, remaining decimal.Decimal, now time.Time) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&lotView{l.s}).UpdateRemaining(id, remaining, now)
}

type lockedMovs struct{ s *Store }

func (l *lockedMovs) Create(tx *entity.InventoryTransaction) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&movView{l.s}).Create(tx)
}

func (l *lockedMovs) ListByLot(lotID string) ([]*entity.InventoryTransaction, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&movView{l.s}).ListByLot(lotID)
}

func (l *lockedMovs) ListByReference(referenceID string) ([]*entity.InventoryTransaction, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&movView{l.s}).ListByReference(referenceID)
}

type lockedBatches struct{ s *Store }

func (l *lockedBatches) Create(batch *entity.ProductionBatch) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&batchView{l.s}).Create(batch)
}

func (l *lockedBatches) GetByID(id string) (*entity.ProductionBatch, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&batchView{l.s}).GetByID(id)
}

func (l *lockedBatches) GetByNumber(number string) (*entity.ProductionBatch, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&batchView{l.s}).GetByNumber(number)
}

func (l *lockedBatches) UpdateHeader(batch *entity.ProductionBatch) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&batchView{l.s}).UpdateHeader(batch)
}

func (l *lockedBatches) ReplaceInputs(batchID string, inputs []entity.BatchInput) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&batchView{l.s}).ReplaceInputs(batchID, inputs)
}

func (l *lockedBatches) UpdateStatus(batchID, status string, now time.Time) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&batchView{l.s}).UpdateStatus(batchID, status, now)
}

type lockedUsers struct{ s *Store }

func (l *lockedUsers) Create(user *entity.User) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&userView{l.s}).Create(user)
}

func (l *lockedUsers) GetByID(id string) (*entity.User, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&userView{l.s}).GetByID(id)
}

func (l *lockedUsers) FindByEmail(email string) (*entity.User, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&userView{l.s}).FindByEmail(email)
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func cloneLot(lot *entity.MaterialLot) *entity.MaterialLot {
	c := *lot
	if lot.ExpiresAt != nil {
		t := *lot.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func cloneBatch(b *entity.ProductionBatch) *entity.ProductionBatch {
	c := *b
	c.Inputs = append([]entity.BatchInput(nil), b.Inputs...)
	return &c
}

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

func errLotNotFound(id string) error   { return notFoundError("lote " + id + " no existe") }
func errBatchNotFound(id string) error { return notFoundError("batch " + id + " no existe") }
