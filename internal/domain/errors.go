package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas). Los casos de uso retornan
// estos sentinelas o tipos que los envuelven (errors.Is funciona en ambos casos).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrExpired            = errors.New("lote vencido")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrInsufficientStock  = errors.New("cantidad insuficiente")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
	ErrPartialFailure     = errors.New("fallo parcial compensado")
	ErrTransactionFailed  = errors.New("fallo de persistencia")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
)

// InsufficientQuantityError detalla un faltante: lote, pedido vs. disponible
// y hasta 3 lotes alternativos del mismo material para que el caller reintente
// o divida el consumo.
type InsufficientQuantityError struct {
	LotID        string
	Requested    decimal.Decimal
	Available    decimal.Decimal
	Alternatives []string // IDs de lotes alternativos (máx 3)
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("cantidad insuficiente en lote %s: pedido %s, disponible %s",
		e.LotID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientQuantityError) Unwrap() error { return ErrInsufficientStock }

// InvalidTransitionError detalla una violación de la máquina de estados del batch.
type InvalidTransitionError struct {
	BatchID string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("batch %s: transición inválida %s -> %s", e.BatchID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// PartialFailureError: un paso de la saga falló después de que pasos previos
// fueron aplicados. Siempre se emite DESPUÉS de la compensación automática;
// Compensated lista los lotes restaurados y CompensationErrs los fallos de la
// propia compensación (warnings, nunca bloquean).
type PartialFailureError struct {
	BatchNumber      string
	FailedLotID      string
	Cause            error
	Compensated      []string // lotes restaurados con éxito
	CompensationErrs []string // restauraciones que a su vez fallaron
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("batch %s: fallo en lote %s (%v); %d decrementos compensados",
		e.BatchNumber, e.FailedLotID, e.Cause, len(e.Compensated))
}

func (e *PartialFailureError) Unwrap() error { return ErrPartialFailure }
