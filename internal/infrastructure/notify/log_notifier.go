// Package notify implementa el sink de notificaciones de usuario sobre el
// logger estructurado. Canales push (email, websocket) quedan detrás del
// mismo puerto si algún día hacen falta.
package notify

import (
	"github.com/rs/zerolog"

	"github.com/jhoicas/lotes-api/internal/application/inventory"
)

var _ inventory.Notifier = (*LogNotifier)(nil)

// LogNotifier emite cada notificación como un evento de log con el actor y
// el nivel correspondiente.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

// Success notifica el resultado exitoso de una mutación.
func (n *LogNotifier) Success(actorID, message string) {
	n.log.Info().Str("actor_id", actorID).Str("kind", "success").Msg(message)
}

// Error notifica el fallo de una mutación.
func (n *LogNotifier) Error(actorID, message string) {
	n.log.Error().Str("actor_id", actorID).Str("kind", "error").Msg(message)
}

// Warning notifica una condición degradada (ej: rollback con restauraciones
// fallidas que requieren revisión manual).
func (n *LogNotifier) Warning(actorID, message string) {
	n.log.Warn().Str("actor_id", actorID).Str("kind", "warning").Msg(message)
}
