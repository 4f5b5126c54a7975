package fees

import (
	"context"
	"time"

	"github.com/jhoicas/cuotas-api/pkg/logger"
)

// Maintenance tarea periódica: poda del historial por retención y activación de exenciones aprobadas.
type Maintenance struct {
	ledger     *HistoryLedger
	exemptions *ExemptionStore
	retention  time.Duration
	interval   time.Duration
	log        *logger.Logger
}

// NewMaintenance construye la tarea. retention <= 0 desactiva la poda.
func NewMaintenance(ledger *HistoryLedger, exemptions *ExemptionStore, retention, interval time.Duration, log *logger.Logger) *Maintenance {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Maintenance{
		ledger:     ledger,
		exemptions: exemptions,
		retention:  retention,
		interval:   interval,
		log:        log.Named("maintenance"),
	}
}

// RunOnce ejecuta una pasada con now como referencia.
func (m *Maintenance) RunOnce(ctx context.Context, now time.Time) error {
	if m.retention > 0 {
		n, err := m.ledger.Prune(ctx, now.Add(-m.retention))
		if err != nil {
			return err
		}
		m.log.Info().Int64("eliminadas", n).Msg("historial podado")
	}
	activated, err := m.exemptions.ActivateDue(ctx, now)
	if err != nil {
		return err
	}
	if activated > 0 {
		m.log.Info().Int("activadas", activated).Msg("exenciones vigentes")
	}
	return nil
}

// Start lanza el ticker en una goroutine; termina cuando ctx se cancela.
func (m *Maintenance) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		if err := m.RunOnce(ctx, time.Now()); err != nil {
			m.log.Error().Err(err).Msg("mantenimiento fallido")
		}
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				if err := m.RunOnce(ctx, t); err != nil {
					m.log.Error().Err(err).Msg("mantenimiento fallido")
				}
			}
		}
	}()
}
