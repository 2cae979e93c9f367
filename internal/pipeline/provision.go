package pipeline

import (
	"context"
	"fmt"

	"github.com/wonny/fxpulse/internal/s0_data"
)

// Provision upserts the catalog and seeds the hub mirror from the stores.
// Run once at startup before the first cycle or subscriber.
func (r *Runner) Provision(ctx context.Context, snapshotNotifications int) error {
	if err := r.deps.Instruments.EnsureCatalog(ctx, s0_data.InstrumentsFromCatalog(r.deps.Catalog)); err != nil {
		return fmt.Errorf("provision catalog: %w", err)
	}

	instruments, err := r.deps.Instruments.List(ctx)
	if err != nil {
		return fmt.Errorf("load instruments: %w", err)
	}
	signals, err := r.deps.Signals.ActiveSignals(ctx)
	if err != nil {
		return fmt.Errorf("load active signals: %w", err)
	}
	notifications, err := r.deps.Notifier.Recent(ctx, snapshotNotifications)
	if err != nil {
		return fmt.Errorf("load notifications: %w", err)
	}

	r.deps.Hub.Seed(instruments, signals, notifications)

	r.logger.WithFields(map[string]interface{}{
		"instruments":   len(instruments),
		"signals":       len(signals),
		"notifications": len(notifications),
	}).Info("Provisioned catalog and hub state")
	return nil
}
