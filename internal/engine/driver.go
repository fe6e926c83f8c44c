package engine

import (
	"context"
	"time"

	tomb "gopkg.in/tomb.v2"
)

// driverTickBase is the target drain cadence before scaling by
// SimulationSpeed.
const driverTickBase = time.Millisecond

// driver owns the background goroutine that repeatedly calls Drain. Its
// lifecycle is managed with gopkg.in/tomb.v2, giving it the same
// dying/alive shutdown semantics as the rest of the process's long-running
// goroutines.
type driver struct {
	t *tomb.Tomb
}

// Start launches the simulation driver goroutine if it is not already
// running. Idempotent: calling Start twice while running is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.driver != nil {
		e.mu.Unlock()
		return
	}
	t, tombCtx := tomb.WithContext(ctx)
	e.driver = &driver{t: t}
	e.mu.Unlock()

	interval := time.Duration(float64(driverTickBase) / e.simSpeed)
	t.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-tombCtx.Done():
				return nil
			case <-ticker.C:
				e.Drain()
			}
		}
	})
	e.logger.Info().Dur("interval", interval).Msg("simulation driver started")
}

// Stop signals the driver to exit and waits for it to finish. No-op if the
// driver was never started.
func (e *Engine) Stop() {
	e.mu.Lock()
	d := e.driver
	e.driver = nil
	e.mu.Unlock()

	if d == nil {
		return
	}
	d.t.Kill(nil)
	_ = d.t.Wait()
	e.logger.Info().Msg("simulation driver stopped")
}
