// Package jobs hosts the recurring housekeeping tasks of the durable store.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"chat-relay/repositories"
)

// ArchiveWorker relocates aged messages from the live store to the cold
// store on a fixed cadence. Each run is one all-or-nothing transaction in
// the repository; a failed run changes nothing and is simply retried on the
// next tick. The live messaging path is never involved.
type ArchiveWorker struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	cadence   time.Duration
	retention time.Duration
}

func NewArchiveWorker(log *slog.Logger, messages repositories.IMessageRepository,
	cadence, retention time.Duration) *ArchiveWorker {
	return &ArchiveWorker{log: log, messages: messages, cadence: cadence, retention: retention}
}

// Run executes one archival pass immediately, then on every tick, until the
// context is cancelled.
func (w *ArchiveWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cadence)
	defer ticker.Stop()

	w.archive()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping archive worker")
			return nil
		case <-ticker.C:
			w.archive()
		}
	}
}

func (w *ArchiveWorker) archive() {
	cutoff := time.Now().UTC().Add(-w.retention)
	moved, err := w.messages.ArchiveBefore(cutoff)
	if err != nil {
		// Logged, not escalated: the next tick retries and the live store
		// is exactly as before.
		w.log.Error("archival run failed", "cutoff", cutoff, "error", err)
		return
	}
	if moved > 0 {
		w.log.Info("archival run completed", "moved", moved, "cutoff", cutoff)
	}
}
