package nfs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartCommitter periodically refreshes the entries gauge and re-applies the
// table, so the server converges after a failed or skipped reload.
func (m *Manager) StartCommitter(ctx context.Context, interval time.Duration) {
	go func() {
		m.commitTick(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.commitTick(ctx)
			}
		}
	}()
}

func (m *Manager) commitTick(ctx context.Context) {
	entries, err := m.List()
	if err != nil {
		log.Error().Err(err).Msg("committer: failed to read exports table")
		return
	}
	if err := m.Commit(ctx); err != nil {
		log.Error().Err(err).Msg("committer: reload failed")
		return
	}
	log.Debug().Int("entries", len(entries)).Msg("committer: exports applied")
}
