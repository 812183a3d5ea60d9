package photo

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/photobooth/photobooth-api/internal/pkg/storage"
)

// Sweeper removes stored files that no photo references.
// They are left behind when the process dies between a file write and the insert.
type Sweeper struct {
	repo  Repository
	files storage.Lister
	store storage.Storage
	grace time.Duration
	now   func() time.Time
	cron  *cron.Cron
}

// NewSweeper creates a sweeper. Files younger than grace are never touched,
// so uploads in flight are safe.
func NewSweeper(repo Repository, store storage.Storage, files storage.Lister, grace time.Duration) *Sweeper {
	if grace <= 0 {
		grace = time.Hour
	}
	return &Sweeper{
		repo:  repo,
		files: files,
		store: store,
		grace: grace,
		now:   time.Now,
	}
}

// Start schedules Sweep with a cron spec such as "@every 30m"
func (s *Sweeper) Start(ctx context.Context, spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", spec).Dur("grace", s.grace).Msg("Orphan sweeper started")
	return nil
}

// Stop stops the schedule and waits for a running sweep
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("Orphan sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Orphan sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int("removed", n).Msg("Removed orphaned files")
	}
}

// Sweep deletes unreferenced files older than the grace period and returns how many went
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	files, err := s.files.List(ctx)
	if err != nil {
		return 0, err
	}

	photos, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list photos: %w", err)
	}
	referenced := make(map[string]struct{})
	for _, p := range photos {
		for _, key := range p.FileKeys() {
			referenced[key] = struct{}{}
		}
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, f := range files {
		if _, ok := referenced[f.Key]; ok || f.ModTime.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, f.Key); err != nil {
			log.Warn().Err(err).Str("key", f.Key).Msg("Failed to remove orphaned file")
			continue
		}
		removed++
	}
	return removed, nil
}
