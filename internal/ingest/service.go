package ingest

import (
	"context"
	"sync"
	"time"

	"pokedex/internal/catalog"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Pages int
	// Details also fetches each entry's detail view, which pulls species and
	// evolution chains into the cache.
	Details     bool
	Concurrency int
}

type Catalog interface {
	FetchPage(ctx context.Context, page int) (catalog.Page, error)
	GetDetail(ctx context.Context, name string) (catalog.Detail, error)
}

// CacheMaintainer is the persistent response cache. Runs prune expired
// rows before warming and report the row count afterwards.
type CacheMaintainer interface {
	CleanupExpired(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	catalog Catalog
	repo    Repository
	cache   CacheMaintainer
	cfg     Config
	logger  *zap.Logger
}

// NewService builds the warmer. repo may be nil, in which case runs are not
// persisted.
func NewService(cat Catalog, repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: cat, repo: repo, cfg: cfg, logger: logger}
}

// SetCache enables cache maintenance around each run. Maintenance errors are
// logged and never fail the run.
func (s *Service) SetCache(c CacheMaintainer) {
	s.cache = c
}

// Run walks pages 1..cfg.Pages, stopping early at the last page. A failed
// page aborts the run; failed details are counted and skipped.
func (s *Service) Run(ctx context.Context) (run *Run, err error) {
	run = &Run{
		Status:        StatusRunning,
		ConfigPages:   s.cfg.Pages,
		ConfigDetails: s.cfg.Details,
		StartedAt:     time.Now(),
	}
	if s.repo != nil {
		runID, rErr := s.repo.CreateRun(ctx, run)
		if rErr != nil {
			return nil, rErr
		}
		run.ID = runID
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}

		if run.Error != "" {
			run.Status = StatusFailed
		} else {
			run.Status = StatusCompleted
		}
		if s.cache != nil {
			if n, cErr := s.cache.Count(context.WithoutCancel(ctx)); cErr != nil {
				s.logger.Warn("failed to count cached responses", zap.Error(cErr))
			} else {
				run.CacheRows = n
			}
		}
		if s.repo != nil {
			if updateErr := s.repo.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
				s.logger.Error("failed to update warm run", zap.String("run_id", run.ID), zap.Error(updateErr))
			}
		}
		s.logger.Info("warm run finished",
			zap.String("status", run.Status),
			zap.Int("pages", run.PagesFetched),
			zap.Int("entries", run.EntriesFetched),
			zap.Int("details", run.DetailsFetched),
			zap.Int("details_failed", run.DetailsFailed),
			zap.Int64("cache_pruned", run.CachePruned),
			zap.Int64("cache_rows", run.CacheRows),
		)
	}()

	if s.cache != nil {
		n, cErr := s.cache.CleanupExpired(ctx)
		if cErr != nil {
			s.logger.Warn("failed to prune expired responses", zap.Error(cErr))
		}
		run.CachePruned = n
	}

	for page := 1; page <= s.cfg.Pages; page++ {
		p, err := s.catalog.FetchPage(ctx, page)
		if err != nil {
			return run, err
		}
		run.PagesFetched++
		run.EntriesFetched += len(p.Entries)

		if s.cfg.Details {
			s.hydrateDetails(ctx, run, p.Entries)
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
		}

		if !p.HasMore {
			s.logger.Debug("reached last page", zap.Int("page", page))
			break
		}
	}
	return run, nil
}

func (s *Service) hydrateDetails(ctx context.Context, run *Run, entries []catalog.Entry) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, e := range entries {
		g.Go(func() error {
			_, err := s.catalog.GetDetail(gctx, e.Name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				run.DetailsFailed++
				s.logger.Warn("failed to warm detail", zap.String("pokemon", e.Name), zap.Error(err))
				return nil
			}
			run.DetailsFetched++
			return nil
		})
	}
	_ = g.Wait()
}
