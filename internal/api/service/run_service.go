package service

import (
	"blueprint"
	"blueprint/internal/api/models"
	"blueprint/internal/api/repo"
	"blueprint/internal/engine"
	"blueprint/internal/game"
	"blueprint/internal/metrics"
	"blueprint/internal/realtime"
	"blueprint/pkg"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("run not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
	cachePrefix      = "blueprint:run:"
)

// RunStore persists finished runs.
type RunStore interface {
	Create(ctx context.Context, run *models.Run) error
	FindByID(ctx context.Context, id string) (models.Run, error)
	FindByIdempotencyKey(ctx context.Context, key string) (models.Run, error)
	List(ctx context.Context, limit int) ([]models.Run, error)
}

// RunCache keeps recent outcomes by idempotency key.
type RunCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type ExecuteRequest struct {
	Blueprint      engine.Blueprint
	Config         engine.Config
	IdempotencyKey string
}

// RunOutcome is what a caller gets back for one execution.
type RunOutcome struct {
	RunID    string        `json:"runId"`
	Result   engine.Result `json:"result"`
	Replayed bool          `json:"-"`
}

// KindInfo describes one registered node kind.
type KindInfo struct {
	Kind    string `json:"kind"`
	GasCost int64  `json:"gasCost"`
}

// RunServiceDeps wires a RunService explicitly. Nil Cache, Publisher and
// Metrics disable the matching feature.
type RunServiceDeps struct {
	Engine         *engine.Engine
	Store          RunStore
	Cache          RunCache
	Publisher      realtime.MessagePublisher
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
	DefaultMaxGas  int64
	BatchLimit     int
	IdempotencyTTL time.Duration
}

type RunService struct {
	engine    *engine.Engine
	store     RunStore
	cache     RunCache
	publisher realtime.MessagePublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	defaultMaxGas  int64
	batchLimit     int
	idempotencyTTL time.Duration

	newID func() string
	now   func() time.Time
}

// NewRunService builds the service from the process globals.
func NewRunService(m *metrics.Metrics) *RunService {
	cfg := blueprint.GetConfig()
	deps := RunServiceDeps{
		Engine:         game.NewEngine(engine.WithLogger(blueprint.Logger)),
		Store:          repo.NewRunRepository(),
		Metrics:        m,
		Logger:         blueprint.Logger,
		DefaultMaxGas:  cfg.EngineConfig.DefaultMaxGas,
		BatchLimit:     cfg.EngineConfig.BatchLimit,
		IdempotencyTTL: cfg.EngineConfig.IdempotencyTTL,
	}
	if blueprint.Redis != nil {
		deps.Cache = pkg.NewRedisCache(blueprint.Redis, cachePrefix)
	}
	if blueprint.Nats != nil {
		deps.Publisher = blueprint.Nats
	}
	return NewRunServiceWith(deps)
}

func NewRunServiceWith(deps RunServiceDeps) *RunService {
	if deps.BatchLimit <= 0 {
		deps.BatchLimit = 1
	}
	return &RunService{
		engine:         deps.Engine,
		store:          deps.Store,
		cache:          deps.Cache,
		publisher:      deps.Publisher,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		defaultMaxGas:  deps.DefaultMaxGas,
		batchLimit:     deps.BatchLimit,
		idempotencyTTL: deps.IdempotencyTTL,
		newID:          uuid.NewString,
		now:            time.Now,
	}
}

// Analyze validates bp without running it.
func (slf *RunService) Analyze(bp engine.Blueprint) engine.Analysis {
	return engine.AnalyzeBlueprint(bp)
}

// Kinds lists the registered node kinds with their gas cost.
func (slf *RunService) Kinds() []KindInfo {
	kinds := slf.engine.Registry().Kinds()
	out := make([]KindInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, KindInfo{Kind: k, GasCost: slf.engine.GasCost(k)})
	}
	return out
}

// Execute runs one blueprint and records it. A request carrying an
// idempotency key already seen returns the stored outcome without running.
func (slf *RunService) Execute(ctx context.Context, req ExecuteRequest) (RunOutcome, error) {
	if req.IdempotencyKey != "" {
		if outcome, ok := slf.lookup(ctx, req.IdempotencyKey); ok {
			return outcome, nil
		}
	}

	cfg := req.Config
	if cfg.MaxGas <= 0 && slf.defaultMaxGas > 0 {
		cfg.MaxGas = slf.defaultMaxGas
	}

	runID := slf.newID()
	var pub *realtime.Publisher
	var obs engine.Observer
	if slf.publisher != nil {
		pub = realtime.NewPublisher(slf.publisher, runID, slf.logger)
		obs = pub
	}

	start := slf.now()
	res, err := slf.engine.Execute(ctx, req.Blueprint, cfg, obs)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Engine refused to run blueprint")
		return RunOutcome{}, err
	}
	elapsed := slf.now().Sub(start)

	if pub != nil {
		pub.Finish(res)
	}
	if slf.metrics != nil {
		slf.metrics.ObserveRun(res, elapsed)
	}

	run := models.Run{
		ID:         runID,
		Status:     res.Status,
		MaxGas:     cfg.MaxGas,
		GasUsed:    res.GasUsed,
		NodeCount:  len(req.Blueprint.Nodes),
		Error:      res.Error,
		Blueprint:  models.BlueprintColumn(req.Blueprint),
		Result:     models.ResultColumn(res),
		DurationMs: elapsed.Milliseconds(),
	}
	if req.IdempotencyKey != "" {
		run.IdempotencyKey = pkg.ToPtr(req.IdempotencyKey)
	}

	if err := slf.store.Create(ctx, &run); err != nil {
		if req.IdempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent request carrying the same key.
			if existing, ferr := slf.store.FindByIdempotencyKey(ctx, req.IdempotencyKey); ferr == nil {
				return outcomeOf(existing), nil
			}
		}
		slf.logger.Error().Err(err).Str("runId", runID).Msg("Error saving run")
		return RunOutcome{}, fmt.Errorf("save run %s: %w", runID, err)
	}

	outcome := RunOutcome{RunID: runID, Result: res}
	if req.IdempotencyKey != "" && slf.cache != nil {
		if err := slf.cache.Set(ctx, req.IdempotencyKey, outcome, slf.idempotencyTTL); err != nil {
			slf.logger.Warn().Err(err).Str("runId", runID).Msg("Could not cache run outcome")
		}
	}

	slf.logger.Info().
		Str("runId", runID).
		Str("status", string(res.Status)).
		Int64("gasUsed", res.GasUsed).
		Msg("Blueprint run recorded")
	return outcome, nil
}

// ExecuteBatch runs independent blueprints concurrently. Outcomes keep the
// order of reqs; the first error cancels the runs not yet started.
func (slf *RunService) ExecuteBatch(ctx context.Context, reqs []ExecuteRequest) ([]RunOutcome, error) {
	outcomes := make([]RunOutcome, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(slf.batchLimit)
	for i := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := slf.Execute(gctx, reqs[i])
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// FindByID retrieves a stored run
func (slf *RunService) FindByID(ctx context.Context, id string) (*models.Run, error) {
	run, err := slf.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		slf.logger.Error().Err(err).Str("runId", id).Msg("Error getting run")
		return nil, err
	}
	return &run, nil
}

// List returns the latest runs. limit is clamped to [1, 100], 0 means 20.
func (slf *RunService) List(ctx context.Context, limit int) ([]models.Run, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	runs, err := slf.store.List(ctx, limit)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing runs")
		return nil, err
	}
	return runs, nil
}

func (slf *RunService) lookup(ctx context.Context, key string) (RunOutcome, bool) {
	if slf.cache != nil {
		var cached RunOutcome
		found, err := slf.cache.Get(ctx, key, &cached)
		if err != nil {
			slf.logger.Warn().Err(err).Str("idempotencyKey", key).Msg("Run cache lookup failed")
		}
		if found && err == nil {
			cached.Replayed = true
			return cached, true
		}
	}

	run, err := slf.store.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slf.logger.Warn().Err(err).Str("idempotencyKey", key).Msg("Run store lookup failed")
		}
		return RunOutcome{}, false
	}
	return outcomeOf(run), true
}

func outcomeOf(run models.Run) RunOutcome {
	return RunOutcome{RunID: run.ID, Result: engine.Result(run.Result), Replayed: true}
}
