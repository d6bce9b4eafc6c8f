package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sunnygoyal1983/play11-w-sub000/external/cricfeed"
	"github.com/sunnygoyal1983/play11-w-sub000/external/jobqueue"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/config"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/infrastructure/repository/postgres"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/interfaces/httpapi"
	idgen "github.com/sunnygoyal1983/play11-w-sub000/internal/platform/id"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/resilience"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/usecase"
)

// Application bundles the long-lived pieces: the HTTP server, the match
// scheduler, and the database handle they share.
type Application struct {
	Server    *http.Server
	Scheduler *usecase.SchedulerService

	db     *sqlx.DB
	logger *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	matchRepo := postgres.NewMatchRepository(db)
	playerRepo := postgres.NewPlayerRepository(db)
	statsRepo := postgres.NewPlayerStatsRepository(db)
	ballRepo := postgres.NewBallEventRepository(db)
	contestRepo := postgres.NewContestRepository(db)
	walletRepo := postgres.NewWalletRepository(db)

	provider := cricfeed.NewClient(cricfeed.ClientConfig{
		BaseURL:    cfg.CricFeedBaseURL,
		Token:      cfg.CricFeedToken,
		Timeout:    cfg.CricFeedTimeout,
		MaxRetries: cfg.CricFeedMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.BreakerConfig{
			Enabled:          cfg.CricFeedCircuitEnabled,
			FailureThreshold: cfg.CricFeedCircuitFailureCount,
			OpenTimeout:      cfg.CricFeedCircuitOpenTimeout,
			HalfOpenProbes:   cfg.CricFeedCircuitHalfOpenProbe,
		},
	})

	var replay usecase.ReplayPublisher
	if cfg.ReplayQueueEnabled {
		replay = jobqueue.NewReplayPublisher(jobqueue.ReplayPublisherConfig{
			BaseURL:          cfg.ReplayQueueBaseURL,
			Token:            cfg.ReplayQueueToken,
			TargetBaseURL:    cfg.ReplayTargetBase,
			Retries:          cfg.ReplayQueueRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   resilience.DefaultBreakerConfig(),
		}, logger)
	} else {
		logger.Info("replay queue disabled, failed payouts stay in settlement_failures only")
	}

	gen := idgen.NewRandomGenerator()
	extractor := usecase.NewStatsExtractorService(playerRepo, statsRepo, gen, logger)
	sequencer := usecase.NewBallSequencerService(ballRepo, logger)
	leaderboard := usecase.NewLeaderboardService(contestRepo, statsRepo, logger)
	settlement := usecase.NewSettlementService(
		matchRepo,
		contestRepo,
		statsRepo,
		walletRepo,
		replay,
		gen,
		logger,
		cfg.SettleMaxRetries,
		cfg.SettleRetryDelay,
	)
	scheduler := usecase.NewSchedulerService(
		matchRepo,
		provider,
		extractor,
		sequencer,
		leaderboard,
		settlement,
		usecase.SchedulerConfig{
			PollLiveInterval:     cfg.PollLiveInterval,
			SweepPromoteInterval: cfg.SweepPromoteInterval,
			SweepDetectInterval:  cfg.SweepDetectInterval,
			SweepLineupInterval:  cfg.SweepLineupInterval,
			LineupLeadWindow:     cfg.LineupLeadWindow,
			SweepWorkers:         cfg.SweepWorkers,
		},
		logger,
	)

	cacheTTL := cfg.CacheTTL
	if !cfg.CacheEnabled {
		// Zero means cache-forever in the store, so disabled maps to a
		// TTL every read outlives.
		cacheTTL = time.Nanosecond
	}
	live := usecase.NewLiveService(matchRepo, ballRepo, playerRepo, cacheTTL, logger)

	handler := httpapi.NewHandler(scheduler, live, settlement, logger)
	router := httpapi.NewRouter(handler, logger, nil, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		_ = db.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &Application{
		Server:    server,
		Scheduler: scheduler,
		db:        db,
		logger:    logger,
	}, nil
}

// Close stops the scheduler and releases the database handle. The HTTP
// server is shut down by the caller so it can pick the grace period.
func (a *Application) Close() error {
	a.Scheduler.Stop()
	return a.db.Close()
}
