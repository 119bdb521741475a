package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/matchpoint/club-rank/internal/config"
	"github.com/matchpoint/club-rank/internal/domain/club"
	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/domain/ranking"
	"github.com/matchpoint/club-rank/internal/infrastructure/account/firebase"
	cacherepo "github.com/matchpoint/club-rank/internal/infrastructure/repository/cache"
	"github.com/matchpoint/club-rank/internal/infrastructure/repository/memory"
	"github.com/matchpoint/club-rank/internal/infrastructure/repository/postgres"
	"github.com/matchpoint/club-rank/internal/interfaces/httpapi"
	basecache "github.com/matchpoint/club-rank/internal/platform/cache"
	idgen "github.com/matchpoint/club-rank/internal/platform/id"
	"github.com/matchpoint/club-rank/internal/platform/logging"
	"github.com/matchpoint/club-rank/internal/platform/resilience"
	"github.com/matchpoint/club-rank/internal/usecase"

	_ "github.com/lib/pq"
)

type repositories struct {
	clubs    club.Repository
	matches  match.Repository
	rankings ranking.Repository
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	repos, err := newRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		repos.clubs = cacherepo.NewClubRepository(repos.clubs, basecache.NewStore(cfg.CacheTTL))
		repos.rankings = cacherepo.NewRankingRepository(repos.rankings, basecache.NewStore(cfg.CacheTTL))
	}

	idGen := idgen.NewRandomGenerator()

	matchSvc := usecase.NewMatchService(repos.matches, repos.clubs, repos.rankings, idGen, cfg.RatingKFactor)
	rankingSvc := usecase.NewRankingService(repos.rankings, repos.matches, repos.clubs, cfg.RatingKFactor, cfg.RecomputeWorkers)
	clubSvc := usecase.NewClubService(repos.clubs, idGen)

	firebaseClient := firebase.NewClient(
		&http.Client{Timeout: cfg.FirebaseTimeout},
		firebase.Config{
			LookupURL: cfg.FirebaseLookupURL,
			APIKey:    cfg.FirebaseAPIKey,
			Timeout:   cfg.FirebaseTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FirebaseCircuitEnabled,
				FailureThreshold: cfg.FirebaseCircuitFailureCount,
				OpenTimeout:      cfg.FirebaseCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FirebaseCircuitHalfOpenMax,
			},
			PrincipalCacheTTL: cfg.FirebasePrincipalCacheTTL,
		},
		logger,
	)

	handler := httpapi.NewHandler(matchSvc, rankingSvc, clubSvc, logger)
	router := httpapi.NewRouter(handler, firebaseClient, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// newRepositories wires postgres-backed repositories when DB_URL is set
// and falls back to the seeded in-memory stack otherwise.
func newRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	if cfg.DBURL == "" {
		logger.Info("DB_URL is empty, using in-memory repositories")
		return repositories{
			clubs:    memory.NewClubRepository(memory.SeedClubs()),
			matches:  memory.NewMatchRepository(),
			rankings: memory.NewRankingRepository(),
		}, nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return repositories{}, err
	}

	return repositories{
		clubs:    postgres.NewClubRepository(db),
		matches:  postgres.NewMatchRepository(db),
		rankings: postgres.NewRankingRepository(db),
	}, nil
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return db, nil
}
