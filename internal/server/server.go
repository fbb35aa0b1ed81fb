package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lattice-intel/lattice/internal/queue"
	mid "github.com/lattice-intel/lattice/internal/server/middleware"
	"github.com/lattice-intel/lattice/internal/util"
	"github.com/lattice-intel/lattice/pkg/cache"
	"github.com/lattice-intel/lattice/pkg/centrality"
	"github.com/lattice-intel/lattice/pkg/cluster"
	"github.com/lattice-intel/lattice/pkg/discovery"
	"github.com/lattice-intel/lattice/pkg/graph"
	"github.com/lattice-intel/lattice/pkg/layout"
	"github.com/lattice-intel/lattice/pkg/logger"
	"github.com/lattice-intel/lattice/pkg/pathfind"
	pgxstore "github.com/lattice-intel/lattice/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func runMigrations() {
	dir := util.GetEnvString("MIGRATIONS_DIR", "migrations")
	m, err := migrate.New("file://"+dir, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to init migrations", "err", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	jwksUrl := util.GetEnv("AUTH_URL") + "/jwks"
	k, err := keyfunc.NewDefault([]string{jwksUrl})
	if err != nil {
		logger.Fatal("Failed to load jwks keys", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	store := pgxstore.NewGraphDBStorage(conn)

	builder := graph.NewBuilder(store, util.GetEnvDuration("STORE_READ_TIMEOUT", 10*time.Second))
	layoutEngine := layout.NewEngine(layout.Config{
		Iterations:      util.GetEnvInt("LAYOUT_ITERATIONS", 0),
		ApproxThreshold: util.GetEnvInt("LAYOUT_APPROX_THRESHOLD", 0),
		MaxDuration:     util.GetEnvDuration("LAYOUT_MAX_DURATION", 0),
	})
	clusterEngine := cluster.NewEngine(cluster.Config{
		SwitchThreshold: util.GetEnvInt("CLUSTER_SWITCH_THRESHOLD", 0),
		MaxDuration:     util.GetEnvDuration("CLUSTER_MAX_DURATION", 0),
	})
	centralityEngine := centrality.NewEngine(centrality.Config{
		BetweennessSampleCap: util.GetEnvInt("BETWEENNESS_SAMPLE_CAP", 0),
		BetweennessNodeLimit: util.GetEnvInt("BETWEENNESS_NODE_LIMIT", 0),
	})
	pathEngine := pathfind.NewEngine(pathfind.Config{
		DefaultMaxDepth: util.GetEnvInt("PATH_MAX_DEPTH", 0),
	})
	cacheLayer := cache.NewLayer(builder, layoutEngine, clusterEngine, cache.Config{
		SnapshotTTL: util.GetEnvDuration("CACHE_SNAPSHOT_TTL", 0),
		LayoutTTL:   util.GetEnvDuration("CACHE_LAYOUT_TTL", 0),
		ClusterTTL:  util.GetEnvDuration("CACHE_CLUSTER_TTL", 0),
	})
	discoverer := discovery.NewDiscoverer(store, cacheLayer, discovery.Config{
		MinCoOccurrences: util.GetEnvInt("DISCOVERY_MIN_COOCCURRENCES", 0),
		TimeWindow:       util.GetEnvDuration("DISCOVERY_TIME_WINDOW", 0),
	})

	app := &mid.App{
		DBConn:       conn,
		Key:          &k,
		Store:        store,
		Cache:        cacheLayer,
		Centrality:   centralityEngine,
		Paths:        pathEngine,
		Discovery:    discoverer,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	// Queue is optional; discovery runs inline on the API node without it.
	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init()
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, queue.Queues); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
