package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/lattice-intel/lattice/pkg/cache"
	"github.com/lattice-intel/lattice/pkg/centrality"
	"github.com/lattice-intel/lattice/pkg/discovery"
	"github.com/lattice-intel/lattice/pkg/pathfind"
	"github.com/lattice-intel/lattice/pkg/store"
)

type AppUser struct {
	UserID string
	Role   string
	Scopes []string
}

// App holds the process-wide dependencies handlers reach through the request
// context. Queue is nil when RabbitMQ is not configured; discovery then runs
// inline.
type App struct {
	DBConn     *pgxpool.Pool
	Queue      *amqp091.Channel
	Key        *keyfunc.Keyfunc
	Store      store.GraphStore
	Cache      *cache.Layer
	Centrality *centrality.Engine
	Paths      *pathfind.Engine
	Discovery  *discovery.Discoverer

	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
