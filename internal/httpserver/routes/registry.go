package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
	api bool
}

var registry []entry

// DefaultRequestTimeout bounds non-streaming API requests.
const DefaultRequestTimeout = 5 * time.Second

// Register a root-level registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAPI registers routes under /api, behind host enforcement and the
// per-IP rate limit.
func RegisterAPI(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws, api: true})
}

// Called once from httpserver.NewRouter()
func RegisterAll(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		api.Use(mw.RateLimit(d.RateLimitPerMin, d.TrustProxy))
		for _, e := range registry {
			if e.api {
				mount(api, d, e)
			}
		}
	})
	for _, e := range registry {
		if !e.api {
			mount(r, d, e)
		}
	}
}

func mount(r chi.Router, d deps.Deps, e entry) {
	if len(e.mws) == 0 {
		e.reg(r, d)
		return
	}
	e.reg(r.With(e.mws...), d) // apply per-route middlewares
}

// timeout wraps plain request/response routes; event streams stay open.
func timeout(d deps.Deps) Middleware {
	t := d.RequestTimeout
	if t <= 0 {
		t = DefaultRequestTimeout
	}
	return middleware.Timeout(t)
}

// operators restricts a route to the allowed CIDRs.
func operators(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}
