package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pychallenge-service/internal/app"
	"pychallenge-service/internal/auth"
	"pychallenge-service/internal/metrics"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Challenges  *app.ChallengeService
	Leaderboard *app.LeaderboardService
	Play        *app.PlayService
	Tokens      *auth.TokenService
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

// NewRouter wires every route of the service.
func NewRouter(d Deps) http.Handler {
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(d.Logger))
	r.Use(observe(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	challenges := NewChallengeHandler(d.Challenges)
	leaderboard := NewLeaderboardHandler(d.Leaderboard)
	play := NewPlayHandler(d.Play, d.Logger, nil)

	r.Group(func(r chi.Router) {
		r.Use(authenticate(d.Tokens))

		r.Get("/challenges", challenges.List)
		r.Get("/challenges/{id}", challenges.Get)
		r.Get("/leaderboard", leaderboard.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/challenges", challenges.Create)
			r.Delete("/challenges/{id}", challenges.Delete)
			r.Get("/play/{id}", play.ServeWS)
		})
	})
	return r
}
