package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/trivia-rooms/internal/hub"
	"github.com/DoyleJ11/trivia-rooms/internal/ws"
)

type Deps struct {
	Hub            *hub.Hub
	Conns          *ws.Manager
	Logger         *zap.Logger
	AllowedOrigins []string
	PublicURL      string
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.Conns, log, ws.Options{OriginPatterns: OriginPatterns(d.AllowedOrigins)}))

	r.Route("/api/lobby", func(r chi.Router) {
		r.Get("/rooms/{code}", GetRoom(d.Hub))
		r.Get("/rooms/{code}/qr.png", JoinQR(d.Hub, d.PublicURL, log))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// OriginPatterns turns allowed origins (full URLs) into the host patterns the
// websocket handshake checks against.
func OriginPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			out = append(out, o)
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
