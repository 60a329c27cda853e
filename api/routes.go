package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"anistream/handlers"

	"github.com/gorilla/mux"
)

// localhostOnlyMiddleware restricts access to localhost requests only
func localhostOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.HasSuffix(host, "]") {
			host = host[:i]
		}
		host = strings.Trim(host, "[]")
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			http.Error(w, "Debug endpoints only accessible from localhost", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows the configured browser origins. "*" allows any
// origin without credentials.
func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	allowAny := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAny = true
			continue
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			if _, ok := allowed[origin]; ok && origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			} else if allowAny {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Register mounts API endpoints onto the provided router.
func Register(r *mux.Router, animeHandler *handlers.AnimeHandler, allowedOrigins []string) {
	r.Use(requestLogger)
	// mux middleware does not run for these two
	r.NotFoundHandler = requestLogger(http.HandlerFunc(handlers.NotFound))
	r.MethodNotAllowedHandler = requestLogger(http.HandlerFunc(handlers.MethodNotAllowed))

	r.HandleFunc("/", animeHandler.Banner).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware(allowedOrigins))

	// OPTIONS is accepted on every route so preflights reach corsMiddleware.
	get := func(router *mux.Router, path string, h http.HandlerFunc) {
		router.HandleFunc(path, h).Methods(http.MethodGet, http.MethodOptions)
	}

	get(api, "/health", animeHandler.Health)

	anime := api.PathPrefix("/anime").Subrouter()
	// Static paths first so they are not captured by {id}.
	get(anime, "/home", animeHandler.Home)
	get(anime, "/search", animeHandler.Search)
	get(anime, "/episode/sources", animeHandler.Sources)
	get(anime, "/episode/servers", animeHandler.Servers)
	get(anime, "/episode/playback", animeHandler.Playback)
	get(anime, "/category/{category}", animeHandler.Category)
	get(anime, "/{id}", animeHandler.Details)
	get(anime, "/{id}/episodes", animeHandler.Episodes)
	get(anime, "/{id}/overview", animeHandler.Overview)

	pprofRouter := api.PathPrefix("/debug/pprof").Subrouter()
	pprofRouter.Use(localhostOnlyMiddleware)
	pprofRouter.HandleFunc("/", pprof.Index)
	pprofRouter.HandleFunc("/cmdline", pprof.Cmdline)
	pprofRouter.HandleFunc("/profile", pprof.Profile)
	pprofRouter.HandleFunc("/symbol", pprof.Symbol)
	pprofRouter.HandleFunc("/trace", pprof.Trace)
	pprofRouter.HandleFunc("/{profile}", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler(mux.Vars(r)["profile"]).ServeHTTP(w, r)
	})
}
