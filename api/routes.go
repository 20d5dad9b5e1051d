// Package api wires the HTTP routes.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"nido/handlers"
)

// corsMiddleware handles CORS for API routes.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts all page and API routes on r.
func Register(
	r *mux.Router,
	auth *handlers.AuthHandler,
	pages *handlers.PagesHandler,
	watchlist *handlers.WatchlistHandler,
	plans *handlers.PlansHandler,
	goals *handlers.GoalsHandler,
	metadata *handlers.MetadataHandler,
	roulette *handlers.RouletteHandler,
	events *handlers.EventsHandler,
) {
	// Pages
	r.HandleFunc("/login", pages.Login).Methods(http.MethodGet)
	r.HandleFunc("/login", auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/watchlist", auth.RequirePage(pages.Watchlist)).Methods(http.MethodGet)
	r.HandleFunc("/planes", auth.RequirePage(pages.Planes)).Methods(http.MethodGet)
	r.HandleFunc("/metas", auth.RequirePage(pages.Metas)).Methods(http.MethodGet)
	r.HandleFunc("/ruleta", auth.RequirePage(pages.Ruleta)).Methods(http.MethodGet)
	r.HandleFunc("/manifest.webmanifest", pages.Manifest).Methods(http.MethodGet)
	r.HandleFunc("/icons/{size}.png", pages.Icon).Methods(http.MethodGet)
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/watchlist", http.StatusSeeOther)
	}).Methods(http.MethodGet)

	// Unknown paths land on the home redirect rather than a 404 page.
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/", http.StatusSeeOther)
	})

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)

	// Auth routes are the only public API surface.
	apiRouter.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodGet, http.MethodPost)

	protected := apiRouter.PathPrefix("").Subrouter()
	protected.Use(auth.RequireAPI)

	protected.HandleFunc("/auth/me", auth.Me).Methods(http.MethodGet)

	protected.HandleFunc("/watchlist", watchlist.List).Methods(http.MethodGet)
	protected.HandleFunc("/watchlist", watchlist.Create).Methods(http.MethodPost)
	protected.HandleFunc("/watchlist/buckets", watchlist.Buckets).Methods(http.MethodGet)
	protected.HandleFunc("/watchlist/{itemID}", watchlist.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/watchlist/{itemID}", watchlist.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/plans", plans.List).Methods(http.MethodGet)
	protected.HandleFunc("/plans", plans.Create).Methods(http.MethodPost)
	protected.HandleFunc("/plans/buckets", plans.Buckets).Methods(http.MethodGet)
	protected.HandleFunc("/plans/{planID}", plans.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/plans/{planID}", plans.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/goals", goals.List).Methods(http.MethodGet)
	protected.HandleFunc("/goals", goals.Create).Methods(http.MethodPost)
	protected.HandleFunc("/goals/buckets", goals.Buckets).Methods(http.MethodGet)
	protected.HandleFunc("/goals/{goalID}", goals.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/goals/{goalID}", goals.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/metadata/search", metadata.Search).Methods(http.MethodGet)
	protected.HandleFunc("/metadata/{mediaType}/{titleID}", metadata.Details).Methods(http.MethodGet)

	protected.HandleFunc("/roulette/spin", roulette.Spin).Methods(http.MethodPost)
	protected.HandleFunc("/roulette/state", roulette.State).Methods(http.MethodGet)
	protected.HandleFunc("/roulette/reset", roulette.Reset).Methods(http.MethodPost)

	protected.HandleFunc("/events/{collection}", events.Subscribe).Methods(http.MethodGet)
}
