package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/infrastructure/docstore"
)

// RouterOptions configures the document API router.
type RouterOptions struct {
	// Tokens maps bearer tokens to user ids.
	Tokens         map[string]string
	AllowedOrigins []string
}

// NewRouter builds the authenticated, CORS-enabled document API.
func NewRouter(store docstore.Store, opts RouterOptions, logger logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(BearerAuth(opts.Tokens))
	NewHandler(store, logger).Register(api)

	r.Use(RequestLogger(logger))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	})
	return c.Handler(r)
}
