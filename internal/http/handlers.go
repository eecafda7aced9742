package http

import (
	"encoding/json"
	"errors"
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/dataset"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/health"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/http/middleware"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/query"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/spider"
)

type API struct {
	svc *spider.Service
}

func New(svc *spider.Service) *API {
	return &API{svc: svc}
}

func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/get-spider", a.getSpider).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/get-spider/options", a.options).Methods(http.MethodGet, http.MethodHead)
}

// NewHandler assembles the full HTTP surface: query routes, health, metrics,
// request middleware and CORS for the given origins.
func NewHandler(svc *spider.Service, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	r.Handle("/health", health.Handler(svc.DatasetPath(), svc.Check)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	New(svc).Register(r)

	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(allowedOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", middleware.HeaderRequestID}),
		gorillahandlers.ExposedHeaders([]string{middleware.HeaderRequestID}),
	)(r)
}

func (a *API) getSpider(w http.ResponseWriter, r *http.Request) {
	rows, err := a.svc.Query(r.Context(), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("write response")
	}
}

func (a *API) options(w http.ResponseWriter, r *http.Request) {
	opts, err := a.svc.Options(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(opts)
}

// writeError maps invalid filter input to 400 and everything else to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *query.InvalidInputError
	switch {
	case errors.As(err, &inputErr):
		http.Error(w, inputErr.Error(), http.StatusBadRequest)
	case errors.Is(err, dataset.ErrUnavailable):
		http.Error(w, "dataset unavailable", http.StatusInternalServerError)
	default:
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("spider query failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
