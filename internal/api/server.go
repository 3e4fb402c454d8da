// Package api exposes the dashboard commands over HTTP.
package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/matrixise/coinfolio/internal/dashboard"
	"github.com/matrixise/coinfolio/internal/logger"
	"github.com/matrixise/coinfolio/internal/market"
	"github.com/matrixise/coinfolio/internal/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 16

// Server serves the dashboard over HTTP
type Server struct {
	dash   *dashboard.Dashboard
	health http.Handler
	logger *slog.Logger
}

// NewServer creates an API server. health may be nil.
func NewServer(d *dashboard.Dashboard, health http.Handler, l *slog.Logger) *Server {
	return &Server{
		dash:   d,
		health: health,
		logger: logger.OrDefault(l).With("component", "api"),
	}
}

// Router returns the HTTP handler with every route mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	s.Mount(r)
	return r
}

// Mount registers the routes on r
func (s *Server) Mount(r chi.Router) {
	r.Get("/portfolio", s.handlePortfolio)
	r.Get("/watchlist", s.handleListWatchlist)
	r.Post("/watchlist", s.handleAddToken)
	r.Delete("/watchlist/{id}", s.handleRemoveToken)
	r.Put("/holdings/{id}", s.handleSetHoldings)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/catalog", s.handleCatalogPage)
	r.Post("/catalog/next", s.handleCatalogNext)
	r.Get("/catalog/search", s.handleSearch)
	if s.health != nil {
		r.Method(http.MethodGet, "/health", s.health)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type apiError struct {
	Error string `json:"error"`
}

// writeJSON encodes before writing headers so an unencodable payload
// becomes a 500 instead of an empty success
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(apiError{Error: "failed to encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

// writeCommandError maps a dashboard error to a status code
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrInvalidPage), errors.Is(err, market.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newPortfolioView(s.dash.State()))
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	view := newWatchlistView(s.dash.State())
	view.RefreshScheduled = s.dash.RefreshPending()
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAddToken(w http.ResponseWriter, r *http.Request) {
	var tok state.TokenSnapshot
	if err := decodeJSONBody(r, &tok); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	tok.ID = strings.TrimSpace(tok.ID)
	if tok.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	status := http.StatusCreated
	if _, tracked := s.dash.State().Watchlist.Get(tok.ID); tracked {
		status = http.StatusOK
	}
	writeJSON(w, status, newWatchlistView(s.dash.AddToWatchlist(tok)))
}

func (s *Server) handleRemoveToken(w http.ResponseWriter, r *http.Request) {
	// Removing an untracked id is a no-op and still succeeds
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, newWatchlistView(s.dash.RemoveFromWatchlist(id)))
}

type holdingsRequest struct {
	Quantity jsoniter.RawMessage `json:"quantity"`
}

func (s *Server) handleSetHoldings(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var req holdingsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Quantity) == 0 {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	// A quoted quantity is treated as user input text; anything
	// unparseable becomes 0.
	text := strings.Trim(strings.TrimSpace(string(req.Quantity)), `"`)
	next := s.dash.SetHoldingsText(id, text)
	q, _ := next.Holdings.Quantity(id)
	writeJSON(w, http.StatusOK, map[string]any{"token_id": id, "quantity": q})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.RefreshAll(r.Context()); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWatchlistView(s.dash.State()))
}

func (s *Server) handleCatalogPage(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = parsed
	}

	if err := s.dash.LoadCatalogPage(r.Context(), page); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCatalogView(s.dash.State(), true))
}

func (s *Server) handleCatalogNext(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.dash.LoadNextPage(r.Context())
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCatalogView(s.dash.State(), loaded))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if err := s.dash.SearchCatalog(r.Context(), query); err != nil {
		writeCommandError(w, err)
		return
	}
	m := s.dash.State().Market
	writeJSON(w, http.StatusOK, searchView{
		Query:   m.Query,
		Results: nonNil(m.SearchResults),
	})
}
