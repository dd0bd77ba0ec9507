/*
handlers.go - HTTP handler core

PURPOSE:
  The Handler struct bundles the services the routes need, plus the
  shared response helpers. Domain errors map onto status codes in one
  place (domainStatus) so individual handlers stay thin.

ERROR MAPPING:
  - not-found sentinels            -> 404
  - state conflicts and duplicates -> 409
  - other client errors            -> 400
  - everything else                -> 500

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Wire shapes
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hearthside/learning-hub/catalog"
	"github.com/hearthside/learning-hub/ledger"
	"github.com/hearthside/learning-hub/syncfeed"
)

// Handler holds the services used by the HTTP handlers.
type Handler struct {
	engine   *ledger.Engine
	alloc    *ledger.Allocator
	tracker  *ledger.Tracker
	recorder *ledger.Recorder
	results  *ledger.Results
	cat      catalog.Store
	feed     *syncfeed.Service
	log      zerolog.Logger
}

// NewHandler creates a handler over the given services.
func NewHandler(
	engine *ledger.Engine,
	alloc *ledger.Allocator,
	tracker *ledger.Tracker,
	recorder *ledger.Recorder,
	results *ledger.Results,
	cat catalog.Store,
	feed *syncfeed.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		engine:   engine,
		alloc:    alloc,
		tracker:  tracker,
		recorder: recorder,
		results:  results,
		cat:      cat,
		feed:     feed,
		log:      log,
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a ledger error onto a status code and writes it.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, domainStatus(err), message, err)
}

func domainStatus(err error) int {
	switch {
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case isConflict(err):
		return http.StatusConflict
	case ledger.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isConflict(err error) bool {
	if errors.Is(err, ledger.ErrWeekFinalized) ||
		errors.Is(err, ledger.ErrBonusRewarded) ||
		errors.Is(err, ledger.ErrDuplicateBonus) ||
		errors.Is(err, ledger.ErrDuplicateGrade) ||
		errors.Is(err, ledger.ErrDuplicateReview) {
		return true
	}
	var shortfall *ledger.FundShortfallError
	if errors.As(err, &shortfall) {
		return true
	}
	var state *ledger.TaskStateError
	return errors.As(err, &state)
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// pathID reads the {id} URL parameter as an int64.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// decodeBody decodes the request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
