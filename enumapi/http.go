// Package enumapi serves a catalog over HTTP in the same wire format the
// http source consumes, plus a paginated search per enum.
package enumapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/c360studio/semenums/paging"
	"github.com/c360studio/semenums/store"
)

// Source provides catalog snapshots. *store.Store and *binding.Binding
// implement it.
type Source interface {
	State() store.State
}

// Handler serves a catalog.
type Handler struct {
	source Source
	logger *slog.Logger
}

// NewHandler creates a handler reading from source.
func NewHandler(source Source, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{source: source, logger: logger}
}

// RegisterHTTPHandlers registers the catalog handlers under the given prefix.
// The prefix should be the path segment without a trailing slash (e.g. "api/enums").
// Handlers are registered as:
//
//	GET <prefix>                  whole catalog
//	GET <prefix>/{name}           values of one enum
//	GET <prefix>/{name}/page      one page of filtered values
func (h *Handler) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: leading slash, no trailing slash.
	prefix = "/" + strings.Trim(prefix, "/")

	mux.HandleFunc(prefix, h.handleCatalog)
	mux.HandleFunc(prefix+"/", func(w http.ResponseWriter, r *http.Request) {
		h.handleEnum(w, r, strings.TrimPrefix(r.URL.Path, prefix+"/"))
	})
}

// ----------------------------------------------------------------------------
// GET /api/enums
// ----------------------------------------------------------------------------

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.source.State().Enums)
}

// ----------------------------------------------------------------------------
// GET /api/enums/{name} and /api/enums/{name}/page
// ----------------------------------------------------------------------------

func (h *Handler) handleEnum(w http.ResponseWriter, r *http.Request, rest string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, action, _ := strings.Cut(rest, "/")
	if name == "" || (action != "" && action != "page") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	values, err := h.source.State().Enums.Lookup(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if action == "" {
		writeJSON(w, http.StatusOK, values)
		return
	}

	req, err := parsePageRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := paging.PageOf(values, req, nil)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, paging.ErrInvalidPageSize) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("Failed to page enum", "enum", name, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// parsePageRequest reads page, size, query, zeroBased and match. A missing
// page means the first page.
func parsePageRequest(q url.Values) (paging.Request, error) {
	var req paging.Request

	if v := q.Get("zeroBased"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid zeroBased %q", v)
		}
		req.ZeroBased = b
	}

	req.Page = 1
	if req.ZeroBased {
		req.Page = 0
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid page %q", v)
		}
		req.Page = n
	}

	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, fmt.Errorf("invalid size %q: must be a positive integer", v)
		}
		req.Size = n
	}

	req.Query = q.Get("query")

	switch m := q.Get("match"); m {
	case "", "prefix":
		req.Match = paging.MatchPrefix
	case "substring":
		req.Match = paging.MatchSubstring
	default:
		return req, fmt.Errorf("invalid match %q: use prefix or substring", m)
	}

	return req, nil
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Response is already partially written on error.
	_ = json.NewEncoder(w).Encode(v)
}

var _ Source = (*store.Store)(nil)
