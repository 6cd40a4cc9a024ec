package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/coolbeans/lexref/pkg/citation"
	"github.com/coolbeans/lexref/pkg/docstore"
	"github.com/coolbeans/lexref/pkg/logging"
	"github.com/coolbeans/lexref/pkg/search"
	"github.com/coolbeans/lexref/pkg/statute"
)

type formatResponse struct {
	Citation  citation.ParsedCitation `json:"citation"`
	Style     string                  `json:"style"`
	Formatted string                  `json:"formatted"`
}

type resolveResponse struct {
	Candidates []string            `json:"candidates"`
	Found      bool                `json:"found"`
	Resolution *statute.Resolution `json:"resolution,omitempty"`
}

type searchResponse struct {
	Variants []string             `json:"variants"`
	Variant  string               `json:"variant"`
	Hits     []docstore.SearchHit `json:"hits"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q, ok := requireQuery(w, r)
	if !ok {
		return
	}
	parsed := citation.Parse(q)
	s.metrics.observeCitation(parsed.Grammar, parsed.Valid)
	writeJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	q, ok := requireQuery(w, r)
	if !ok {
		return
	}
	style := citation.StyleFull
	if name := r.URL.Query().Get("style"); name != "" {
		var err error
		if style, err = citation.ParseStyle(name); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_style", err.Error())
			return
		}
	}

	parsed := citation.Parse(q)
	s.metrics.observeCitation(parsed.Grammar, parsed.Valid)
	writeJSON(w, http.StatusOK, formatResponse{
		Citation:  parsed,
		Style:     style.String(),
		Formatted: citation.Format(parsed, style),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	q, ok := requireQuery(w, r)
	if !ok {
		return
	}
	result, err := s.validator.Validate(r.Context(), q)
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	s.metrics.observeCitation(result.Citation.Grammar, result.Citation.Valid)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q, ok := requireQuery(w, r)
	if !ok {
		return
	}
	resolution, found, err := statute.ResolveExisting(r.Context(), q, s.store)
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	resp := resolveResponse{Candidates: statute.Candidates(q), Found: found}
	if found {
		resp.Resolution = &resolution
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, ok := requireQuery(w, r)
	if !ok {
		return
	}
	limit := docstore.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, MaxSearchLimit)
	}

	hits, variant, err := search.Run(r.Context(), q, func(ctx context.Context, variant string) ([]docstore.SearchHit, error) {
		return s.store.Search(ctx, variant, limit)
	})
	if errors.Is(err, search.ErrSyntax) {
		writeError(w, r, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	if hits == nil {
		hits = []docstore.SearchHit{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Variants: search.BuildQueryVariants(q),
		Variant:  variant,
		Hits:     hits,
	})
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.storeErrors.Inc()
	logging.FromContext(r.Context()).Error("document store failure", zap.Error(err))
	writeError(w, r, http.StatusBadGateway, "store_unavailable", err.Error())
}

func requireQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, r, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return "", false
	}
	return q, true
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":      code,
		"message":    message,
		"request_id": middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
