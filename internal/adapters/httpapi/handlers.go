package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	planningQueries "github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	schedulingQueries "github.com/andrescamacho/microgreens-go/internal/application/scheduling/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTransitions serves the audit feed: ?batch_id=&since=RFC3339&limit=
func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	q := &lifecycleQueries.ListTransitionsQuery{BatchID: r.URL.Query().Get("batch_id")}

	since, err := timeParam(r, "since")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q.Since = since
	if q.Limit, err = intParam(r, "limit"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.send(w, r, q)
}

// handleDueTasks serves pending tasks whose time has come: ?now=RFC3339&limit=
func (s *Server) handleDueTasks(w http.ResponseWriter, r *http.Request) {
	q := &schedulingQueries.DueTasksQuery{}

	now, err := timeParam(r, "now")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q.Now = now
	if q.Limit, err = intParam(r, "limit"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.send(w, r, q)
}

func (s *Server) handleBatchState(w http.ResponseWriter, r *http.Request) {
	now, err := timeParam(r, "now")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.send(w, r, &lifecycleQueries.GetBatchStateQuery{BatchID: chi.URLParam(r, "id"), Now: now})
}

func (s *Server) handleCropHistory(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, &lifecycleQueries.GetCropHistoryQuery{CropID: chi.URLParam(r, "id")})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, &planningQueries.ListPlansQuery{Status: r.URL.Query().Get("status")})
}

func (s *Server) send(w http.ResponseWriter, r *http.Request, request mediator.Request) {
	resp, err := s.mediator.Send(r.Context(), request)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	var (
		cropNotFound   *crop.ErrCropNotFound
		batchNotFound  *crop.ErrBatchNotFound
		recipeNotFound *recipe.ErrRecipeNotFound
		invalidRequest *common.ErrInvalidRequest
	)
	switch {
	case errors.As(err, &cropNotFound), errors.As(err, &batchNotFound), errors.As(err, &recipeNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339: %w", name, err)
	}
	return &t, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
