package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/nysgpt/billembed/internal/models"
	"go.uber.org/zap"
)

type embedSingleResponse struct {
	Success bool `json:"success"`
	*models.EmbedResult
}

type embedBatchResponse struct {
	Success bool `json:"success"`
	*models.BatchResult
}

type statusResponse struct {
	Success bool `json:"success"`
	*models.StatusResult
}

type searchResponse struct {
	Success bool `json:"success"`
	*models.SearchResponse
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// handleInvoke decodes one action payload and dispatches it. Every failure, including a bad
// payload, is answered with 500 and {success:false, error}.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: read body: %w", models.ErrInvalidRequest, err))
		return
	}
	req, err := models.DecodeRequest(body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Debug("invoke request",
		zap.String("action", string(req.Action())),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	resp, err := s.dispatch(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) dispatch(ctx context.Context, req models.Request) (interface{}, error) {
	switch req := req.(type) {
	case models.EmbedSingleRequest:
		if s.services.Embedder == nil {
			return nil, s.unavailable(req.Action())
		}
		res, err := s.services.Embedder.EmbedBill(ctx, req.BillNumber, req.SessionYear)
		if err != nil {
			return nil, err
		}
		return embedSingleResponse{Success: true, EmbedResult: res}, nil
	case models.EmbedBatchRequest:
		if s.services.Batch == nil {
			return nil, s.unavailable(req.Action())
		}
		res, err := s.services.Batch.Run(ctx, req)
		if err != nil {
			return nil, err
		}
		return embedBatchResponse{Success: true, BatchResult: res}, nil
	case models.StatusRequest:
		if s.services.Status == nil {
			return nil, s.unavailable(req.Action())
		}
		res, err := s.services.Status.Report(ctx, req.SessionYear)
		if err != nil {
			return nil, err
		}
		return statusResponse{Success: true, StatusResult: res}, nil
	case models.SearchRequest:
		if s.services.Search == nil {
			return nil, s.unavailable(req.Action())
		}
		res, err := s.services.Search.Search(ctx, &req)
		if err != nil {
			return nil, err
		}
		return searchResponse{Success: true, SearchResponse: res}, nil
	default:
		return nil, models.UnknownActionError(string(req.Action()))
	}
}

func (s *Server) unavailable(action models.Action) error {
	if s.services.Unavailable != nil {
		return fmt.Errorf("%s: %w", action, s.services.Unavailable)
	}
	return fmt.Errorf("%w: %s is not configured", models.ErrConfig, action)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	level := s.logger.Error
	if errors.Is(err, models.ErrInvalidRequest) || errors.Is(err, models.ErrUnknownAction) {
		level = s.logger.Warn
	}
	level("request failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	s.respondJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Error: err.Error()})
}
