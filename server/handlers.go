package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recoserve/pipeline"
	"github.com/rushteam/recoserve/pkg/logging"
)

// WelcomeMessage GET / 的返回
const WelcomeMessage = "Welcome to the recommendation service"

// NoInventoryMessage 国家下没有库存时的提示
const NoInventoryMessage = "No items available for this country"

// RecommendRequest POST /get_recommendations 请求体
type RecommendRequest struct {
	UserID      string `json:"user_id" validate:"max=256"`
	UserCountry string `json:"user_country" validate:"required,iso3166_1_alpha2"`
}

// NoInventoryResponse 没有库存时的响应体
type NoInventoryResponse struct {
	Message string   `json:"message"`
	Items   []string `json:"items"`
}

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

var validate = validator.New()

// Welcome GET /
func (s *Server) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

// GetRecommendations POST /get_recommendations
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.UserCountry = strings.ToUpper(strings.TrimSpace(req.UserCountry))
	if err := validate.Struct(req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	out := s.rec.Recommend(ctx, pipeline.Request{UserID: req.UserID, Country: req.UserCountry})
	switch out.Kind {
	case pipeline.KindSuccess, pipeline.KindDataError:
		writeJSON(w, http.StatusOK, out.Items)
	case pipeline.KindNoInventory:
		writeJSON(w, http.StatusOK, NoInventoryResponse{Message: NoInventoryMessage, Items: []string{}})
	case pipeline.KindModelError:
		writeError(ctx, w, http.StatusInternalServerError, "ranking failed")
	default:
		writeError(ctx, w, http.StatusServiceUnavailable, "backend unavailable")
	}
}

// Healthz 存活检查
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz 并发检查所有后端，每个后端独立超时，一个失败不影响其他后端的结果
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	results := make([]string, len(s.backends))
	var eg errgroup.Group
	for i, b := range s.backends {
		eg.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, s.opts.PingTimeout)
			defer cancel()
			if err := b.Ping(pingCtx); err != nil {
				results[i] = err.Error()
				logging.Ctx(ctx).Warn().Err(err).Str("backend", b.Name()).Msg("readiness check failed")
				return err
			}
			results[i] = "ok"
			return nil
		})
	}
	err := eg.Wait()

	body := make(map[string]string, len(s.backends))
	for i, b := range s.backends {
		body[b.Name()] = results[i]
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// DebugSample GET /debug/sample?n=10
func (s *Server) DebugSample(w http.ResponseWriter, r *http.Request) {
	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 1000 {
			writeError(r.Context(), w, http.StatusBadRequest, "n must be in [1, 1000]")
			return
		}
		n = parsed
	}
	ids, err := s.opts.Debug.Sample(r.Context(), n)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("debug sample failed")
		writeError(r.Context(), w, http.StatusServiceUnavailable, "backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("write response failed")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: logging.RequestIDFromContext(ctx)})
}
