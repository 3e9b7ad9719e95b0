package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookingrisk/booking"
	"bookingrisk/db"
	"bookingrisk/logger"
	"bookingrisk/ml"
	"bookingrisk/predictor"
)

// Predictor 由 predictor.Adapter 实现
type Predictor interface {
	Predict(ctx context.Context, rec booking.Record) (predictor.Verdict, error)
	Ready(ctx context.Context) (ml.ModelInfo, error)
}

// History 预测历史查询，由 db.DB 实现
type History interface {
	RecentPredictions(ctx context.Context, limit int) ([]db.Prediction, error)
	CountByRisk(ctx context.Context) (map[string]int, error)
}

// Handler 预测服务的HTTP处理器
type Handler struct {
	predictor Predictor
	log       logger.Logger
	gatherer  prometheus.Gatherer
	history   History
	feed      http.Handler
	started   time.Time
}

type HandlerOption func(*Handler)

// WithGatherer 启用 /metrics
func WithGatherer(g prometheus.Gatherer) HandlerOption {
	return func(h *Handler) { h.gatherer = g }
}

func WithLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) { h.log = l }
}

// WithHistory 启用 /api/predictions
func WithHistory(history History) HandlerOption {
	return func(h *Handler) { h.history = history }
}

// WithFeed 启用 /api/ws/predictions 实时推送
func WithFeed(feed http.Handler) HandlerOption {
	return func(h *Handler) { h.feed = feed }
}

// NewHandler 创建处理器
func NewHandler(p Predictor, opts ...HandlerOption) *Handler {
	h := &Handler{predictor: p, log: logger.NewNop(), started: time.Now()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 注册所有路由
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /predict", h.handlePredictPage)

	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/fields", h.handleFields)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/ready", h.handleReady)

	if h.history != nil {
		mux.HandleFunc("GET /api/predictions", h.handleHistory)
	}
	if h.feed != nil {
		mux.Handle("GET /api/ws/predictions", h.feed)
	}
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, indexPage, indexView{
		ContactEmail: "info@hotelbookingpredictor.com",
		ContactPhone: "+1 (123) 456-7890",
	})
}

// handlePredictPage 渲染表单，并对当前输入（或默认值）给出预测结果
func (h *Handler) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	rec, err := booking.FromValues(values)
	if err != nil {
		h.render(w, r, statusFor(err), predictPage, predictView{
			Sections: buildSections(values, nil),
			Error:    "Invalid input: " + err.Error(),
		})
		return
	}

	view := predictView{
		Sections: buildSections(values, &rec),
		Summary:  rec.Summary(),
	}
	status := http.StatusOK
	verdict, err := h.predictor.Predict(r.Context(), rec)
	if err != nil {
		status = statusFor(err)
		view.Error = pageError(err)
	} else {
		view.Verdict = &verdict
	}
	h.render(w, r, status, predictPage, view)
}

// PredictResponse POST /api/predict 的响应
type PredictResponse struct {
	predictor.Verdict
	Summary []booking.SummaryRow `json:"summary"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	rec, err := booking.DecodeJSON(r.Body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	verdict, err := h.predictor.Predict(r.Context(), rec)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, PredictResponse{Verdict: verdict, Summary: rec.Summary()})
}

func (h *Handler) handleFields(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"columns": booking.Columns(),
		"fields":  booking.Fields(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady 模型可加载时才算就绪
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	info, err := h.predictor.Ready(r.Context())
	if err != nil {
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"model":  info,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// handleHistory 返回最近的预测记录
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer", Field: "limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	predictions, err := h.history.RecentPredictions(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	counts, err := h.history.CountByRisk(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
		"counts":      counts,
	})
}

// errorResponse API错误响应
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		resp.Kind = "validation"
		resp.Field = verr.Field
	} else if kind := predictor.KindOf(err); kind != "" {
		resp.Kind = string(kind)
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "request_id", GetRequestID(r.Context()), "status", status, "error", err)
	}
	h.respondJSON(w, status, resp)
}

// statusFor 将错误映射为HTTP状态码
func statusFor(err error) int {
	var (
		verr    *booking.ValidationError
		tooBig  *http.MaxBytesError
		predErr *predictor.Error
	)
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &predErr) && predErr.Kind == predictor.ModelUnavailable:
		return http.StatusServiceUnavailable
	case errors.As(err, &predErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func pageError(err error) string {
	var predErr *predictor.Error
	if errors.As(err, &predErr) {
		switch predErr.Kind {
		case predictor.ModelUnavailable:
			return "Error loading model: " + predErr.Err.Error()
		case predictor.PredictionFailed:
			return "Error making prediction: " + predErr.Err.Error()
		}
	}
	return "Unexpected error: " + err.Error()
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode JSON", "error", err)
	}
}

// render 先渲染到缓冲区，模板出错时不会输出半个页面
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		h.log.Error("failed to render page", "request_id", GetRequestID(r.Context()), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
