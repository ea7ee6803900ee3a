package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tbelov/order-desk/internal/application/service"
	"github.com/tbelov/order-desk/internal/domain"
	"github.com/tbelov/order-desk/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:generate mockgen -source internal/httpapi/httpapi.go -destination=internal/httpapi/httpapi_mock_test.go -package=httpapi

type OrderService interface {
	ListOrders(ctx context.Context) ([]domain.OrderSummary, error)
	ListByStatus(ctx context.Context, statusName string) ([]domain.OrderSummary, error)
	GetByIDWithStats(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, service.LookupStats, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, statusName string) (bool, error)
	CreateWithStats(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, service.CreateStats, error)
	MonthlyProfit(ctx context.Context) ([]domain.MonthlyProfit, error)
}

type Server struct {
	service OrderService
	router  chi.Router
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(svc OrderService, logger *zap.Logger, metrics observability.Metrics) *Server {
	s := &Server{
		service: svc,
		logger:  logger,
		router:  chi.NewRouter(),
		metrics: metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		ServerTimingApp(s.metrics),
	)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/orders", func(r chi.Router) {
		r.Get("/", s.listOrders)
		r.Post("/", s.createOrder)
		r.Get("/profit/monthly", s.monthlyProfit)
		r.Get("/status/{statusName}", s.listByStatus)
		r.Get("/{orderID}", s.getOrder)
		r.Put("/{orderID}/status", s.updateStatus)
	})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.service.ListOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list orders", nil)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "order id must be a valid uuid", nil)
		return
	}

	order, st, err := s.service.GetByIDWithStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no order with this id", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "could not fetch order", nil)
		return
	}

	observability.AppendServerTiming(w, "cache", st.CacheMs, "")
	observability.AppendServerTiming(w, "db", st.DBMs, "")
	observability.AppendServerTiming(w, "source", 0, string(st.Source))
	w.Header().Set("X-Source", string(st.Source))
	observability.SetIfPos(w, "X-Cache-Time", st.CacheMs)
	observability.SetIfPos(w, "X-DB-Time", st.DBMs)

	writeJSON(w, http.StatusOK, order)
}

func (s *Server) listByStatus(w http.ResponseWriter, r *http.Request) {
	statusName := strings.TrimSpace(chi.URLParam(r, "statusName"))
	if statusName == "" {
		writeError(w, http.StatusBadRequest, "status name required", nil)
		return
	}

	orders, err := s.service.ListByStatus(r.Context(), statusName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list orders", nil)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	StatusName string `json:"statusName"`
}

type updateStatusResponse struct {
	Message   string    `json:"message"`
	OrderID   uuid.UUID `json:"orderId"`
	NewStatus string    `json:"newStatus"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "order id must be a valid uuid", nil)
		return
	}

	var req updateStatusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", nil)
		return
	}
	if strings.TrimSpace(req.StatusName) == "" {
		writeError(w, http.StatusBadRequest, "statusName is required", nil)
		return
	}

	ok, err := s.service.UpdateStatus(r.Context(), id, req.StatusName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not update status", nil)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "order not found or unknown status", nil)
		return
	}

	writeJSON(w, http.StatusOK, updateStatusResponse{
		Message:   "status updated",
		OrderID:   id,
		NewStatus: req.StatusName,
	})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	var req domain.CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.logger.Error("bad create order payload", zap.Error(err))
		writeError(w, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.ResellerID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "resellerId is required", nil)
		return
	}
	if req.CustomerID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "customerId is required", nil)
		return
	}

	order, st, err := s.service.CreateWithStats(r.Context(), req)
	if err != nil {
		s.writeCreateError(w, err)
		return
	}

	observability.AppendServerTiming(w, "db_write", st.DBWriteMs, "")
	w.Header().Set("Location", "/orders/"+order.ID.String())
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) writeCreateError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var dupErr *domain.DuplicateProductsError
	var unkErr *domain.UnknownProductsError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error(), nil)
	case errors.As(err, &dupErr):
		writeError(w, http.StatusBadRequest, "duplicate products in order", dupErr.ProductIDs)
	case errors.As(err, &unkErr):
		writeError(w, http.StatusBadRequest, "unknown products", unkErr.ProductIDs)
	default:
		s.logger.Error("order creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create order", nil)
	}
}

func (s *Server) monthlyProfit(w http.ResponseWriter, r *http.Request) {
	profit, err := s.service.MonthlyProfit(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not aggregate profit", nil)
		return
	}
	writeJSON(w, http.StatusOK, profit)
}

type errorResponse struct {
	Error      string      `json:"error"`
	ProductIDs []uuid.UUID `json:"productIds,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, productIDs []uuid.UUID) {
	writeJSON(w, status, errorResponse{Error: msg, ProductIDs: productIDs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

func (s *Server) Handler() http.Handler { return s.router }
