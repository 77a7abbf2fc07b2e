// Package handler содержит HTTP-обработчики API магазина ключей.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/keyshop/internal/metrics"
	"github.com/mmeshcher/keyshop/internal/middleware"
	"github.com/mmeshcher/keyshop/internal/model"
	"github.com/mmeshcher/keyshop/internal/service"
	"github.com/mmeshcher/keyshop/internal/validation"
)

const maxKeysBodySize = 1 << 20

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	GetBalance(ctx context.Context, userID string) (model.Balance, error)
	ListProductsFor(ctx context.Context, userID string) []service.ProductView
	Purchase(ctx context.Context, userID, productID string, quantity int) (service.PurchaseResult, error)
	GetOrder(ctx context.Context, orderID string) (model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)
	ListRedeemedKeys(ctx context.Context, userID string) ([]model.RedeemedKey, error)
	OpenTicket(ctx context.Context, channelID, creatorID, reason string) (model.Ticket, error)

	UpsertProduct(ctx context.Context, spec service.ProductSpec) (service.ProductView, error)
	Restock(ctx context.Context, productID, productName string, entries []string) (service.RestockResult, error)
	AddCredits(ctx context.Context, userID string, amount int64) (model.Balance, error)
	SetCredits(ctx context.Context, userID string, amount int64) (model.Balance, error)
	SetDiscount(ctx context.Context, userID string, percent int) (model.Balance, error)
	GetTicket(ctx context.Context, channelID string) (model.Ticket, error)
	CloseTicket(ctx context.Context, channelID string) (model.Ticket, error)
	TicketCategory(ctx context.Context) (string, bool)
	SetTicketCategory(ctx context.Context, categoryID string) error
}

// Handler реализует HTTP-обработчики API магазина ключей.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов. m может быть nil.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, m *metrics.Metrics) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        m,
	}
}

type errorResponse struct {
	Error       string `json:"error"`
	Reason      string `json:"reason,omitempty"`
	ProductID   string `json:"product_id,omitempty"`
	Requested   int    `json:"requested,omitempty"`
	Available   int    `json:"available"`
	MaxQuantity int    `json:"max_quantity,omitempty"`
	Balance     int64  `json:"balance"`
	Required    int64  `json:"required"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownProduct), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrPersistenceFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает статусом по типу ошибки. Отказы в покупке отдаются JSON с подробностями.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)

	switch status {
	case http.StatusInternalServerError:
		h.logger.Error(op+" error", zap.Error(err), zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		http.Error(w, http.StatusText(status), status)
		return
	case http.StatusServiceUnavailable:
		h.logger.Error(op+" persistence error", zap.Error(err), zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		http.Error(w, "store is temporarily unavailable, contact an operator", status)
		return
	}

	var perr *service.PurchaseError
	if errors.As(err, &perr) {
		writeJSON(w, status, errorResponse{
			Error:       perr.Error(),
			Reason:      reasonFor(perr.Err),
			ProductID:   perr.ProductID,
			Requested:   perr.Requested,
			Available:   perr.Available,
			MaxQuantity: perr.MaxQuantity,
			Balance:     perr.Balance,
			Required:    perr.Required,
		})
		return
	}

	http.Error(w, err.Error(), status)
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, service.ErrUnknownProduct):
		return "unknown_product"
	case errors.Is(err, service.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, service.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return ""
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return userID, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

// Healthz отвечает 200, пока сервер жив.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "ok")
}

// StartSession выдаёт cookie авторизации пользователю, предъявившему токен в заголовке,
// чтобы браузерный клиент дальше работал без заголовка.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance возвращает баланс текущего пользователя.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// GetProducts возвращает витрину с ценами для текущего пользователя.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, h.service.ListProductsFor(r.Context(), userID))
}

type purchaseRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Purchase проводит покупку ключей текущим пользователем.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := h.service.Purchase(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, r, "purchase", err)
		return
	}

	h.logger.Info("purchase completed",
		zap.String("user_id", userID),
		zap.String("order_id", res.OrderID),
		zap.String("product_id", res.ProductID),
		zap.Int("quantity", res.Quantity),
		zap.Int64("total", res.Total),
	)
	writeJSON(w, http.StatusOK, res)
}

// GetOrders возвращает список заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	h.writeOrders(w, r, userID)
}

func (h *Handler) writeOrders(w http.ResponseWriter, r *http.Request, userID string) {
	orders, err := h.service.ListOrders(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "list orders", err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder возвращает заказ по номеру. Чужие заказы доступны только администраторам.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	number := validation.NormalizeOrderNumber(chi.URLParam(r, "id"))
	if !validation.IsValidOrderNumber(number) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.GetOrder(r.Context(), number)
	if err != nil {
		h.writeError(w, r, "get order", err)
		return
	}

	if order.UserID != userID && !h.authMiddleware.IsAdmin(userID) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetKeys возвращает все ключи, купленные текущим пользователем.
func (h *Handler) GetKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	keys, err := h.service.ListRedeemedKeys(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "list keys", err)
		return
	}

	if len(keys) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, keys)
}

type ticketRequest struct {
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason"`
}

// OpenTicket регистрирует обращение в поддержку от текущего пользователя.
func (h *Handler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ticketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ticket, err := h.service.OpenTicket(r.Context(), req.ChannelID, userID, req.Reason)
	if err != nil {
		h.writeError(w, r, "open ticket", err)
		return
	}

	writeJSON(w, http.StatusCreated, ticket)
}
