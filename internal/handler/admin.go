package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/keyshop/internal/middleware"
	"github.com/mmeshcher/keyshop/internal/service"
)

type productRequest struct {
	Name         string `json:"name"`
	BasePrice    int64  `json:"base_price"`
	DurationDays int    `json:"duration_days"`
}

// UpsertProduct создаёт или обновляет продукт.
func (h *Handler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.service.UpsertProduct(r.Context(), service.ProductSpec{
		ID:           chi.URLParam(r, "id"),
		Name:         req.Name,
		BasePrice:    req.BasePrice,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		h.writeError(w, r, "upsert product", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Restock принимает ключи текстом, по одному на строку.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxKeysBodySize))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	productID := chi.URLParam(r, "id")
	res, err := h.service.Restock(r.Context(), productID, r.URL.Query().Get("name"), []string{string(body)})
	if err != nil {
		h.writeError(w, r, "restock", err)
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	h.logger.Info("restocked",
		zap.String("admin_id", adminID),
		zap.String("product_id", productID),
		zap.Int("added", res.Added),
		zap.Int("stock", res.Stock),
	)
	writeJSON(w, http.StatusOK, res)
}

type creditsRequest struct {
	Amount int64 `json:"amount"`
}

// AddCredits начисляет или списывает кредиты пользователю.
func (h *Handler) AddCredits(w http.ResponseWriter, r *http.Request) {
	var req creditsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := chi.URLParam(r, "id")
	balance, err := h.service.AddCredits(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeError(w, r, "add credits", err)
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	h.logger.Info("credits added",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.Int64("amount", req.Amount),
		zap.Int64("balance", balance.Credits),
	)
	writeJSON(w, http.StatusOK, balance)
}

// SetCredits перезаписывает баланс пользователя.
func (h *Handler) SetCredits(w http.ResponseWriter, r *http.Request) {
	var req creditsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := chi.URLParam(r, "id")
	balance, err := h.service.SetCredits(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeError(w, r, "set credits", err)
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	h.logger.Info("credits set",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.Int64("balance", balance.Credits),
	)
	writeJSON(w, http.StatusOK, balance)
}

type discountRequest struct {
	Percent int `json:"percent"`
}

// SetDiscount задаёт персональную скидку пользователя.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	balance, err := h.service.SetDiscount(r.Context(), chi.URLParam(r, "id"), req.Percent)
	if err != nil {
		h.writeError(w, r, "set discount", err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// GetUserOrders возвращает заказы указанного пользователя.
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	h.writeOrders(w, r, chi.URLParam(r, "id"))
}

// GetTicket возвращает обращение по каналу.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.service.GetTicket(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		h.writeError(w, r, "get ticket", err)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

// CloseTicket закрывает обращение.
func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.service.CloseTicket(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		h.writeError(w, r, "close ticket", err)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

type ticketCategoryRequest struct {
	CategoryID string `json:"category_id"`
}

// GetTicketCategory возвращает категорию каналов для обращений.
func (h *Handler) GetTicketCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.service.TicketCategory(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, ticketCategoryRequest{CategoryID: id})
}

// SetTicketCategory задаёт категорию каналов для обращений.
func (h *Handler) SetTicketCategory(w http.ResponseWriter, r *http.Request) {
	var req ticketCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.SetTicketCategory(r.Context(), req.CategoryID); err != nil {
		h.writeError(w, r, "set ticket category", err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}
