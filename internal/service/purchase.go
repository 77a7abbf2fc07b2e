package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/keyshop/internal/model"
)

// PurchaseResult описывает успешную покупку.
type PurchaseResult struct {
	OrderID         string     `json:"order_id"`
	ProductID       string     `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Keys            []string   `json:"keys"`
	Quantity        int        `json:"quantity"`
	UnitPrice       int64      `json:"unit_price"`
	Total           int64      `json:"total"`
	DiscountPercent int        `json:"discount_percent"`
	Balance         int64      `json:"balance"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

// Purchase проводит покупку quantity ключей продукта productID пользователем userID.
// Проверка склада и баланса, списание, выдача ключей и запись заказа выполняются
// как одна транзакция: при любой ошибке, включая ошибку сохранения, состояние не меняется.
func (s *Service) Purchase(ctx context.Context, userID, productID string, quantity int) (PurchaseResult, error) {
	res, err := s.purchase(ctx, userID, productID, quantity)
	if err != nil {
		s.recorder.PurchaseRejected(rejectionReason(err))
		return PurchaseResult{}, err
	}
	return res, nil
}

func (s *Service) purchase(ctx context.Context, userID, productID string, quantity int) (PurchaseResult, error) {
	if err := validateUserID(userID); err != nil {
		return PurchaseResult{}, err
	}
	if quantity < 1 || quantity > s.maxQuantity {
		return PurchaseResult{}, &PurchaseError{
			Err:         ErrInvalidQuantity,
			ProductID:   productID,
			Requested:   quantity,
			MaxQuantity: s.maxQuantity,
		}
	}

	var (
		res   PurchaseResult
		stock int
	)
	err := s.update(ctx, func(doc *model.Document) error {
		user := userIn(doc, userID)

		product, ok := doc.Products[productID]
		if !ok {
			return &PurchaseError{Err: ErrUnknownProduct, ProductID: productID, Requested: quantity}
		}

		unit := PriceAfterDiscount(product.BasePrice, user.DiscountPercent)
		total, ok := mulInt64(unit, int64(quantity))
		if !ok {
			return &PurchaseError{
				Err:       fmt.Errorf("%w: price %d x %d is out of range", ErrInvalidArgument, unit, quantity),
				ProductID: productID,
				Requested: quantity,
				UnitPrice: unit,
			}
		}
		spent, ok := addInt64(user.TotalSpent, total)
		if !ok {
			return fmt.Errorf("%w: total spent overflows", ErrInvalidArgument)
		}

		if len(product.Keys) < quantity {
			return &PurchaseError{
				Err:       ErrInsufficientStock,
				ProductID: productID,
				Requested: quantity,
				Available: len(product.Keys),
			}
		}

		if user.Credits < total {
			return &PurchaseError{
				Err:       ErrInsufficientFunds,
				ProductID: productID,
				Requested: quantity,
				Available: len(product.Keys),
				Balance:   user.Credits,
				Required:  total,
				UnitPrice: unit,
			}
		}

		keys, err := withdrawKeys(product, quantity)
		if err != nil {
			return &PurchaseError{
				Err:       ErrInsufficientStock,
				ProductID: productID,
				Requested: quantity,
				Available: len(product.Keys),
			}
		}

		now := s.clock.Now()
		expires := product.ExpiryFrom(now)

		user.Credits -= total
		user.TotalSpent = spent
		user.KeysGenerated += int64(quantity)
		for _, k := range keys {
			user.RedeemedKeys = append(user.RedeemedKeys, model.RedeemedKey{
				Key:         k,
				ProductID:   productID,
				PurchasedAt: now,
				ExpiresAt:   copyTime(expires),
			})
		}

		orderID, err := newOrderID(s.random, func(id string) bool {
			_, ok := doc.Orders[id]
			return ok
		})
		if err != nil {
			return err
		}

		order := &model.Order{
			ID:              orderID,
			UserID:          userID,
			ProductID:       productID,
			ProductName:     product.Name,
			Keys:            keys,
			Quantity:        quantity,
			UnitPrice:       unit,
			TotalPrice:      total,
			DiscountPercent: user.DiscountPercent,
			CreatedAt:       now,
			ExpiresAt:       copyTime(expires),
		}
		if err := appendOrder(doc, order); err != nil {
			return fmt.Errorf("append order: %w", err)
		}

		stock = len(product.Keys)
		res = PurchaseResult{
			OrderID:         orderID,
			ProductID:       productID,
			ProductName:     product.Name,
			Keys:            append([]string(nil), keys...),
			Quantity:        quantity,
			UnitPrice:       unit,
			Total:           total,
			DiscountPercent: user.DiscountPercent,
			Balance:         user.Credits,
			ExpiresAt:       copyTime(expires),
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	s.recorder.PurchaseCompleted(productID, quantity, res.Total)
	s.recorder.StockChanged(productID, stock)
	return res, nil
}
