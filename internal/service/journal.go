package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mmeshcher/keyshop/internal/model"
	"github.com/mmeshcher/keyshop/internal/validation"
)

func appendOrder(doc *model.Document, o *model.Order) error {
	if _, ok := doc.Orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	doc.Orders[o.ID] = o
	return nil
}

// GetOrder возвращает заказ по номеру. Регистр номера не важен.
func (s *Service) GetOrder(ctx context.Context, orderID string) (model.Order, error) {
	id := validation.NormalizeOrderNumber(orderID)
	o, ok := s.snapshot().Orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return *o.Clone(), nil
}

// ListOrders возвращает заказы пользователя, начиная с самых новых.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var res []model.Order
	for _, o := range s.snapshot().Orders {
		if o.UserID == userID {
			res = append(res, *o.Clone())
		}
	}

	slices.SortFunc(res, func(a, b model.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return res, nil
}

// ListRedeemedKeys возвращает все ключи, выданные пользователю, в порядке покупки.
func (s *Service) ListRedeemedKeys(ctx context.Context, userID string) ([]model.RedeemedKey, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	u, ok := s.snapshot().Users[userID]
	if !ok {
		return nil, nil
	}
	return u.Clone().RedeemedKeys, nil
}
