package service

import (
	"context"
	"fmt"
	"math"

	"github.com/mmeshcher/keyshop/internal/model"
)

// MaxBasePrice ограничивает цену продукта, чтобы стоимость покупки помещалась в int64.
const MaxBasePrice int64 = 1_000_000_000_000

// PriceAfterDiscount возвращает цену со скидкой, округлённую вверх до целого кредита.
// Неотрицательная цена не переполняется ни при какой скидке.
func PriceAfterDiscount(basePrice int64, percent int) int64 {
	if percent <= 0 {
		return basePrice
	}
	if percent >= 100 {
		return 0
	}
	keep := int64(100 - percent)
	return basePrice/100*keep + (basePrice%100*keep+99)/100
}

// addInt64 складывает a и b и сообщает, не было ли переполнения.
func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// mulInt64 перемножает неотрицательные a и b и сообщает, не было ли переполнения.
func mulInt64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, false
	}
	return a * b, true
}

// userIn возвращает пользователя из документа, создавая его при отсутствии.
func userIn(doc *model.Document, id string) *model.User {
	u, ok := doc.Users[id]
	if !ok {
		u = model.NewUser(id)
		doc.Users[id] = u
	}
	return u
}

func balanceOf(u *model.User) model.Balance {
	return model.Balance{
		Credits:         u.Credits,
		DiscountPercent: u.DiscountPercent,
		TotalSpent:      u.TotalSpent,
		KeysGenerated:   u.KeysGenerated,
	}
}

func validateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	return nil
}

// GetOrCreateUser возвращает копию пользователя, создавая запись при первом обращении.
func (s *Service) GetOrCreateUser(ctx context.Context, id string) (model.User, error) {
	if err := validateUserID(id); err != nil {
		return model.User{}, err
	}

	if u, ok := s.snapshot().Users[id]; ok {
		return *u.Clone(), nil
	}

	var res model.User
	err := s.update(ctx, func(doc *model.Document) error {
		res = *userIn(doc, id).Clone()
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return res, nil
}

// GetBalance возвращает баланс пользователя. Неизвестный пользователь имеет нулевой баланс.
func (s *Service) GetBalance(ctx context.Context, id string) (model.Balance, error) {
	if err := validateUserID(id); err != nil {
		return model.Balance{}, err
	}

	u, ok := s.snapshot().Users[id]
	if !ok {
		return model.Balance{}, nil
	}
	return balanceOf(u), nil
}

// AddCredits прибавляет amount к балансу. Отрицательная сумма списывает кредиты,
// но не ниже нуля: произвольное значение задаётся только через SetCredits.
func (s *Service) AddCredits(ctx context.Context, id string, amount int64) (model.Balance, error) {
	if err := validateUserID(id); err != nil {
		return model.Balance{}, err
	}

	var res model.Balance
	err := s.update(ctx, func(doc *model.Document) error {
		u := userIn(doc, id)
		sum, ok := addInt64(u.Credits, amount)
		if !ok {
			return fmt.Errorf("%w: balance %d, delta %d overflows", ErrInvalidArgument, u.Credits, amount)
		}
		if sum < 0 {
			return fmt.Errorf("%w: balance %d, delta %d", ErrInsufficientFunds, u.Credits, amount)
		}
		u.Credits = sum
		res = balanceOf(u)
		return nil
	})
	if err != nil {
		return model.Balance{}, err
	}
	return res, nil
}

// SetCredits перезаписывает баланс пользователя.
func (s *Service) SetCredits(ctx context.Context, id string, amount int64) (model.Balance, error) {
	if err := validateUserID(id); err != nil {
		return model.Balance{}, err
	}

	var res model.Balance
	err := s.update(ctx, func(doc *model.Document) error {
		u := userIn(doc, id)
		u.Credits = amount
		res = balanceOf(u)
		return nil
	})
	if err != nil {
		return model.Balance{}, err
	}
	return res, nil
}

// SetDiscount задаёт персональную скидку в процентах от 0 до 100.
func (s *Service) SetDiscount(ctx context.Context, id string, percent int) (model.Balance, error) {
	if err := validateUserID(id); err != nil {
		return model.Balance{}, err
	}
	if percent < 0 || percent > 100 {
		return model.Balance{}, fmt.Errorf("%w: discount %d outside [0, 100]", ErrInvalidArgument, percent)
	}

	var res model.Balance
	err := s.update(ctx, func(doc *model.Document) error {
		u := userIn(doc, id)
		u.DiscountPercent = percent
		res = balanceOf(u)
		return nil
	})
	if err != nil {
		return model.Balance{}, err
	}
	return res, nil
}
