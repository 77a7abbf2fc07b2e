package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument возвращается при некорректных входных данных.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidQuantity возвращается, если количество ключей вне допустимого диапазона.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity out of range", ErrInvalidArgument)
	// ErrUnknownProduct возвращается, если продукт не найден.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrInsufficientStock возвращается, если ключей на складе меньше, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientFunds возвращается, если кредитов на счёте недостаточно.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrPersistenceFailure возвращается, если документ не удалось сохранить.
	// Состояние в памяти при этом остаётся прежним.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrNotFound возвращается, если заказ или обращение не найдены.
	ErrNotFound = errors.New("not found")
	// ErrOrderIDExhausted возвращается, если не удалось подобрать свободный номер заказа.
	ErrOrderIDExhausted = errors.New("order id space exhausted")
)

// PurchaseError описывает отказ в покупке и содержит данные для сообщения пользователю.
type PurchaseError struct {
	Err         error
	ProductID   string
	Requested   int
	Available   int
	MaxQuantity int
	Balance     int64
	Required    int64
	UnitPrice   int64
}

func (e *PurchaseError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInvalidQuantity):
		return fmt.Sprintf("%v: %d not in [1, %d]", e.Err, e.Requested, e.MaxQuantity)
	case errors.Is(e.Err, ErrInsufficientStock):
		return fmt.Sprintf("%v: %s has %d, requested %d", e.Err, e.ProductID, e.Available, e.Requested)
	case errors.Is(e.Err, ErrInsufficientFunds):
		return fmt.Sprintf("%v: balance %d, required %d (%d x %d)", e.Err, e.Balance, e.Required, e.Requested, e.UnitPrice)
	default:
		return fmt.Sprintf("%v: %s", e.Err, e.ProductID)
	}
}

func (e *PurchaseError) Unwrap() error {
	return e.Err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnknownProduct):
		return "unknown_product"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrPersistenceFailure):
		return "persistence_failure"
	default:
		return "error"
	}
}
