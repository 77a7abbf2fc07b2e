// Package model содержит доменные сущности магазина лицензионных ключей.
package model

import "time"

// UnlimitedDays обозначает бессрочный продукт: ключи такого продукта не истекают.
const UnlimitedDays = 9999

// RedeemedKey описывает ключ, выданный пользователю при покупке.
type RedeemedKey struct {
	Key         string     `json:"key"`
	ProductID   string     `json:"product_id"`
	PurchasedAt time.Time  `json:"purchased_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// User представляет покупателя и состояние его кредитного счёта.
type User struct {
	ID              string        `json:"id"`
	Credits         int64         `json:"credits"`
	DiscountPercent int           `json:"discount_percent"`
	TotalSpent      int64         `json:"total_spent"`
	KeysGenerated   int64         `json:"keys_generated"`
	RedeemedKeys    []RedeemedKey `json:"redeemed_keys"`
}

// Product описывает продукт (вариант продукта) и очередь его ключей.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	BasePrice    int64    `json:"base_price"`
	DurationDays int      `json:"duration_days"`
	Position     int      `json:"position"`
	Keys         []string `json:"keys"`
}

// Unlimited сообщает, что ключи продукта выдаются бессрочно.
func (p *Product) Unlimited() bool {
	return p.DurationDays == UnlimitedDays
}

// ExpiryFrom возвращает момент истечения ключа, купленного в момент now, или nil для бессрочных продуктов.
func (p *Product) ExpiryFrom(now time.Time) *time.Time {
	if p.Unlimited() {
		return nil
	}
	exp := now.AddDate(0, 0, p.DurationDays)
	return &exp
}

// Order описывает завершённую покупку. После создания заказ не изменяется.
type Order struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ProductID       string     `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Keys            []string   `json:"keys"`
	Quantity        int        `json:"quantity"`
	UnitPrice       int64      `json:"unit_price"`
	TotalPrice      int64      `json:"total_price"`
	DiscountPercent int        `json:"discount_percent"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

// Ticket описывает обращение в поддержку, привязанное к каналу чата.
type Ticket struct {
	ChannelID string    `json:"channel_id"`
	Number    int64     `json:"number"`
	CreatorID string    `json:"creator_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Balance содержит сведения о счёте пользователя для отображения.
type Balance struct {
	Credits         int64 `json:"credits"`
	DiscountPercent int   `json:"discount_percent"`
	TotalSpent      int64 `json:"total_spent"`
	KeysGenerated   int64 `json:"keys_generated"`
}
