package model

import (
	"slices"
	"time"
)

// Document описывает корневой объект хранилища со всеми пользователями, продуктами, заказами и счётчиками.
type Document struct {
	Users          map[string]*User    `json:"users"`
	Products       map[string]*Product `json:"products"`
	Orders         map[string]*Order   `json:"orders"`
	Tickets        map[string]*Ticket  `json:"tickets"`
	TicketCounter  int64               `json:"ticket_counter"`
	TicketCategory *string             `json:"ticket_category"`
}

// NewDocument возвращает пустой документ.
func NewDocument() *Document {
	return &Document{
		Users:    make(map[string]*User),
		Products: make(map[string]*Product),
		Orders:   make(map[string]*Order),
		Tickets:  make(map[string]*Ticket),
	}
}

// Normalize заполняет отсутствующие поля значениями по умолчанию.
// Нужен для документов, сохранённых старыми версиями.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = make(map[string]*User)
	}
	if d.Products == nil {
		d.Products = make(map[string]*Product)
	}
	if d.Orders == nil {
		d.Orders = make(map[string]*Order)
	}
	if d.Tickets == nil {
		d.Tickets = make(map[string]*Ticket)
	}

	for id, u := range d.Users {
		if u == nil {
			delete(d.Users, id)
			continue
		}
		u.ID = id
		u.backfill()
	}

	for id, p := range d.Products {
		if p == nil {
			delete(d.Products, id)
			continue
		}
		p.ID = id
		if p.Keys == nil {
			p.Keys = []string{}
		}
	}

	for id, o := range d.Orders {
		if o == nil {
			delete(d.Orders, id)
			continue
		}
		o.ID = id
		if o.Keys == nil {
			o.Keys = []string{}
		}
	}

	for id, t := range d.Tickets {
		if t == nil {
			delete(d.Tickets, id)
			continue
		}
		t.ChannelID = id
	}
}

// PositionsMissing сообщает, что продукты не упорядочены: все позиции нулевые.
// Так выглядят документы, записанные до появления поля position.
func (d *Document) PositionsMissing() bool {
	if len(d.Products) < 2 {
		return false
	}
	for _, p := range d.Products {
		if p.Position != 0 {
			return false
		}
	}
	return true
}

// AssignPositions нумерует продукты в порядке order.
// Продукты, которых нет в order, получают следующие позиции в порядке идентификаторов.
func (d *Document) AssignPositions(order []string) {
	pos := 0
	seen := make(map[string]bool, len(d.Products))
	for _, id := range order {
		p, ok := d.Products[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		p.Position = pos
		pos++
	}

	rest := make([]string, 0, len(d.Products)-len(seen))
	for id := range d.Products {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	for _, id := range rest {
		d.Products[id].Position = pos
		pos++
	}
}

func (u *User) backfill() {
	if u.RedeemedKeys == nil {
		u.RedeemedKeys = []RedeemedKey{}
	}
	if u.KeysGenerated != int64(len(u.RedeemedKeys)) {
		u.KeysGenerated = int64(len(u.RedeemedKeys))
	}
}

// NewUser создаёт пользователя с нулевым балансом.
func NewUser(id string) *User {
	return &User{ID: id, RedeemedKeys: []RedeemedKey{}}
}

// Clone возвращает глубокую копию документа.
func (d *Document) Clone() *Document {
	c := &Document{
		Users:         make(map[string]*User, len(d.Users)),
		Products:      make(map[string]*Product, len(d.Products)),
		Orders:        make(map[string]*Order, len(d.Orders)),
		Tickets:       make(map[string]*Ticket, len(d.Tickets)),
		TicketCounter: d.TicketCounter,
	}
	if d.TicketCategory != nil {
		v := *d.TicketCategory
		c.TicketCategory = &v
	}
	for id, u := range d.Users {
		c.Users[id] = u.Clone()
	}
	for id, p := range d.Products {
		c.Products[id] = p.Clone()
	}
	for id, o := range d.Orders {
		c.Orders[id] = o.Clone()
	}
	for id, t := range d.Tickets {
		v := *t
		c.Tickets[id] = &v
	}
	return c
}

// Clone возвращает глубокую копию пользователя.
func (u *User) Clone() *User {
	c := *u
	c.RedeemedKeys = make([]RedeemedKey, len(u.RedeemedKeys))
	for i, k := range u.RedeemedKeys {
		k.ExpiresAt = cloneTime(k.ExpiresAt)
		c.RedeemedKeys[i] = k
	}
	return &c
}

// Clone возвращает глубокую копию продукта.
func (p *Product) Clone() *Product {
	c := *p
	c.Keys = append(make([]string, 0, len(p.Keys)), p.Keys...)
	return &c
}

// Clone возвращает глубокую копию заказа.
func (o *Order) Clone() *Order {
	c := *o
	c.Keys = append(make([]string, 0, len(o.Keys)), o.Keys...)
	c.ExpiresAt = cloneTime(o.ExpiresAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
