package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mmeshcher/keyshop/internal/model"
)

// ProductSpec описывает продукт без ключей: то, что задаёт администратор или каталог.
type ProductSpec struct {
	ID           string
	Name         string
	BasePrice    int64
	DurationDays int
}

// ProductView описывает продукт для витрины, его цену с учётом скидки и остаток на складе.
type ProductView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BasePrice       int64  `json:"base_price"`
	UnitPrice       int64  `json:"unit_price"`
	DiscountPercent int    `json:"discount_percent"`
	DurationDays    int    `json:"duration_days"`
	Unlimited       bool   `json:"unlimited"`
	Stock           int    `json:"stock"`
}

// RestockResult сообщает, сколько ключей добавлено и каков новый остаток.
type RestockResult struct {
	ProductID string `json:"product_id"`
	Added     int    `json:"added"`
	Stock     int    `json:"stock"`
}

func viewOf(p *model.Product, discount int) ProductView {
	return ProductView{
		ID:              p.ID,
		Name:            p.Name,
		BasePrice:       p.BasePrice,
		UnitPrice:       PriceAfterDiscount(p.BasePrice, discount),
		DiscountPercent: discount,
		DurationDays:    p.DurationDays,
		Unlimited:       p.Unlimited(),
		Stock:           len(p.Keys),
	}
}

func orderedProducts(doc *model.Document) []*model.Product {
	res := make([]*model.Product, 0, len(doc.Products))
	for _, p := range doc.Products {
		res = append(res, p)
	}
	slices.SortFunc(res, func(a, b *model.Product) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return strings.Compare(a.ID, b.ID)
	})
	return res
}

func nextPosition(doc *model.Document) int {
	pos := 0
	for _, p := range doc.Products {
		if p.Position >= pos {
			pos = p.Position + 1
		}
	}
	return pos
}

// ListProducts возвращает продукты в порядке добавления.
func (s *Service) ListProducts(ctx context.Context) []ProductView {
	doc := s.snapshot()
	res := make([]ProductView, 0, len(doc.Products))
	for _, p := range orderedProducts(doc) {
		res = append(res, viewOf(p, 0))
	}
	return res
}

// ListProductsFor возвращает продукты с ценами, пересчитанными по скидке пользователя.
func (s *Service) ListProductsFor(ctx context.Context, userID string) []ProductView {
	doc := s.snapshot()
	discount := 0
	if u, ok := doc.Users[userID]; ok {
		discount = u.DiscountPercent
	}

	res := make([]ProductView, 0, len(doc.Products))
	for _, p := range orderedProducts(doc) {
		res = append(res, viewOf(p, discount))
	}
	return res
}

// StockCount возвращает число ключей продукта на складе.
func (s *Service) StockCount(ctx context.Context, productID string) (int, error) {
	p, ok := s.snapshot().Products[productID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	return len(p.Keys), nil
}

// withdrawKeys снимает quantity ключей с начала очереди продукта.
func withdrawKeys(p *model.Product, quantity int) ([]string, error) {
	if quantity < 1 || quantity > len(p.Keys) {
		return nil, ErrInsufficientStock
	}
	keys := slices.Clone(p.Keys[:quantity])
	p.Keys = slices.Clone(p.Keys[quantity:])
	return keys, nil
}

// NormalizeKeys разбивает записи на строки, обрезает пробелы и отбрасывает пустые строки.
// Каждая непустая строка становится отдельной единицей склада.
func NormalizeKeys(entries []string) []string {
	var res []string
	for _, entry := range entries {
		for _, line := range strings.Split(entry, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				res = append(res, line)
			}
		}
	}
	return res
}

// Restock добавляет ключи в конец очереди продукта, создавая продукт при отсутствии.
// Дубликаты не отбрасываются.
func (s *Service) Restock(ctx context.Context, productID, productName string, entries []string) (RestockResult, error) {
	if productID == "" {
		return RestockResult{}, fmt.Errorf("%w: empty product id", ErrInvalidArgument)
	}
	keys := NormalizeKeys(entries)
	if len(keys) == 0 {
		return RestockResult{}, fmt.Errorf("%w: no keys provided", ErrInvalidArgument)
	}

	var res RestockResult
	err := s.update(ctx, func(doc *model.Document) error {
		p, ok := doc.Products[productID]
		if !ok {
			name := productName
			if name == "" {
				name = productID
			}
			p = &model.Product{
				ID:           productID,
				Name:         name,
				DurationDays: 1,
				Position:     nextPosition(doc),
				Keys:         []string{},
			}
			doc.Products[productID] = p
		}
		p.Keys = append(p.Keys, keys...)
		res = RestockResult{ProductID: productID, Added: len(keys), Stock: len(p.Keys)}
		return nil
	})
	if err != nil {
		return RestockResult{}, err
	}

	s.recorder.StockChanged(productID, res.Stock)
	return res, nil
}

func validateSpec(spec ProductSpec) error {
	switch {
	case spec.ID == "":
		return fmt.Errorf("%w: empty product id", ErrInvalidArgument)
	case spec.BasePrice < 0:
		return fmt.Errorf("%w: negative price for %s", ErrInvalidArgument, spec.ID)
	case spec.BasePrice > MaxBasePrice:
		return fmt.Errorf("%w: price %d for %s exceeds %d", ErrInvalidArgument, spec.BasePrice, spec.ID, MaxBasePrice)
	case spec.DurationDays <= 0:
		return fmt.Errorf("%w: non-positive duration for %s", ErrInvalidArgument, spec.ID)
	}
	return nil
}

func applySpec(doc *model.Document, spec ProductSpec) *model.Product {
	p, ok := doc.Products[spec.ID]
	if !ok {
		p = &model.Product{ID: spec.ID, Position: nextPosition(doc), Keys: []string{}}
		doc.Products[spec.ID] = p
	}
	p.Name = spec.Name
	if p.Name == "" {
		p.Name = spec.ID
	}
	p.BasePrice = spec.BasePrice
	p.DurationDays = spec.DurationDays
	return p
}

// UpsertProduct создаёт продукт или обновляет его название, цену и срок. Ключи не затрагиваются.
func (s *Service) UpsertProduct(ctx context.Context, spec ProductSpec) (ProductView, error) {
	if err := validateSpec(spec); err != nil {
		return ProductView{}, err
	}

	var res ProductView
	err := s.update(ctx, func(doc *model.Document) error {
		res = viewOf(applySpec(doc, spec), 0)
		return nil
	})
	if err != nil {
		return ProductView{}, err
	}
	return res, nil
}

// SyncCatalog применяет весь каталог одним сохранением.
func (s *Service) SyncCatalog(ctx context.Context, specs []ProductSpec) error {
	for _, spec := range specs {
		if err := validateSpec(spec); err != nil {
			return err
		}
	}

	return s.update(ctx, func(doc *model.Document) error {
		for _, spec := range specs {
			applySpec(doc, spec)
		}
		return nil
	})
}

// ReportStock публикует остатки всех продуктов сразу и затем с периодом interval,
// пока не отменён ctx.
func (s *Service) ReportStock(ctx context.Context, interval time.Duration) {
	s.publishStock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publishStock()
		}
	}
}

func (s *Service) publishStock() {
	for _, p := range s.snapshot().Products {
		s.recorder.StockChanged(p.ID, len(p.Keys))
	}
}
