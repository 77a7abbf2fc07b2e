// Package catalog загружает каталог продуктов из YAML.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/keyshop/internal/service"
	"github.com/mmeshcher/keyshop/internal/validation"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Variant описывает вариант продукта внутри категории, например срок действия ключа.
type Variant struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Price        int64  `yaml:"price"`
	DurationDays int    `yaml:"duration_days"`
}

// Category описывает группу вариантов одного продукта.
type Category struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Variants []Variant `yaml:"variants"`
}

// Catalog описывает набор категорий в порядке показа.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// Load читает каталог из файла.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Default возвращает встроенный каталог.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Parse декодирует каталог, отвергая неизвестные поля.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate проверяет идентификаторы, цены и сроки.
func (c *Catalog) Validate() error {
	seen := make(map[string]struct{})
	for _, cat := range c.Categories {
		if !validation.IsValidSlug(cat.ID) {
			return fmt.Errorf("category %q: bad id", cat.ID)
		}
		if cat.Name == "" {
			return fmt.Errorf("category %s: name is required", cat.ID)
		}
		for _, v := range cat.Variants {
			id := ProductID(cat.ID, v.ID)
			switch {
			case !validation.IsValidSlug(v.ID):
				return fmt.Errorf("variant %q of %s: bad id", v.ID, cat.ID)
			case v.Price < 0:
				return fmt.Errorf("%s: negative price", id)
			case v.Price > service.MaxBasePrice:
				return fmt.Errorf("%s: price exceeds %d", id, service.MaxBasePrice)
			case v.DurationDays <= 0:
				return fmt.Errorf("%s: duration must be positive", id)
			}
			if _, ok := seen[id]; ok {
				return fmt.Errorf("%s: duplicate product", id)
			}
			seen[id] = struct{}{}
		}
	}
	return nil
}

// ProductID собирает идентификатор продукта из категории и варианта.
func ProductID(category, variant string) string {
	return category + "_" + variant
}

// Items разворачивает каталог в список продуктов для сервиса.
func (c *Catalog) Items() []service.ProductSpec {
	var res []service.ProductSpec
	for _, cat := range c.Categories {
		for _, v := range cat.Variants {
			name := v.Name
			if name == "" {
				name = v.ID
			}
			res = append(res, service.ProductSpec{
				ID:           ProductID(cat.ID, v.ID),
				Name:         cat.Name + " - " + name,
				BasePrice:    v.Price,
				DurationDays: v.DurationDays,
			})
		}
	}
	return res
}
