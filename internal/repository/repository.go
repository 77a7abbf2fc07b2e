// Package repository содержит драйверы постоянного хранилища документа магазина.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/keyshop/internal/model"
)

// ErrCorruptDocument возвращается, если сохранённый документ существует, но не читается.
var ErrCorruptDocument = errors.New("store document is corrupt")

// documentID задаёт ключ единственной строки документа в SQL-хранилищах.
const documentID = 1

// Driver описывает хранилище, способное загрузить и атомарно сохранить документ целиком.
type Driver interface {
	Load(ctx context.Context) (*model.Document, error)
	Save(ctx context.Context, doc *model.Document) error
	Close() error
}

// Open выбирает драйвер по адресу базы данных. Пустой адрес означает JSON-файл storePath.
func Open(ctx context.Context, databaseURI, storePath string) (Driver, error) {
	var (
		d   Driver
		err error
	)

	switch {
	case strings.HasPrefix(databaseURI, "postgres://"), strings.HasPrefix(databaseURI, "postgresql://"):
		var r *PostgresRepository
		if r, err = NewPostgresRepository(ctx, databaseURI); err == nil {
			d = r
		}
	case strings.HasPrefix(databaseURI, "sqlite://"), strings.HasPrefix(databaseURI, "file:"):
		var r *SQLiteRepository
		if r, err = NewSQLiteRepository(strings.TrimPrefix(databaseURI, "sqlite://")); err == nil {
			d = r
		}
	case databaseURI == "":
		var r *FileRepository
		if r, err = NewFileRepository(storePath); err == nil {
			d = r
		}
	default:
		err = fmt.Errorf("unsupported database uri scheme: %q", databaseURI)
	}

	if err != nil {
		return nil, err
	}
	return d, nil
}

func encodeDocument(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeDocument(data []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	doc.Normalize()

	if doc.PositionsMissing() {
		order, err := productOrder(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
		}
		doc.AssignPositions(order)
	}
	return &doc, nil
}

// productOrder возвращает идентификаторы продуктов в том порядке, в каком они записаны в документе.
func productOrder(data []byte) ([]string, error) {
	var raw struct {
		Products json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Products) == 0 || string(raw.Products) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Products))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected product key %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		order = append(order, id)
	}
	return order, nil
}
