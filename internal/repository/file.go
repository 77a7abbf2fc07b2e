package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmeshcher/keyshop/internal/model"
)

// FileRepository хранит документ в JSON-файле.
// Запись идёт во временный файл рядом с целевым и завершается переименованием,
// поэтому сбой во время сохранения оставляет предыдущую версию.
type FileRepository struct {
	path string
}

// NewFileRepository создаёт файловое хранилище по указанному пути.
func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	return &FileRepository{path: path}, nil
}

// Path возвращает путь к файлу документа.
func (r *FileRepository) Path() string {
	return r.path
}

// Load читает документ. Отсутствующий файл создаётся с пустым документом,
// любая другая ошибка чтения или разбора возвращается вызывающему.
func (r *FileRepository) Load(ctx context.Context) (*model.Document, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := model.NewDocument()
		if err := r.Save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	return decodeDocument(data)
}

// Save атомарно перезаписывает файл документа.
func (r *FileRepository) Save(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}

// Close ничего не делает: файл не держится открытым между операциями.
func (r *FileRepository) Close() error {
	return nil
}
