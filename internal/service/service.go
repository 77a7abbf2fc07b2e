// Package service реализует учёт кредитов, склад ключей и проведение покупок.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmeshcher/keyshop/internal/model"
)

// DefaultMaxQuantity задаёт наибольшее число ключей в одной покупке по умолчанию.
const DefaultMaxQuantity = 10

// Repository описывает контракт хранилища документа, используемый сервисом.
type Repository interface {
	Load(ctx context.Context) (*model.Document, error)
	Save(ctx context.Context, doc *model.Document) error
	Close() error
}

// Clock задаёт источник текущего времени.
type Clock interface {
	Now() time.Time
}

// Random задаёт источник случайных чисел для номеров заказов.
type Random interface {
	IntN(n int) int
}

// Recorder получает события сервиса для метрик.
type Recorder interface {
	PurchaseCompleted(productID string, quantity int, total int64)
	PurchaseRejected(reason string)
	StockChanged(productID string, stock int)
}

// Option настраивает Service.
type Option func(*Service)

// WithClock задаёт источник времени.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRandom задаёт источник случайности для номеров заказов.
func WithRandom(r Random) Option {
	return func(s *Service) { s.random = r }
}

// WithRecorder задаёт получателя событий для метрик.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMaxQuantity задаёт наибольшее число ключей в одной покупке.
func WithMaxQuantity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxQuantity = n
		}
	}
}

// Service владеет документом магазина. Все изменения выполняются под одним мьютексом:
// копия документа → изменение → сохранение → публикация. Опубликованный документ
// не изменяется, поэтому чтение идёт без блокировки.
type Service struct {
	repo        Repository
	clock       Clock
	random      Random
	recorder    Recorder
	maxQuantity int

	mu  sync.Mutex
	doc atomic.Pointer[model.Document]
}

// NewService загружает документ из хранилища и создаёт сервис.
func NewService(ctx context.Context, repo Repository, opts ...Option) (*Service, error) {
	s := &Service{
		repo:        repo,
		clock:       systemClock{},
		random:      cryptoRandom{},
		recorder:    nopRecorder{},
		maxQuantity: DefaultMaxQuantity,
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	doc.Normalize()
	s.doc.Store(doc)

	return s, nil
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// MaxQuantity возвращает наибольшее число ключей в одной покупке.
func (s *Service) MaxQuantity() int {
	return s.maxQuantity
}

func (s *Service) snapshot() *model.Document {
	return s.doc.Load()
}

// update применяет fn к копии документа и публикует её только после успешного сохранения.
// Ошибка fn или хранилища оставляет опубликованный документ нетронутым.
func (s *Service) update(ctx context.Context, fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Load().Clone()
	if err := fn(next); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	s.doc.Store(next)
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type cryptoRandom struct{}

func (cryptoRandom) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return int(v.Int64())
}

type nopRecorder struct{}

func (nopRecorder) PurchaseCompleted(string, int, int64) {}
func (nopRecorder) PurchaseRejected(string) {}
func (nopRecorder) StockChanged(string, int) {}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
