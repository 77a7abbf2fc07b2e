package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/keyshop/internal/model"
)

// OpenTicket регистрирует обращение в канале channelID и присваивает ему следующий номер.
func (s *Service) OpenTicket(ctx context.Context, channelID, creatorID, reason string) (model.Ticket, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case channelID == "":
		return model.Ticket{}, fmt.Errorf("%w: empty channel id", ErrInvalidArgument)
	case creatorID == "":
		return model.Ticket{}, fmt.Errorf("%w: empty creator id", ErrInvalidArgument)
	case reason == "":
		return model.Ticket{}, fmt.Errorf("%w: empty reason", ErrInvalidArgument)
	}

	var res model.Ticket
	err := s.update(ctx, func(doc *model.Document) error {
		if _, ok := doc.Tickets[channelID]; ok {
			return fmt.Errorf("%w: channel %s already has a ticket", ErrInvalidArgument, channelID)
		}
		doc.TicketCounter++
		t := &model.Ticket{
			ChannelID: channelID,
			Number:    doc.TicketCounter,
			CreatorID: creatorID,
			Reason:    reason,
			CreatedAt: s.clock.Now(),
		}
		doc.Tickets[channelID] = t
		res = *t
		return nil
	})
	if err != nil {
		return model.Ticket{}, err
	}
	return res, nil
}

// GetTicket возвращает обращение, привязанное к каналу.
func (s *Service) GetTicket(ctx context.Context, channelID string) (model.Ticket, error) {
	t, ok := s.snapshot().Tickets[channelID]
	if !ok {
		return model.Ticket{}, fmt.Errorf("ticket %s: %w", channelID, ErrNotFound)
	}
	return *t, nil
}

// CloseTicket удаляет обращение. Счётчик номеров не уменьшается.
func (s *Service) CloseTicket(ctx context.Context, channelID string) (model.Ticket, error) {
	var res model.Ticket
	err := s.update(ctx, func(doc *model.Document) error {
		t, ok := doc.Tickets[channelID]
		if !ok {
			return fmt.Errorf("ticket %s: %w", channelID, ErrNotFound)
		}
		res = *t
		delete(doc.Tickets, channelID)
		return nil
	})
	if err != nil {
		return model.Ticket{}, err
	}
	return res, nil
}

// TicketCategory возвращает категорию каналов для обращений, если она задана.
func (s *Service) TicketCategory(ctx context.Context) (string, bool) {
	c := s.snapshot().TicketCategory
	if c == nil {
		return "", false
	}
	return *c, true
}

// SetTicketCategory задаёт категорию каналов для обращений.
func (s *Service) SetTicketCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return fmt.Errorf("%w: empty category id", ErrInvalidArgument)
	}
	return s.update(ctx, func(doc *model.Document) error {
		doc.TicketCategory = &categoryID
		return nil
	})
}
