package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickets(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.OpenTicket(ctx, "c1", "u1", "  key does not work ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, "key does not work", first.Reason)
	assert.Equal(t, testNow, first.CreatedAt)

	_, err = svc.OpenTicket(ctx, "c1", "u2", "again")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.OpenTicket(ctx, "c2", "u2", "   ")
	require.ErrorIs(t, err, ErrInvalidArgument)

	got, err := svc.GetTicket(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	closed, err := svc.CloseTicket(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, first, closed)

	_, err = svc.GetTicket(ctx, "c1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CloseTicket(ctx, "c1")
	require.ErrorIs(t, err, ErrNotFound)

	second, err := svc.OpenTicket(ctx, "c1", "u1", "reopened")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, int64(2), repo.lastSaved().TicketCounter)
}

func TestTicketCategory(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	ctx := context.Background()

	_, ok := svc.TicketCategory(ctx)
	assert.False(t, ok)

	require.ErrorIs(t, svc.SetTicketCategory(ctx, ""), ErrInvalidArgument)
	require.NoError(t, svc.SetTicketCategory(ctx, "123456"))

	id, ok := svc.TicketCategory(ctx)
	assert.True(t, ok)
	assert.Equal(t, "123456", id)
}
