package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceAfterDiscount(t *testing.T) {
	tests := []struct {
		name    string
		base    int64
		percent int
		want    int64
	}{
		{name: "no discount", base: 34, percent: 0, want: 34},
		{name: "negative treated as none", base: 34, percent: -5, want: 34},
		{name: "rounds up", base: 100, percent: 33, want: 67},
		{name: "half of odd", base: 7, percent: 50, want: 4},
		{name: "week with 20 percent", base: 34, percent: 20, want: 28},
		{name: "exact", base: 200, percent: 25, want: 150},
		{name: "full discount", base: 250, percent: 100, want: 0},
		{name: "free product", base: 0, percent: 10, want: 0},
		{name: "max int64 does not overflow", base: math.MaxInt64, percent: 10, want: 8301034833169298227},
		{name: "large price with remainder", base: math.MaxInt64 / 50, percent: 10, want: 166020696663385965},
		{name: "max allowed price", base: MaxBasePrice, percent: 1, want: 990_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceAfterDiscount(tt.base, tt.percent))
		})
	}
}

func TestGetOrCreateUser(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	u, err := svc.GetOrCreateUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", u.ID)
	assert.Zero(t, u.Credits)
	require.Len(t, repo.saved, 1)

	_, err = svc.GetOrCreateUser(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, repo.saved, 1, "existing user must not be saved again")

	_, err = svc.GetOrCreateUser(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetBalance_UnknownUserIsZeroAndNotCreated(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	b, err := svc.GetBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, b)
	assert.Empty(t, repo.saved)
}

func TestAddCredits(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	b, err := svc.AddCredits(ctx, "u", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), b.Credits)

	b, err = svc.AddCredits(ctx, "u", -20)
	require.NoError(t, err)
	assert.Equal(t, int64(30), b.Credits)

	_, err = svc.AddCredits(ctx, "u", -31)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	b, err = svc.GetBalance(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, int64(30), b.Credits)
	assert.Equal(t, int64(30), repo.lastSaved().Users["u"].Credits)
}

func TestAddCredits_Overflow(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	ctx := context.Background()

	_, err := svc.SetCredits(ctx, "rich", math.MaxInt64-1)
	require.NoError(t, err)

	_, err = svc.AddCredits(ctx, "rich", 5)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrInsufficientFunds)

	b, err := svc.GetBalance(ctx, "rich")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-1), b.Credits)

	_, err = svc.SetCredits(ctx, "debtor", -10)
	require.NoError(t, err)

	_, err = svc.AddCredits(ctx, "debtor", math.MinInt64)
	require.ErrorIs(t, err, ErrInvalidArgument)

	b, err = svc.GetBalance(ctx, "debtor")
	require.NoError(t, err)
	assert.Equal(t, int64(-10), b.Credits)
}

func TestSetCredits(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	ctx := context.Background()

	_, err := svc.AddCredits(ctx, "u", 500)
	require.NoError(t, err)

	b, err := svc.SetCredits(ctx, "u", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Credits)

	b, err = svc.SetCredits(ctx, "u", -10)
	require.NoError(t, err)
	assert.Equal(t, int64(-10), b.Credits)
}

func TestSetDiscount(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	ctx := context.Background()

	b, err := svc.SetDiscount(ctx, "u", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, b.DiscountPercent)

	for _, p := range []int{-1, 101} {
		_, err = svc.SetDiscount(ctx, "u", p)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	b, err = svc.GetBalance(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 25, b.DiscountPercent)
}
