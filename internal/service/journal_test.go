package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/keyshop/internal/model"
)

func TestGetOrder_CaseInsensitive(t *testing.T) {
	doc := model.NewDocument()
	doc.Orders["ABCD1234"] = &model.Order{ID: "ABCD1234", UserID: "u", Keys: []string{"K"}}
	svc := newTestService(t, &stubRepo{loadDoc: doc})
	ctx := context.Background()

	o, err := svc.GetOrder(ctx, " abcd1234 ")
	require.NoError(t, err)
	assert.Equal(t, "u", o.UserID)

	_, err = svc.GetOrder(ctx, "FFFFFFFF")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders_NewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := model.NewDocument()
	doc.Orders["00000001"] = &model.Order{ID: "00000001", UserID: "u", CreatedAt: base}
	doc.Orders["00000003"] = &model.Order{ID: "00000003", UserID: "u", CreatedAt: base.Add(time.Hour)}
	doc.Orders["00000002"] = &model.Order{ID: "00000002", UserID: "u", CreatedAt: base.Add(time.Hour)}
	doc.Orders["00000004"] = &model.Order{ID: "00000004", UserID: "other", CreatedAt: base.Add(2 * time.Hour)}
	svc := newTestService(t, &stubRepo{loadDoc: doc})

	orders, err := svc.ListOrders(context.Background(), "u")
	require.NoError(t, err)

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"00000002", "00000003", "00000001"}, ids)
}

func TestOrdersAreSnapshots(t *testing.T) {
	svc := newTestService(t, &stubRepo{loadDoc: seedDocument()})
	ctx := context.Background()

	_, err := svc.AddCredits(ctx, "u", 100)
	require.NoError(t, err)
	res, err := svc.Purchase(ctx, "u", "r6_day", 1)
	require.NoError(t, err)

	_, err = svc.UpsertProduct(ctx, ProductSpec{ID: "r6_day", Name: "Renamed", BasePrice: 99, DurationDays: 2})
	require.NoError(t, err)

	o, err := svc.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "R6 Full - Day", o.ProductName)
	assert.Equal(t, int64(7), o.UnitPrice)

	o.Keys[0] = "tampered"
	again, err := svc.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "D1", again.Keys[0])
}

func TestListRedeemedKeys_UnknownUser(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	keys, err := svc.ListRedeemedKeys(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
