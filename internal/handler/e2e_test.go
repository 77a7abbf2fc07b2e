package handler

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/keyshop/internal/metrics"
	"github.com/mmeshcher/keyshop/internal/middleware"
	"github.com/mmeshcher/keyshop/internal/repository"
	"github.com/mmeshcher/keyshop/internal/service"
)

func TestStorefrontFlow(t *testing.T) {
	ctx := context.Background()

	repo, err := repository.NewFileRepository(filepath.Join(t.TempDir(), "database.json"))
	require.NoError(t, err)

	m := metrics.New()
	svc, err := service.NewService(ctx, repo, service.WithRecorder(m))
	require.NoError(t, err)
	defer svc.Close()

	h := NewHandler(svc, zap.NewNop(), middleware.NewAuthMiddleware("e2e", []string{adminID}), m)

	rec := doRequest(t, h, adminID, http.MethodPut, "/api/admin/products/r6_week", `{"name":"R6 Full - 1 Week","base_price":34,"duration_days":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, adminID, http.MethodPost, "/api/admin/products/r6_week/keys", "W1\n\n W2 \nW3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"product_id":"r6_week","added":3,"stock":3}`, rec.Body.String())

	rec = doRequest(t, h, adminID, http.MethodPost, "/api/admin/users/7/credits", `{"amount":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, h, adminID, http.MethodPut, "/api/admin/users/7/discount", `{"percent":20}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, "7", http.MethodPost, "/api/purchase", `{"product_id":"r6_week","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res service.PurchaseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"W1", "W2"}, res.Keys)
	assert.Equal(t, int64(56), res.Total)
	assert.Equal(t, int64(44), res.Balance)

	rec = doRequest(t, h, "7", http.MethodPost, "/api/purchase", `{"product_id":"r6_week","quantity":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, h, "7", http.MethodGet, "/api/orders/"+res.OrderID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, "8", http.MethodGet, "/api/orders/"+res.OrderID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, h, "", http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `keyshop_purchases_total{product="r6_week"} 1`)
	assert.Contains(t, rec.Body.String(), `keyshop_purchase_rejections_total{reason="insufficient_stock"} 1`)

	reloaded, err := repository.NewFileRepository(repo.Path())
	require.NoError(t, err)
	doc, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"W3"}, doc.Products["r6_week"].Keys)
	assert.Equal(t, int64(44), doc.Users["7"].Credits)
	assert.Contains(t, doc.Orders, res.OrderID)
}

func TestMetricsScrapeWithGzip(t *testing.T) {
	m := metrics.New()
	m.StockChanged("r6_week", 3)
	h := NewHandler(&stubService{}, zap.NewNop(), middleware.NewAuthMiddleware("e2e", nil), m)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gr)
	require.NoError(t, err)

	assert.Contains(t, string(body), `keyshop_stock_keys{product="r6_week"} 3`)
}
