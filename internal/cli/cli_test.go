package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/keyshop/internal/middleware"
	"github.com/mmeshcher/keyshop/internal/model"
	"github.com/mmeshcher/keyshop/internal/repository"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"DATABASE_URI", "STORE_PATH", "AUTH_SECRET", "CATALOG_PATH", "MAX_PURCHASE_QUANTITY", "ADMIN_USER_IDS"} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "database.json")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "keyshopctl", cmd.Use)

	for _, name := range []string{"token", "products", "restock", "credits", "discount", "orders", "catalog"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	store := isolateEnv(t)

	_, err := runCLI(t, "", "products", "--store", store, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestToken(t *testing.T) {
	isolateEnv(t)

	out, err := runCLI(t, "", "token", "42", "--secret", "s3cret")
	require.NoError(t, err)

	userID, ok := middleware.NewAuthMiddleware("s3cret", nil).ParseToken(strings.TrimSpace(out))
	assert.True(t, ok)
	assert.Equal(t, "42", userID)

	_, err = runCLI(t, "", "token", "42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTokenFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AUTH_SECRET", "env-secret")

	out, err := runCLI(t, "", "token", "7", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	userID, ok := middleware.NewAuthMiddleware("env-secret", nil).ParseToken(resp.Data["token"])
	assert.True(t, ok)
	assert.Equal(t, "7", userID)
}

func TestRestockAndProducts(t *testing.T) {
	store := isolateEnv(t)

	out, err := runCLI(t, "K1\n\n  K2  \nK3\n", "restock", "r6_week", "--name", "R6 Full - 1 Week", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "added 3 keys to r6_week, stock 3")

	keysFile := filepath.Join(t.TempDir(), "keys.txt")
	require.NoError(t, writeFile(keysFile, "K4\nK5"))
	_, err = runCLI(t, "", "restock", "r6_week", keysFile, "--store", store)
	require.NoError(t, err)

	out, err = runCLI(t, "", "products", "--store", store, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Stock int    `json:"stock"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "R6 Full - 1 Week", resp.Data[0].Name)
	assert.Equal(t, 5, resp.Data[0].Stock)

	_, err = runCLI(t, "\n \n", "restock", "r6_week", "--store", store)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCredits(t *testing.T) {
	store := isolateEnv(t)

	out, err := runCLI(t, "", "credits", "add", "u1", "100", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "user u1: 100 credits")

	out, err = runCLI(t, "", "credits", "set", "u1", "30", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "user u1: 30 credits")

	_, err = runCLI(t, "", "credits", "add", "--store", store, "--", "u1", "-31")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = runCLI(t, "", "credits", "add", "u1", "lots", "--store", store)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDiscount(t *testing.T) {
	store := isolateEnv(t)

	out, err := runCLI(t, "", "discount", "u1", "20", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "discount 20%")

	_, err = runCLI(t, "", "discount", "u1", "150", "--store", store)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCatalog(t *testing.T) {
	store := isolateEnv(t)

	out, err := runCLI(t, "", "catalog", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "synced 10 products")

	out, err = runCLI(t, "", "products", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "fn_life")
	assert.Contains(t, out, "lifetime")
}

func TestOrders(t *testing.T) {
	store := isolateEnv(t)

	created := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	doc := model.NewDocument()
	doc.Orders["AB12CD34"] = &model.Order{ID: "AB12CD34", UserID: "u1", ProductID: "r6_day", Keys: []string{"K1"}, Quantity: 1, UnitPrice: 7, TotalPrice: 7, CreatedAt: created}

	repo, err := repository.NewFileRepository(store)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), doc))

	out, err := runCLI(t, "", "orders", "u1", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "AB12CD34")
	assert.Contains(t, out, "2026-04-01 09:30")

	out, err = runCLI(t, "", "orders", "--id", "ab12cd34", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "keys=K1")

	_, err = runCLI(t, "", "orders", "--id", "FFFFFFFF", "--store", store)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = runCLI(t, "", "orders", "--store", store)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCorruptStore(t *testing.T) {
	store := isolateEnv(t)
	require.NoError(t, writeFile(store, "{not json"))

	_, err := runCLI(t, "", "products", "--store", store)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, repository.ErrCorruptDocument)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", assert.AnError)))
}
