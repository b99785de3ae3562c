package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/sbilibin2017/bank-ledger/internal/config"
	"github.com/sbilibin2017/bank-ledger/internal/jwt"
	"github.com/sbilibin2017/bank-ledger/internal/repositories"
)

func TestPrintBuildInfo_Output(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2025-09-26"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	output := buf.String()
	assert.Contains(t, output, "Version: v1.0.0")
	assert.Contains(t, output, "Commit: abcd1234")
	assert.Contains(t, output, "Build date: 2025-09-26")
}

func TestMigrateCmd_Usage(t *testing.T) {
	cmd := &migrateCmd{}
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-c", "custom.env", "sideways"}))

	assert.Equal(t, "custom.env", cmd.configPath)
	assert.Equal(t, subcommands.ExitUsageError, cmd.Execute(t.Context(), fs))
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := &serveCmd{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, "config.env", cmd.configPath)
	assert.Equal(t, "serve", cmd.Name())
}

func TestNewLoginLimiter(t *testing.T) {
	_, _, err := newLoginLimiter(t.Context(), &config.Config{LoginRateLimit: "lots"})
	assert.ErrorContains(t, err, "LOGIN_RATE_LIMIT")

	l, closeFn, err := newLoginLimiter(t.Context(), &config.Config{LoginRateLimit: "5-M"})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, int64(5), l.Rate.Limit)
	assert.Equal(t, time.Minute, l.Rate.Period)
}

func TestOpenServices_Memory(t *testing.T) {
	ledger, directory, closeFn, err := openServices(t.Context(), &config.Config{StoreDriver: config.DriverMemory}, nil)
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, ledger)
	assert.NotNil(t, directory)
}

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func (c apiClient) do(method, path, token string, body any) (int, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func newTestAPI(t *testing.T, loginsPerMinute int64) apiClient {
	store := repositories.NewMemoryStore()
	tokens := jwt.New(jwt.WithSecretKey("test-secret"), jwt.WithExpiration(time.Hour))
	ledger, directory := newMemoryServices(store, nil, tokens)

	srv := httptest.NewServer(newRouter(routerDeps{
		ledger:       ledger,
		directory:    directory,
		tokens:       tokens,
		loginLimiter: limiter.New(memory.NewStore(), limiter.Rate{Period: time.Minute, Limit: loginsPerMinute}),
		swaggerURL:   "/swagger/doc.json",
	}))
	t.Cleanup(srv.Close)
	return apiClient{t: t, srv: srv}
}

func TestRouter_LedgerFlow(t *testing.T) {
	api := newTestAPI(t, 100)

	status, alice := api.do(http.MethodPost, "/signup", "", map[string]string{"name": "Alice Smith", "email": "alice@example.com"})
	require.Equal(t, http.StatusCreated, status)
	status, bob := api.do(http.MethodPost, "/signup", "", map[string]string{"name": "Bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusCreated, status)

	aliceAcc := int64(alice["account_no"].(float64))
	bobAcc := int64(bob["account_no"].(float64))
	assert.Equal(t, int64(100000011), aliceAcc)
	assert.Equal(t, int64(100000012), bobAcc)
	assert.Equal(t, "alicesmith1", alice["username"])

	status, login := api.do(http.MethodPost, "/login", "", map[string]any{"username": alice["username"], "password": alice["password"]})
	require.Equal(t, http.StatusOK, status)
	token := login["token"].(string)

	accountPath := func(no int64, op string) string { return fmt.Sprintf("/accounts/%d/%s", no, op) }

	status, _ = api.do(http.MethodPost, accountPath(aliceAcc, "deposit"), token, map[string]string{"amount": "500.00"})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodPost, accountPath(aliceAcc, "withdraw"), token, map[string]string{"amount": "200.00"})
	require.Equal(t, http.StatusOK, status)
	status, transfer := api.do(http.MethodPost, accountPath(aliceAcc, "transfer"), token, map[string]any{"to_account": bobAcc, "amount": "100.00"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Transfer", transfer["debit"].(map[string]any)["type"])
	assert.Equal(t, "Deposit", transfer["credit"].(map[string]any)["type"])

	status, balance := api.do(http.MethodGet, accountPath(aliceAcc, "balance"), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "200.00", balance["balance"])

	status, history := api.do(http.MethodGet, accountPath(aliceAcc, "transactions"), token, nil)
	require.Equal(t, http.StatusOK, status)
	txns := history["transactions"].([]any)
	require.Len(t, txns, 3)
	assert.Equal(t, "Transfer", txns[0].(map[string]any)["type"])
	assert.Equal(t, "Deposit", txns[2].(map[string]any)["type"])

	status, _ = api.do(http.MethodPost, accountPath(aliceAcc, "withdraw"), token, map[string]string{"amount": "200.01"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = api.do(http.MethodPost, accountPath(aliceAcc, "deposit"), token, map[string]string{"amount": "1.005"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(http.MethodPost, accountPath(aliceAcc, "transfer"), token, map[string]any{"to_account": aliceAcc, "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(http.MethodPost, accountPath(aliceAcc, "transfer"), token, map[string]any{"to_account": 999, "amount": "1"})
	assert.Equal(t, http.StatusNotFound, status)

	// Bob's account is not Alice's to touch
	status, _ = api.do(http.MethodGet, accountPath(bobAcc, "balance"), token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(http.MethodGet, accountPath(aliceAcc, "balance"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = api.do(http.MethodGet, "/accounts/abc/balance", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, accounts := api.do(http.MethodGet, "/accounts", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, accounts["accounts"].([]any), 1)

	status, _ = api.do(http.MethodDelete, "/customers/me", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = api.do(http.MethodPost, accountPath(aliceAcc, "withdraw"), token, map[string]string{"amount": "200"})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodDelete, "/customers/me", token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, accountPath(aliceAcc, "balance"), token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRouter_LoginRateLimit(t *testing.T) {
	api := newTestAPI(t, 2)
	creds := map[string]string{"username": "nobody1", "password": "wrong"}

	for i := 0; i < 2; i++ {
		status, _ := api.do(http.MethodPost, "/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, _ := api.do(http.MethodPost, "/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestRouter_Metrics(t *testing.T) {
	api := newTestAPI(t, 10)
	status, _ := api.do(http.MethodPost, "/signup", "", map[string]string{"name": "Carol", "email": "carol@example.com"})
	require.Equal(t, http.StatusCreated, status)

	resp, err := api.srv.Client().Get(api.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `ledger_http_requests_total{method="POST",route="/signup",status="201"}`))
	assert.Contains(t, string(body), "ledger_operations_total")
}

func TestLoadConfig_WritesLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=memory\nAPP_LOG_LEVEL=warn\n"), 0o600))
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_LOG_LEVEL", "")
	os.Unsetenv("STORE_DRIVER")
	os.Unsetenv("APP_LOG_LEVEL")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "warn", cfg.LogLevel)
}
