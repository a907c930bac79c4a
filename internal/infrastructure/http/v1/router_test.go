package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mams/internal/app"
	appctx "mams/internal/core/context"
	"mams/internal/core/types"
	"mams/internal/domain/auth"
	"mams/internal/domain/base"
	v1 "mams/internal/infrastructure/http/v1"
	"mams/internal/infrastructure/metrics"
	"mams/internal/infrastructure/storage/memory"
	"mams/pkg/logger"
)

const testSecret = "router-test-secret-0123456789abcdef"

type api struct {
	router      *gin.Engine
	jwt         *auth.JWTService
	alpha, beta int64
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.New()
	clock := types.FixedClock(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
	m := metrics.New()

	svc, err := app.NewServices(app.MemoryBackend(store), app.Options{Clock: clock, Observer: m})
	require.NoError(t, err)

	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig(testSecret))
	router := v1.NewRouter(v1.RouterConfig{
		Services:     svc,
		Logger:       logger.Nop(),
		JWTValidator: jwtSvc,
		Metrics:      m,
		StoreName:    "memory",
		Mode:         gin.TestMode,
	})

	admin := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "seed", Role: "admin"})
	alpha := &base.Base{Name: "Alpha", Code: "ALPHA"}
	require.NoError(t, svc.Bases.Create(admin, alpha))
	beta := &base.Base{Name: "Beta", Code: "BETA"}
	require.NoError(t, svc.Bases.Create(admin, beta))

	return &api{router: router, jwt: jwtSvc, alpha: alpha.ID, beta: beta.ID}
}

func (a *api) token(t *testing.T, role string, baseID *int64) string {
	t.Helper()
	tok, _, err := a.jwt.GenerateAccessToken(auth.Identity{UserID: role + "-user", Role: role, BaseID: baseID}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"memory": "healthy"}, decode(t, w)["checks"])
}

func TestAuthRequired(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/api/v1/bases", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])

	w = a.do(t, http.MethodGet, "/api/v1/bases", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRifleScenarioOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := a.token(t, "admin", nil)

	w := a.do(t, http.MethodPost, "/api/v1/purchases", admin, map[string]any{
		"item": "Rifle", "quantity": 100, "price": "450.00", "baseName": "Alpha",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "Alpha", created["baseName"])
	assert.Equal(t, "2025-03-10", created["date"])

	w = a.do(t, http.MethodPost, "/api/v1/assignments", admin, map[string]any{
		"item": "Rifle", "quantity": 30, "baseLocation": "Alpha", "personnel": "Sgt. Stone",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Alpha", decode(t, w)["baseLocation"])

	w = a.do(t, http.MethodPost, "/api/v1/expenditures", admin, map[string]any{
		"item": "Rifle", "quantity": 80, "baseId": a.alpha,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	details := body["details"].(map[string]any)
	assert.EqualValues(t, 70, details["available"])
	assert.EqualValues(t, 80, details["requested"])
	assert.Equal(t, "Alpha", details["baseName"])

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/balance?item=Rifle&baseId=%d", a.alpha), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 70, decode(t, w)["available"])

	w = a.do(t, http.MethodGet, "/api/v1/expenditures", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])
}

func TestRolePolicy(t *testing.T) {
	a := newAPI(t)
	admin := a.token(t, "admin", nil)
	commander := a.token(t, "base_commander", &a.beta)
	logistics := a.token(t, "logistics", &a.alpha)

	w := a.do(t, http.MethodPost, "/api/v1/purchases", logistics, map[string]any{"item": "Radio", "quantity": 1})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, w)["code"])

	w = a.do(t, http.MethodPost, "/api/v1/purchases", commander, map[string]any{
		"item": "Radio", "quantity": 1, "baseId": a.alpha,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN_SCOPE", decode(t, w)["code"])

	w = a.do(t, http.MethodPost, "/api/v1/purchases", commander, map[string]any{"item": "Radio", "quantity": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int64(decode(t, w)["id"].(float64))

	w = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/purchases/%d", id), commander, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/purchases", logistics, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"], "logistics at Alpha must not see Beta purchases")

	w = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/purchases/%d", id), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestTransferEndpoints(t *testing.T) {
	a := newAPI(t)
	admin := a.token(t, "admin", nil)

	w := a.do(t, http.MethodPost, "/api/v1/purchases", admin, map[string]any{
		"item": "Helmet", "quantity": 10, "baseId": a.alpha, "date": "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/v1/transfers", admin, map[string]any{
		"item": "Helmet", "quantity": 4, "fromBase": "Alpha", "toBase": "Beta",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "Alpha", created["sourceLocation"])
	assert.Equal(t, "Beta", created["destinationLocation"])
	assert.Equal(t, map[string]any{"beforeTransfer": 10.0, "afterTransfer": 6.0, "transferred": 4.0}, created["stockInfo"])

	w = a.do(t, http.MethodPost, "/api/v1/transfers", admin, map[string]any{
		"item": "Helmet", "quantity": 1, "sourceBaseId": a.alpha, "destinationBaseId": a.alpha,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICTING_REFERENCE", decode(t, w)["code"])

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/transfers/items/available?baseId=%d", a.beta), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{map[string]any{"item": "Helmet", "available": 4.0}}, decode(t, w)["items"])

	w = a.do(t, http.MethodGet, "/api/v1/transfers/stock/current?base=Alpha&item=Helmet", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 6, decode(t, w)["currentStock"])

	w = a.do(t, http.MethodGet, "/api/v1/transfers/stock/current?base=Alpha", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/transfers/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 1, stats["totalTransfers"])
	assert.Equal(t, map[string]any{"Alpha": 4.0, "Beta": -4.0}, stats["byBase"])

	w = a.do(t, http.MethodGet, "/api/v1/transfers/items/filter", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Helmet"}, decode(t, w)["items"])
}

func TestAvailableRequiresBaseForAdmin(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, http.MethodGet, "/api/v1/expenditures/items/available", a.token(t, "admin", nil), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	w = a.do(t, http.MethodGet, "/api/v1/expenditures/items/available", a.token(t, "logistics", &a.alpha), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["items"])
}

func TestDashboardSummary(t *testing.T) {
	a := newAPI(t)
	admin := a.token(t, "admin", nil)

	for _, body := range []map[string]any{
		{"item": "Fuel", "quantity": 100, "baseId": a.alpha, "date": "2025-01-05"},
		{"item": "Fuel", "quantity": 20, "baseId": a.alpha, "date": "2025-03-02"},
	} {
		w := a.do(t, http.MethodPost, "/api/v1/purchases", admin, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := a.do(t, http.MethodPost, "/api/v1/expenditures", admin, map[string]any{
		"item": "Fuel", "quantity": 15, "baseId": a.alpha, "date": "2025-03-03",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/v1/dashboard/summary?base=Alpha&item=Fuel&startDate=2025-03-01&endDate=2025-03-10", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s := decode(t, w)
	assert.EqualValues(t, 100, s["opening"])
	assert.EqualValues(t, 20, s["purchases"])
	assert.EqualValues(t, 15, s["expended"])
	assert.EqualValues(t, 105, s["closing"])
	assert.EqualValues(t, 20, s["netMovement"])

	w = a.do(t, http.MethodGet, "/api/v1/dashboard/summary?startDate=2025-03-10&endDate=2025-03-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/dashboard/summary?startDate=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/dashboard/net-movement?base=Alpha&startDate=2025-03-01", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	nm := decode(t, w)
	assert.Len(t, nm["purchases"], 1)
	assert.Equal(t, []any{}, nm["transfersIn"])
}

func TestPersonnelAndAudit(t *testing.T) {
	a := newAPI(t)
	admin := a.token(t, "admin", nil)

	w := a.do(t, http.MethodGet, "/api/v1/assignments/personnel/list", a.token(t, "base_commander", &a.alpha), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["items"])

	w = a.do(t, http.MethodGet, "/api/v1/audit?resourceType=base", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 2)

	w = a.do(t, http.MethodGet, "/api/v1/audit", a.token(t, "base_commander", &a.alpha), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBadRequests(t *testing.T) {
	a := newAPI(t)
	admin := a.token(t, "admin", nil)

	w := a.do(t, http.MethodGet, "/api/v1/purchases/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/purchases/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/purchases", admin, map[string]any{
		"item": "Rifle", "quantity": 1, "baseName": "Zulu",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMutations_ValidateBeforeResolvingBases(t *testing.T) {
	a := newAPI(t)
	admin := a.token(t, "admin", nil)
	commander := a.token(t, "base_commander", &a.beta)

	w := a.do(t, http.MethodPost, "/api/v1/expenditures", admin, map[string]any{
		"item": "", "quantity": 0, "baseName": "Nowhere",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	w = a.do(t, http.MethodPost, "/api/v1/transfers", admin, map[string]any{
		"item": "Rifle", "quantity": -3, "fromBase": "Nowhere", "toBase": "Beta",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = a.do(t, http.MethodPut, "/api/v1/expenditures/999", admin, map[string]any{
		"quantity": 0, "baseName": "Nowhere",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/v1/purchases", admin, map[string]any{
		"item": "Rifle", "quantity": 1, "price": "-1", "baseName": "Nowhere",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// Valid shape, unknown base: admins learn the base does not exist.
	w = a.do(t, http.MethodPost, "/api/v1/expenditures", admin, map[string]any{
		"item": "Rifle", "quantity": 1, "baseName": "Nowhere",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, body := range []map[string]any{
		{"item": "Rifle", "quantity": 1, "baseName": "Nowhere"},
		{"item": "Rifle", "quantity": 1, "baseName": "Alpha"},
		{"item": "Rifle", "quantity": 1, "baseId": 999},
	} {
		w = a.do(t, http.MethodPost, "/api/v1/expenditures", commander, body)
		require.Equal(t, http.StatusForbidden, w.Code, "%v: %s", body, w.Body.String())
		assert.Equal(t, "FORBIDDEN_SCOPE", decode(t, w)["code"])
	}

	w = a.do(t, http.MethodPost, "/api/v1/transfers", commander, map[string]any{
		"item": "Rifle", "quantity": 1, "fromBase": "Nowhere", "toBase": "Alpha",
	})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, "FORBIDDEN_SCOPE", decode(t, w)["code"])

	w = a.do(t, http.MethodPost, "/api/v1/purchases", commander, map[string]any{
		"item": "Rifle", "quantity": 5, "baseName": "Beta",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int64(decode(t, w)["id"].(float64))

	w = a.do(t, http.MethodPut, fmt.Sprintf("/api/v1/purchases/%d", id), commander, map[string]any{"baseName": "Alpha"})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, "FORBIDDEN_SCOPE", decode(t, w)["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.do(t, http.MethodGet, "/health/live", "", nil)

	w := a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `mams_http_requests_total{method="GET",route="/health/live",status="200"} 1`)
}
