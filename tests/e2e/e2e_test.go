//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"medispa/internal/config"
	"medispa/internal/infra"
	"medispa/internal/model"
	"medispa/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("medispa_test"),
		tcPostgres.WithUsername("medispa"),
		tcPostgres.WithPassword("medispa"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		StoragePath:        t.TempDir(),
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed the admin account
	hash, err := bcrypt.GenerateFromPassword([]byte("medispa2026"), 4)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Name: "Admin E2E", Email: "admin@e2e.test",
		PasswordHash: string(hash), Role: model.RoleAdmin, Active: true,
	}).Error)

	r := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": "admin@e2e.test", "password": "medispa2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

func (env *testEnv) createProduct(t *testing.T, name string, price float64, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"name": name, "price": price, "stock": stock, "kind": "physical_good",
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)
	return prod.ID
}

func (env *testEnv) createPatient(t *testing.T, name, email string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/patients",
		jsonBody(t, map[string]any{"name": name, "email": email}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var patient struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &patient)
	return patient.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Full cycle: product + patient → sale → stock decremented, points accrued.
func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)

	productID := env.createProduct(t, "Crema Hidratante", 25.0, 20)
	patientID := env.createPatient(t, "Elena Cruz", "elena@e2e.test")

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"patient_id":     patientID,
			"payment_method": "cash",
			"items":          []map[string]any{{"product_id": productID, "quantity": 2}},
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID           string  `json:"id"`
		Total        float64 `json:"total,string"`
		Status       string  `json:"status"`
		PointsEarned int     `json:"points_earned"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, "completed", sale.Status)
	assert.Equal(t, 50.0, sale.Total)
	assert.Equal(t, 5, sale.PointsEarned)

	// Stock went 20 → 18
	prodResp := do(t, env.server, "GET", "/v1/products/"+productID, nil, env.token)
	require.Equal(t, http.StatusOK, prodResp.StatusCode)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 18, prod.Stock)

	// Patient carries the accrued balance
	patientResp := do(t, env.server, "GET", "/v1/patients/"+patientID, nil, env.token)
	require.Equal(t, http.StatusOK, patientResp.StatusCode)
	var patient struct {
		LoyaltyPoints int     `json:"loyalty_points"`
		QRCode        *string `json:"qr_code"`
	}
	decodeJSON(t, patientResp, &patient)
	assert.Equal(t, 5, patient.LoyaltyPoints)
	require.NotNil(t, patient.QRCode)
	assert.Contains(t, *patient.QRCode, "PAT-")
}

// Oversell is rejected atomically: nothing is persisted.
func TestE2E_OversellRejected(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "Edición Limitada", 99.0, 1)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"payment_method": "card",
			"items":          []map[string]any{{"product_id": productID, "quantity": 3}},
		}), env.token)
	assert.Equal(t, http.StatusBadRequest, saleResp.StatusCode)
	saleResp.Body.Close()

	// Stock untouched
	prodResp := do(t, env.server, "GET", "/v1/products/"+productID, nil, env.token)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 1, prod.Stock)

	// No sale was recorded
	listResp := do(t, env.server, "GET", "/v1/sales", nil, env.token)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Zero(t, list.Total)
}

// Loyalty redemption over the balance fails and leaves the balance intact.
func TestE2E_LoyaltyRedemption(t *testing.T) {
	env := setupTestEnv(t)
	patientID := env.createPatient(t, "Paula Soto", "paula@e2e.test")

	addResp := do(t, env.server, "POST", fmt.Sprintf("/v1/patients/%s/loyalty/add", patientID),
		jsonBody(t, map[string]any{"points": 40}), env.token)
	require.Equal(t, http.StatusOK, addResp.StatusCode)
	addResp.Body.Close()

	overResp := do(t, env.server, "POST", fmt.Sprintf("/v1/patients/%s/loyalty/redeem", patientID),
		jsonBody(t, map[string]any{"points": 41}), env.token)
	assert.Equal(t, http.StatusBadRequest, overResp.StatusCode)
	overResp.Body.Close()

	okResp := do(t, env.server, "POST", fmt.Sprintf("/v1/patients/%s/loyalty/redeem", patientID),
		jsonBody(t, map[string]any{"points": 15}), env.token)
	require.Equal(t, http.StatusOK, okResp.StatusCode)
	var redeem struct {
		LoyaltyPoints int `json:"loyalty_points"`
	}
	decodeJSON(t, okResp, &redeem)
	assert.Equal(t, 25, redeem.LoyaltyPoints)
}

// Double-booking the same professional slot returns 409.
func TestE2E_AppointmentSlotConflict(t *testing.T) {
	env := setupTestEnv(t)

	staffResp := do(t, env.server, "POST", "/v1/auth/register-staff",
		jsonBody(t, map[string]any{
			"name": "Dra. Luque", "email": "luque@e2e.test",
			"password": "supersegura", "role": "doctor",
		}), env.token)
	require.Equal(t, http.StatusCreated, staffResp.StatusCode)
	staffResp.Body.Close()

	membersResp := do(t, env.server, "GET", "/v1/staff-members", nil, env.token)
	require.Equal(t, http.StatusOK, membersResp.StatusCode)
	var members []struct {
		ID string `json:"id"`
	}
	decodeJSON(t, membersResp, &members)
	require.NotEmpty(t, members)
	staffID := members[0].ID

	p1 := env.createPatient(t, "Turno Uno", "turno1@e2e.test")
	p2 := env.createPatient(t, "Turno Dos", "turno2@e2e.test")

	mkBody := func(pid string) *bytes.Buffer {
		return jsonBody(t, map[string]any{
			"patient_id": pid, "staff_member_id": staffID,
			"appointment_date": "2026-10-01", "appointment_time": "10:00",
			"service": "Consulta",
		})
	}

	first := do(t, env.server, "POST", "/v1/appointments", mkBody(p1), env.token)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	first.Body.Close()

	second := do(t, env.server, "POST", "/v1/appointments", mkBody(p2), env.token)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	second.Body.Close()
}

// Concurrent sales contending for the last units: the conditional decrement
// serializes them, stock never goes negative, and exactly stock-many succeed.
func TestE2E_ConcurrentReservations(t *testing.T) {
	env := setupTestEnv(t)

	const initialStock = 5
	const buyers = 12
	productID := env.createProduct(t, "Ampolla Última Unidad", 15.0, initialStock)

	var wg sync.WaitGroup
	var created, rejected atomic.Int32
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/sales",
				jsonBody(t, map[string]any{
					"payment_method": "cash",
					"items":          []map[string]any{{"product_id": productID, "quantity": 1}},
				}), env.token)
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusBadRequest:
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), created.Load())
	assert.Equal(t, int32(buyers-initialStock), rejected.Load())

	prodResp := do(t, env.server, "GET", "/v1/products/"+productID, nil, env.token)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 0, prod.Stock)

	listResp := do(t, env.server, "GET", "/v1/sales", nil, env.token)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, int64(initialStock), list.Total)
}

// Health reports connectivity and dead-letter queue depths.
func TestE2E_HealthReportsQueues(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		OK    bool             `json:"ok"`
		DB    string           `json:"db"`
		Redis string           `json:"redis"`
		DLQ   map[string]int64 `json:"dlq"`
	}
	decodeJSON(t, resp, &health)
	assert.True(t, health.OK)
	assert.Equal(t, "connected", health.DB)
	assert.Equal(t, "connected", health.Redis)
	assert.Zero(t, health.DLQ["jobs:receipt"])
	assert.Zero(t, health.DLQ["jobs:email"])
}

// Statistics only count completed sales.
func TestE2E_SalesStatistics(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "Sérum Vitamina C", 40.0, 10)

	for i := 0; i < 3; i++ {
		resp := do(t, env.server, "POST", "/v1/sales",
			jsonBody(t, map[string]any{
				"payment_method": "cash",
				"items":          []map[string]any{{"product_id": productID, "quantity": 1}},
			}), env.token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	statsResp := do(t, env.server, "GET", "/v1/sales-statistics", nil, env.token)
	require.Equal(t, http.StatusOK, statsResp.StatusCode)
	var stats struct {
		TotalSales float64 `json:"total_sales,string"`
		SalesCount int64   `json:"sales_count"`
	}
	decodeJSON(t, statsResp, &stats)
	assert.Equal(t, int64(3), stats.SalesCount)
	assert.Equal(t, 120.0, stats.TotalSales)
}
