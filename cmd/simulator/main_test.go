package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-rental/internal/db"
	"github.com/ukydev/fleet-rental/internal/handlers"
	"github.com/ukydev/fleet-rental/internal/models"
	"github.com/ukydev/fleet-rental/internal/rental"
)

func newAPI(t *testing.T) (*httptest.Server, *rental.Engine) {
	t.Helper()
	engine, err := rental.New(context.Background(), db.NewMemoryStore())
	require.NoError(t, err)
	mux := http.NewServeMux()
	handlers.NewRentalHandler(engine).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, engine
}

func TestClient_Flow(t *testing.T) {
	srv, _ := newAPI(t)
	client := NewClient(srv.URL + "/api/")
	ctx := context.Background()

	asset, err := client.AddAsset(ctx, handlers.AddAssetRequest{Brand: "Toyota", Model: "Corolla", Class: "economy", DailyRate: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), asset.ID)

	customer, err := client.RegisterCustomer(ctx, handlers.RegisterCustomerRequest{Name: "Ivan", LicenseNumber: "AB1234567"})
	require.NoError(t, err)

	start, _ := models.ParseDate("2025-01-10")
	end, _ := models.ParseDate("2025-01-15")
	available, err := client.FindAvailable(ctx, start, end, "economy")
	require.NoError(t, err)
	require.Len(t, available, 1)

	res, err := client.Reserve(ctx, customer.ID, asset.ID, start, end)
	require.NoError(t, err)
	_, err = client.Reserve(ctx, customer.ID, asset.ID, start.AddDate(0, 0, 4), end.AddDate(0, 0, 5))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	_, err = client.Start(ctx, res.ID)
	require.NoError(t, err)
	out, err := client.Return(ctx, res.ID, end, true, false)
	require.NoError(t, err)
	assert.Equal(t, "200.00", out.TotalAmount)

	_, err = client.Cancel(ctx, res.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestSimulator_Run(t *testing.T) {
	level := log.GetLevel()
	log.SetLevel(log.WarnLevel)
	defer log.SetLevel(level)

	srv, engine := newAPI(t)
	ctx := context.Background()
	sim := NewSimulator(NewClient(srv.URL+"/api"), rand.New(rand.NewSource(42)), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, sim.Setup(ctx, 6, 3))
	assert.Len(t, engine.ListAssets(), 6)
	assert.Len(t, engine.ListCustomers(), 3)

	for i := 0; i < 80; i++ {
		require.NoError(t, sim.Step(ctx), "step %d", i)
	}

	// the simulator's view matches the engine
	live := engine.ActiveReservations()
	assert.Len(t, live, len(sim.booked)+len(sim.active))
	active := 0
	for _, r := range live {
		if r.Status == models.ReservationActive {
			active++
		}
	}
	assert.Equal(t, len(sim.active), active)
}

func TestSetup_APIDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sim := NewSimulator(NewClient(srv.URL), rand.New(rand.NewSource(1)), time.Now())
	err := sim.Setup(context.Background(), 1, 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SIM_TEST_VALUE", "12")
	assert.Equal(t, 12, envInt("SIM_TEST_VALUE", 3))
	t.Setenv("SIM_TEST_VALUE", "abc")
	assert.Equal(t, 3, envInt("SIM_TEST_VALUE", 3))
	t.Setenv("SIM_TEST_VALUE", "-1")
	assert.Equal(t, 3, envInt("SIM_TEST_VALUE", 3))
}
