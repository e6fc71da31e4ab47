package rental

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-rental/internal/db"
	"github.com/ukydev/fleet-rental/internal/events"
	"github.com/ukydev/fleet-rental/internal/models"
)

func init() {
	log.SetLevel(log.WarnLevel)
}

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func newTestEngine(t *testing.T) (*Engine, *db.MemoryStore) {
	t.Helper()
	gw := db.NewMemoryStore()
	e, err := New(context.Background(), gw)
	require.NoError(t, err)
	return e, gw
}

// seed registers one customer and one asset with the given rate.
func seed(t *testing.T, e *Engine, dailyRate string) (models.Customer, models.Asset) {
	t.Helper()
	ctx := context.Background()
	c, err := e.RegisterCustomer(ctx, "Ivan", "AB1234567", "+7-707-777-22-33")
	require.NoError(t, err)
	a, err := e.AddAsset(ctx, "Toyota", "Corolla", "economy", rate(dailyRate))
	require.NoError(t, err)
	return c, a
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Load(ctx context.Context) (models.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Snapshot), args.Error(1)
}

func (m *MockGateway) Save(ctx context.Context, snap models.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
