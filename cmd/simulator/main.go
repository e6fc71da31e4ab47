package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-rental/internal/handlers"
	"github.com/ukydev/fleet-rental/internal/models"
)

// fleetCatalog lists the vehicles the simulator registers, by class.
var fleetCatalog = []handlers.AddAssetRequest{
	{Brand: "Toyota", Model: "Corolla", Class: "economy"},
	{Brand: "Kia", Model: "Rio", Class: "economy"},
	{Brand: "Hyundai", Model: "Tucson", Class: "suv"},
	{Brand: "BMW", Model: "3 Series", Class: "business"},
	{Brand: "Mercedes", Model: "E-Class", Class: "business"},
	{Brand: "Skoda", Model: "Octavia", Class: "standard"},
}

var classRates = map[string][2]int{
	"economy":  {30, 50},
	"standard": {45, 70},
	"suv":      {70, 110},
	"business": {90, 150},
}

var customerNames = []string{"Aigerim", "Ivan", "Maria", "Daniyar", "Olga", "Timur", "Elena", "Arman"}

// APIError is a non-2xx answer from the rental API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// Client calls the rental HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for baseURL, e.g. http://localhost:8080/api.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// AddAsset registers a vehicle.
func (c *Client) AddAsset(ctx context.Context, req handlers.AddAssetRequest) (handlers.AssetResponse, error) {
	var out handlers.AssetResponse
	err := c.do(ctx, http.MethodPost, "/assets", req, &out)
	return out, err
}

// RegisterCustomer registers a renter.
func (c *Client) RegisterCustomer(ctx context.Context, req handlers.RegisterCustomerRequest) (models.Customer, error) {
	var out models.Customer
	err := c.do(ctx, http.MethodPost, "/customers", req, &out)
	return out, err
}

// FindAvailable lists assets bookable for [start, end).
func (c *Client) FindAvailable(ctx context.Context, start, end time.Time, class string) ([]handlers.AssetResponse, error) {
	q := url.Values{}
	q.Set("start", models.FormatDate(start))
	q.Set("end", models.FormatDate(end))
	if class != "" {
		q.Set("class", class)
	}
	var out []handlers.AssetResponse
	err := c.do(ctx, http.MethodGet, "/assets/available?"+q.Encode(), nil, &out)
	return out, err
}

// Reserve books an asset.
func (c *Client) Reserve(ctx context.Context, customerID, assetID int64, start, end time.Time) (handlers.ReservationResponse, error) {
	var out handlers.ReservationResponse
	err := c.do(ctx, http.MethodPost, "/reservations", handlers.ReserveRequest{
		CustomerID: customerID,
		AssetID:    assetID,
		StartDate:  models.FormatDate(start),
		EndDate:    models.FormatDate(end),
	}, &out)
	return out, err
}

// Start hands over a booked asset.
func (c *Client) Start(ctx context.Context, reservationID int64) (handlers.ReservationResponse, error) {
	var out handlers.ReservationResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/reservations/%d/start", reservationID), nil, &out)
	return out, err
}

// Return closes an active rental.
func (c *Client) Return(ctx context.Context, reservationID int64, actualEnd time.Time, fuelOK, damaged bool) (handlers.ReturnResponse, error) {
	var out handlers.ReturnResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/reservations/%d/return", reservationID), handlers.ReturnRequest{
		ActualEndDate: models.FormatDate(actualEnd),
		FuelOK:        &fuelOK,
		Damaged:       damaged,
	}, &out)
	return out, err
}

// Cancel drops a booking.
func (c *Client) Cancel(ctx context.Context, reservationID int64) (handlers.ReservationResponse, error) {
	var out handlers.ReservationResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/reservations/%d/cancel", reservationID), nil, &out)
	return out, err
}

// Simulator drives random bookings, hand-overs, returns and cancellations.
type Simulator struct {
	client *Client
	rng    *rand.Rand
	today  time.Time

	customers []int64
	booked    []handlers.ReservationResponse
	active    []handlers.ReservationResponse
}

// NewSimulator starts the simulated calendar at start.
func NewSimulator(client *Client, rng *rand.Rand, start time.Time) *Simulator {
	return &Simulator{client: client, rng: rng, today: models.DateOf(start)}
}

// Setup registers fleetSize assets and customerCount customers.
func (s *Simulator) Setup(ctx context.Context, fleetSize, customerCount int) error {
	for i := 0; i < fleetSize; i++ {
		req := fleetCatalog[i%len(fleetCatalog)]
		bounds := classRates[req.Class]
		req.DailyRate = decimal.NewFromInt(int64(bounds[0] + s.rng.Intn(bounds[1]-bounds[0]+1)))
		asset, err := s.client.AddAsset(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}
		log.WithFields(log.Fields{
			"asset_id":   asset.ID,
			"class":      asset.Class,
			"daily_rate": asset.DailyRate,
		}).Info("Created asset")
	}
	for i := 0; i < customerCount; i++ {
		name := customerNames[i%len(customerNames)]
		c, err := s.client.RegisterCustomer(ctx, handlers.RegisterCustomerRequest{
			Name:          name,
			LicenseNumber: fmt.Sprintf("SIM%07d", i+1),
			ContactInfo:   fmt.Sprintf("%s@example.com", strings.ToLower(name)),
		})
		if err != nil {
			return fmt.Errorf("failed to register customer: %w", err)
		}
		s.customers = append(s.customers, c.ID)
	}
	return nil
}

// Step advances the calendar by one day and performs one random action.
func (s *Simulator) Step(ctx context.Context) error {
	s.today = s.today.AddDate(0, 0, 1)

	switch n := s.rng.Intn(10); {
	case n < 4 || (len(s.booked) == 0 && len(s.active) == 0):
		return s.reserve(ctx)
	case n < 6 && len(s.booked) > 0:
		return s.start(ctx)
	case n < 9 && len(s.active) > 0:
		return s.returnOne(ctx)
	case len(s.booked) > 0:
		return s.cancel(ctx)
	default:
		return s.reserve(ctx)
	}
}

func (s *Simulator) reserve(ctx context.Context) error {
	if len(s.customers) == 0 {
		return fmt.Errorf("no customers registered")
	}
	start := s.today.AddDate(0, 0, s.rng.Intn(5))
	end := start.AddDate(0, 0, 1+s.rng.Intn(6))

	available, err := s.client.FindAvailable(ctx, start, end, "")
	if err != nil {
		return err
	}
	if len(available) == 0 {
		log.WithField("start_date", models.FormatDate(start)).Info("No assets available")
		return nil
	}
	asset := available[s.rng.Intn(len(available))]
	customerID := s.customers[s.rng.Intn(len(s.customers))]

	res, err := s.client.Reserve(ctx, customerID, asset.ID, start, end)
	if err != nil {
		return err
	}
	s.booked = append(s.booked, res)
	log.WithFields(log.Fields{
		"reservation_id": res.ID,
		"asset_id":       res.AssetID,
		"start_date":     res.StartDate,
		"end_date":       res.EndDate,
	}).Info("Reserved")
	return nil
}

func (s *Simulator) start(ctx context.Context) error {
	i := s.rng.Intn(len(s.booked))
	res, err := s.client.Start(ctx, s.booked[i].ID)
	if err != nil {
		return err
	}
	s.booked = append(s.booked[:i], s.booked[i+1:]...)
	s.active = append(s.active, res)
	log.WithField("reservation_id", res.ID).Info("Rental started")
	return nil
}

func (s *Simulator) returnOne(ctx context.Context) error {
	i := s.rng.Intn(len(s.active))
	res := s.active[i]
	end, err := models.ParseDate(res.EndDate)
	if err != nil {
		return err
	}
	// mostly on time, sometimes late or early
	actualEnd := end.AddDate(0, 0, s.rng.Intn(4)-1)
	fuelOK := s.rng.Intn(5) != 0
	damaged := s.rng.Intn(10) == 0

	out, err := s.client.Return(ctx, res.ID, actualEnd, fuelOK, damaged)
	if err != nil {
		return err
	}
	s.active = append(s.active[:i], s.active[i+1:]...)
	log.WithFields(log.Fields{
		"reservation_id": res.ID,
		"total_amount":   out.TotalAmount,
		"late_fee":       out.Reservation.LateFee,
		"fuel_ok":        fuelOK,
		"damaged":        damaged,
	}).Info("Asset returned")
	return nil
}

func (s *Simulator) cancel(ctx context.Context) error {
	i := s.rng.Intn(len(s.booked))
	res, err := s.client.Cancel(ctx, s.booked[i].ID)
	if err != nil {
		return err
	}
	s.booked = append(s.booked[:i], s.booked[i+1:]...)
	log.WithField("reservation_id", res.ID).Info("Reservation cancelled")
	return nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	fleetSize := envInt("FLEET_SIZE", 6)
	customerCount := envInt("CUSTOMER_COUNT", 4)
	rounds := envInt("SIM_ROUNDS", 0)
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 2)) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"customers":  customerCount,
		"api_url":    apiURL,
		"interval":   interval,
	}).Info("Starting rental simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := NewSimulator(NewClient(apiURL), rand.New(rand.NewSource(time.Now().UnixNano())), time.Now())
	if err := sim.Setup(ctx, fleetSize, customerCount); err != nil {
		log.WithError(err).Error("Setup failed. Ensure the API is reachable. Exiting.")
		return
	}

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for i := 0; rounds == 0 || i < rounds; i++ {
		select {
		case <-ctx.Done():
			log.Info("Simulation stopped")
			return
		case <-tick.C:
		}
		if err := sim.Step(ctx); err != nil {
			log.WithError(err).Warn("Simulation step failed")
		}
	}
	log.WithField("rounds", rounds).Info("Simulation finished")
}
