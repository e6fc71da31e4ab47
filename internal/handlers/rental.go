package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-rental/internal/models"
	"github.com/ukydev/fleet-rental/internal/rental"
)

// maxBodyBytes caps request bodies; every request type is a few hundred bytes.
const maxBodyBytes = 1 << 20

// RentalHandler exposes the reservation engine over HTTP.
type RentalHandler struct {
	engine *rental.Engine
}

// NewRentalHandler creates a new rental handler
func NewRentalHandler(engine *rental.Engine) *RentalHandler {
	return &RentalHandler{engine: engine}
}

// Register mounts every route on mux.
func (h *RentalHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /api/assets", h.AddAsset)
	mux.HandleFunc("GET /api/assets", h.ListAssets)
	mux.HandleFunc("GET /api/assets/available", h.FindAvailable)
	mux.HandleFunc("GET /api/assets/{id}", h.GetAsset)
	mux.HandleFunc("GET /api/assets/{id}/availability", h.CheckAvailability)
	mux.HandleFunc("DELETE /api/assets/{id}", h.RemoveAsset)

	mux.HandleFunc("POST /api/customers", h.RegisterCustomer)
	mux.HandleFunc("GET /api/customers", h.ListCustomers)
	mux.HandleFunc("GET /api/customers/{id}", h.GetCustomer)
	mux.HandleFunc("GET /api/customers/{id}/history", h.RentalHistory)

	mux.HandleFunc("POST /api/reservations", h.Reserve)
	mux.HandleFunc("GET /api/reservations", h.ActiveReservations)
	mux.HandleFunc("GET /api/reservations/{id}", h.GetReservation)
	mux.HandleFunc("POST /api/reservations/{id}/start", h.StartRental)
	mux.HandleFunc("POST /api/reservations/{id}/return", h.ReturnAsset)
	mux.HandleFunc("POST /api/reservations/{id}/cancel", h.CancelReservation)
}

// AddAssetRequest is the body of POST /api/assets.
type AddAssetRequest struct {
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Class     string          `json:"class"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}

// RegisterCustomerRequest is the body of POST /api/customers.
type RegisterCustomerRequest struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
	ContactInfo   string `json:"contact_info"`
}

// ReserveRequest is the body of POST /api/reservations. Dates are YYYY-MM-DD.
type ReserveRequest struct {
	CustomerID int64  `json:"customer_id"`
	AssetID    int64  `json:"asset_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// ReturnRequest is the body of POST /api/reservations/{id}/return.
// FuelOK defaults to true when omitted.
type ReturnRequest struct {
	ActualEndDate string `json:"actual_end_date"`
	FuelOK        *bool  `json:"fuel_ok,omitempty"`
	Damaged       bool   `json:"damaged"`
}

// ReservationResponse renders a reservation with calendar dates and fixed-point amounts.
type ReservationResponse struct {
	ID            int64   `json:"id"`
	AssetID       int64   `json:"asset_id"`
	CustomerID    int64   `json:"customer_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	ActualEndDate *string `json:"actual_end_date"`
	Status        string  `json:"status"`
	BaseFee       string  `json:"base_fee"`
	LateFee       string  `json:"late_fee"`
	FuelPenalty   string  `json:"fuel_penalty"`
	DamageFee     string  `json:"damage_fee"`
	TotalAmount   string  `json:"total_amount"`
}

// AssetResponse renders an asset with a fixed-point daily rate.
type AssetResponse struct {
	ID        int64  `json:"id"`
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Class     string `json:"class"`
	DailyRate string `json:"daily_rate"`
	Status    string `json:"status"`
}

// AvailabilityResponse is returned by GET /api/assets/{id}/availability.
type AvailabilityResponse struct {
	AssetID   int64  `json:"asset_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Available bool   `json:"available"`
}

// ReturnResponse is returned by POST /api/reservations/{id}/return.
type ReturnResponse struct {
	TotalAmount string              `json:"total_amount"`
	Reservation ReservationResponse `json:"reservation"`
}

func newReservationResponse(r models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:          r.ID,
		AssetID:     r.AssetID,
		CustomerID:  r.CustomerID,
		StartDate:   models.FormatDate(r.StartDate),
		EndDate:     models.FormatDate(r.EndDate),
		Status:      string(r.Status),
		BaseFee:     r.BaseFee.StringFixed(2),
		LateFee:     r.LateFee.StringFixed(2),
		FuelPenalty: r.FuelPenalty.StringFixed(2),
		DamageFee:   r.DamageFee.StringFixed(2),
		TotalAmount: r.TotalAmount.StringFixed(2),
	}
	if r.ActualEndDate != nil {
		d := models.FormatDate(*r.ActualEndDate)
		resp.ActualEndDate = &d
	}
	return resp
}

func newReservationList(rs []models.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, newReservationResponse(r))
	}
	return out
}

func newAssetResponse(a models.Asset) AssetResponse {
	return AssetResponse{
		ID:        a.ID,
		Brand:     a.Brand,
		Model:     a.Model,
		Class:     a.Class,
		DailyRate: a.DailyRate.StringFixed(2),
		Status:    string(a.Status),
	}
}

func newAssetList(as []models.Asset) []AssetResponse {
	out := make([]AssetResponse, 0, len(as))
	for _, a := range as {
		out = append(out, newAssetResponse(a))
	}
	return out
}

// Health reports liveness.
func (h *RentalHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddAsset handles asset registration
func (h *RentalHandler) AddAsset(w http.ResponseWriter, r *http.Request) {
	var req AddAssetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, err := h.engine.AddAsset(r.Context(), req.Brand, req.Model, req.Class, req.DailyRate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAssetResponse(asset))
}

// ListAssets returns the fleet
func (h *RentalHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newAssetList(h.engine.ListAssets()))
}

// GetAsset returns one asset
func (h *RentalHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	asset, err := h.engine.GetAsset(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(asset))
}

// RemoveAsset retires an asset
func (h *RentalHandler) RemoveAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.engine.RemoveAsset(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAvailability answers whether one asset can be booked for ?start&end.
func (h *RentalHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, err := models.ParseDate(q.Get("start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := models.ParseDate(q.Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	available, err := h.engine.IsAvailable(id, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		AssetID:   id,
		StartDate: models.FormatDate(start),
		EndDate:   models.FormatDate(end),
		Available: available,
	})
}

// FindAvailable lists bookable assets for ?start&end, optionally filtered by class and max_rate.
func (h *RentalHandler) FindAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := models.ParseDate(q.Get("start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := models.ParseDate(q.Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter := rental.AvailabilityFilter{Class: q.Get("class")}
	if raw := q.Get("max_rate"); raw != "" {
		maxRate, err := decimal.NewFromString(raw)
		if err != nil {
			http.Error(w, "Invalid max_rate", http.StatusBadRequest)
			return
		}
		filter.MaxRate = &maxRate
	}

	assets, err := h.engine.FindAvailable(start, end, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetList(assets))
}

// RegisterCustomer handles customer registration
func (h *RentalHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req RegisterCustomerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	customer, err := h.engine.RegisterCustomer(r.Context(), req.Name, req.LicenseNumber, req.ContactInfo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// ListCustomers returns all customers
func (h *RentalHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.ListCustomers())
}

// GetCustomer returns one customer
func (h *RentalHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	customer, err := h.engine.GetCustomer(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// RentalHistory returns a customer's completed and cancelled reservations
func (h *RentalHandler) RentalHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	history, err := h.engine.RentalHistory(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationList(history))
}

// Reserve books an asset
func (h *RentalHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.engine.Reserve(r.Context(), req.CustomerID, req.AssetID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReservationResponse(res))
}

// ActiveReservations returns booked and active reservations
func (h *RentalHandler) ActiveReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newReservationList(h.engine.ActiveReservations()))
}

// GetReservation returns one reservation
func (h *RentalHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.engine.GetReservation(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(res))
}

// StartRental hands over the asset
func (h *RentalHandler) StartRental(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.engine.StartRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(res))
}

// ReturnAsset closes a rental and bills it
func (h *RentalHandler) ReturnAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ReturnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	actualEnd, err := models.ParseDate(req.ActualEndDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fuelOK := true
	if req.FuelOK != nil {
		fuelOK = *req.FuelOK
	}

	total, err := h.engine.ReturnAsset(r.Context(), id, actualEnd, fuelOK, req.Damaged)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.engine.GetReservation(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReturnResponse{
		TotalAmount: total.StringFixed(2),
		Reservation: newReservationResponse(res),
	})
}

// CancelReservation cancels a booking that has not started
func (h *RentalHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.engine.CancelReservation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(res))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rental.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rental.ErrInvalidInterval), errors.Is(err, rental.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, rental.ErrUnavailable), errors.Is(err, rental.ErrInvalidTransition), errors.Is(err, rental.ErrAssetInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
