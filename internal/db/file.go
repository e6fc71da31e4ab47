package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ukydev/fleet-rental/internal/models"
)

// FileSnapshotStore persists the snapshot as an indented JSON document.
type FileSnapshotStore struct {
	Path string
}

// NewFileSnapshotStore returns a store for path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{Path: path}
}

// fileDocument accepts the current layout and the older cars/rentals layout.
type fileDocument struct {
	models.Snapshot
	Cars    []legacyCar    `json:"cars,omitempty"`
	Rentals []legacyRental `json:"rentals,omitempty"`
}

type legacyCar struct {
	ID        int64   `json:"id"`
	Brand     string  `json:"brand"`
	Model     string  `json:"model"`
	CarClass  string  `json:"car_class"`
	DailyRate float64 `json:"daily_rate"`
	Status    string  `json:"status"`
}

type legacyRental struct {
	models.ReservationRecord
	CarID int64 `json:"car_id"`
}

// Load implements rental.Gateway. A missing file yields an empty snapshot.
func (f *FileSnapshotStore) Load(_ context.Context) (models.Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.EmptySnapshot(), nil
		}
		return models.Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode %s: %v: %w", f.Path, err, models.ErrCorruptSnapshot)
	}

	snap := doc.Snapshot
	if len(snap.Assets) == 0 {
		for _, c := range doc.Cars {
			snap.Assets = append(snap.Assets, models.AssetRecord{
				ID:        c.ID,
				Brand:     c.Brand,
				Model:     c.Model,
				Class:     c.CarClass,
				DailyRate: c.DailyRate,
				Status:    c.Status,
			})
		}
	}
	if len(snap.Reservations) == 0 {
		for _, r := range doc.Rentals {
			rec := r.ReservationRecord
			rec.AssetID = r.CarID
			snap.Reservations = append(snap.Reservations, rec)
		}
	}
	return normalize(snap), nil
}

// Save implements rental.Gateway. The file is replaced atomically through a
// temporary file in the same directory.
func (f *FileSnapshotStore) Save(_ context.Context, snap models.Snapshot) error {
	data, err := json.MarshalIndent(normalize(snap), "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
