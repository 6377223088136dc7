package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Lot parking lot
type Lot struct {
	bun.BaseModel `bun:"table:parking_lots"`

	ID          string    `json:"id" bun:"id,pk"`
	Name        string    `json:"name" bun:"name,notnull"`
	Address     string    `json:"address" bun:"address,notnull"`
	Capacity    int       `json:"capacity" bun:"capacity,notnull"`
	HourlyRate  float64   `json:"hourly_rate" bun:"hourly_rate,notnull"`
	Description string    `json:"description,omitempty" bun:"description,nullzero"`
	IsActive    bool      `json:"is_active" bun:"is_active,notnull"`
	CreatedAt   time.Time `json:"created_at" bun:"created_at,notnull"`
	UpdatedAt   time.Time `json:"updated_at" bun:"updated_at,notnull"`
}

// Level one floor of a lot. Level numbers are unique per lot.
type Level struct {
	bun.BaseModel `bun:"table:parking_levels"`

	ID              string    `json:"id" bun:"id,pk"`
	ParkingLotID    string    `json:"parking_lot_id" bun:"parking_lot_id,notnull,unique:parking_levels_lot_level"`
	Level           int       `json:"level" bun:"level,notnull,unique:parking_levels_lot_level"`
	Name            string    `json:"name" bun:"name,notnull"`
	Capacity        int       `json:"capacity" bun:"capacity,notnull"`
	AvailableSpaces int       `json:"available_spaces" bun:"available_spaces,notnull"` // 0 <= available_spaces <= capacity
	IsOpen          bool      `json:"is_open" bun:"is_open,notnull"`
	CreatedAt       time.Time `json:"created_at" bun:"created_at,notnull"`
	UpdatedAt       time.Time `json:"updated_at" bun:"updated_at,notnull"`
}

// Accepting reports whether the level takes new vehicles.
func (l *Level) Accepting() bool {
	return l.IsOpen && l.AvailableSpaces > 0
}

// Spot a physical parking space
type Spot struct {
	bun.BaseModel `bun:"table:parking_spots"`

	ID         string    `json:"id" bun:"id,pk"`
	Number     string    `json:"number" bun:"number,notnull,unique"` // L{level}-{n}
	LevelID    string    `json:"level_id" bun:"level_id,notnull"`
	Level      int       `json:"level" bun:"level,notnull"`
	IsOccupied bool      `json:"is_occupied" bun:"is_occupied,notnull"`
	VehicleID  *string   `json:"vehicle_id" bun:"vehicle_id"` // set iff occupied
	UpdatedAt  time.Time `json:"updated_at" bun:"updated_at,notnull"`
}
