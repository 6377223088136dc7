package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket parking session record. A ticket with a nil Price is open.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID         string     `json:"id" bun:"id,pk"`
	VehicleID  string     `json:"vehicle_id" bun:"vehicle_id,notnull"`
	LevelID    string     `json:"level_id" bun:"level_id,notnull"`
	Level      int        `json:"level" bun:"level,notnull"`
	SpotID     string     `json:"spot_id" bun:"spot_id,notnull"`
	SpotNumber string     `json:"spot_number" bun:"spot_number,notnull"`
	LotName    string     `json:"lot_name" bun:"lot_name,notnull"` // snapshot taken at park time
	StartTime  time.Time  `json:"start_time" bun:"start_time,notnull"`
	EndTime    *time.Time `json:"end_time,omitempty" bun:"end_time"`
	Price      *float64   `json:"price" bun:"price"`
}

// IsOpen reports whether the session is still running.
func (t *Ticket) IsOpen() bool {
	return t.Price == nil
}

// UnknownLotName is recorded when the level's parent lot no longer resolves.
const UnknownLotName = "Unknown Lot"
