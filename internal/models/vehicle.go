package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// VehicleType is a closed set; anything outside it is rejected on parse.
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleBus        VehicleType = "bus"
)

// VehicleTypes lists every accepted vehicle type.
var VehicleTypes = []VehicleType{VehicleCar, VehicleMotorcycle, VehicleBus}

// ParseVehicleType parses a vehicle type name, case-insensitively.
func ParseVehicleType(s string) (VehicleType, error) {
	switch t := VehicleType(strings.ToLower(strings.TrimSpace(s))); t {
	case VehicleCar, VehicleMotorcycle, VehicleBus:
		return t, nil
	default:
		return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unknown vehicle type %q", s)}
	}
}

// Valid reports whether t is one of the known vehicle types.
func (t VehicleType) Valid() bool {
	switch t {
	case VehicleCar, VehicleMotorcycle, VehicleBus:
		return true
	}
	return false
}

func (t VehicleType) String() string { return string(t) }

// UnmarshalText rejects unknown types when decoding requests.
func (t *VehicleType) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = ""
		return nil
	}
	parsed, err := ParseVehicleType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Vehicle a registered vehicle. Vehicles outlive their tickets.
type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles"`

	ID        string      `json:"id" bun:"id,pk"`
	Plate     string      `json:"plate,omitempty" bun:"plate,nullzero,unique"` // optional, unique when present
	Type      VehicleType `json:"type" bun:"type,notnull"`
	Owner     string      `json:"owner" bun:"owner,notnull"`
	CreatedAt time.Time   `json:"created_at" bun:"created_at,notnull"`
}
