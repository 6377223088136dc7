package service

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/Phantawat/car-parking/internal/models"
)

// ParkRequest opens a session on a level, either for a registered vehicle
// (VehicleID) or for a vehicle described by Plate, Owner and Type.
type ParkRequest struct {
	LevelID   string             `json:"level_id"`
	VehicleID string             `json:"vehicle_id,omitempty"`
	Plate     string             `json:"plate,omitempty"`
	Owner     string             `json:"owner,omitempty"`
	Type      models.VehicleType `json:"type,omitempty"`
}

func vehicleTypeValues() []interface{} {
	values := make([]interface{}, 0, len(models.VehicleTypes))
	for _, t := range models.VehicleTypes {
		values = append(values, t)
	}
	return values
}

// Validate checks the request shape without touching the store.
func (r *ParkRequest) Validate() error {
	r.LevelID = strings.TrimSpace(r.LevelID)
	r.VehicleID = strings.TrimSpace(r.VehicleID)
	r.Plate = strings.TrimSpace(r.Plate)
	r.Owner = strings.TrimSpace(r.Owner)

	err := validation.ValidateStruct(r,
		validation.Field(&r.LevelID, validation.Required),
		validation.Field(&r.Plate, validation.Length(1, 20)),
		validation.Field(&r.Owner, validation.Length(1, 100)),
		validation.Field(&r.Type, validation.In(vehicleTypeValues()...)),
	)
	if err != nil {
		return models.Invalid(err)
	}

	if r.VehicleID == "" && (r.Plate == "" || r.Owner == "" || r.Type == "") {
		return models.ErrMissingVehicleInfo
	}
	return nil
}
