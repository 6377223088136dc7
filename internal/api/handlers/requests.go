package handlers

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/Phantawat/car-parking/internal/models"
)

// LotRequest creates or replaces a parking lot.
type LotRequest struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Capacity    int     `json:"capacity"`
	HourlyRate  float64 `json:"hourly_rate"`
	Description string  `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (r *LotRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)

	return models.Invalid(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&r.HourlyRate, validation.Min(0.0)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
	))
}

func (r *LotRequest) apply(lot *models.Lot) {
	lot.Name = r.Name
	lot.Address = r.Address
	lot.Capacity = r.Capacity
	lot.HourlyRate = r.HourlyRate
	lot.Description = r.Description
	lot.IsActive = true
	if r.IsActive != nil {
		lot.IsActive = *r.IsActive
	}
}

// LevelRequest creates or replaces a level.
type LevelRequest struct {
	ParkingLotID    string `json:"parking_lot_id"`
	Level           int    `json:"level"`
	Name            string `json:"name"`
	Capacity        int    `json:"capacity"`
	AvailableSpaces *int   `json:"available_spaces"`
	IsOpen          *bool  `json:"is_open"`
}

func (r *LevelRequest) Validate() error {
	r.ParkingLotID = strings.TrimSpace(r.ParkingLotID)
	r.Name = strings.TrimSpace(r.Name)

	return models.Invalid(validation.ValidateStruct(r,
		validation.Field(&r.ParkingLotID, validation.Required),
		validation.Field(&r.Level, validation.Min(0)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&r.AvailableSpaces, validation.Min(0), validation.Max(r.Capacity)),
	))
}

// apply copies the request onto level. On create available_spaces defaults
// to 0 so a level only advertises space once spots exist. Updates leave the
// counter to the store, see Handler.UpdateLevel.
func (r *LevelRequest) apply(level *models.Level, creating bool) {
	level.ParkingLotID = r.ParkingLotID
	level.Level = r.Level
	level.Name = r.Name
	level.Capacity = r.Capacity
	if creating {
		level.AvailableSpaces = 0
		if r.AvailableSpaces != nil {
			level.AvailableSpaces = min(*r.AvailableSpaces, level.Capacity)
		}
	}
	if r.IsOpen != nil {
		level.IsOpen = *r.IsOpen
	} else if creating {
		level.IsOpen = true
	}
}

// VehicleRequest creates or replaces a vehicle. Type defaults to car.
type VehicleRequest struct {
	Plate string             `json:"plate"`
	Owner string             `json:"owner"`
	Type  models.VehicleType `json:"type"`
}

func (r *VehicleRequest) Validate() error {
	r.Plate = strings.TrimSpace(r.Plate)
	r.Owner = strings.TrimSpace(r.Owner)
	if r.Type == "" {
		r.Type = models.VehicleCar
	}

	return models.Invalid(validation.ValidateStruct(r,
		validation.Field(&r.Plate, validation.Length(1, 20)),
		validation.Field(&r.Owner, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Type, validation.Required, validation.In(vehicleTypes()...)),
	))
}

func vehicleTypes() []interface{} {
	values := make([]interface{}, 0, len(models.VehicleTypes))
	for _, t := range models.VehicleTypes {
		values = append(values, t)
	}
	return values
}

// GenerateSpotsRequest adds spots to a level. Count defaults to 10.
type GenerateSpotsRequest struct {
	LevelID string `json:"level_id"`
	Count   *int   `json:"count"`
}

func (r *GenerateSpotsRequest) Validate() error {
	r.LevelID = strings.TrimSpace(r.LevelID)

	return models.Invalid(validation.ValidateStruct(r,
		validation.Field(&r.LevelID, validation.Required),
		validation.Field(&r.Count, validation.NilOrNotEmpty, validation.Min(1), validation.Max(1000)),
	))
}

// VerifyTicketRequest carries a scanned QR payload.
type VerifyTicketRequest struct {
	Payload string `json:"payload"`
}

func (r *VerifyTicketRequest) Validate() error {
	return models.Invalid(validation.ValidateStruct(r,
		validation.Field(&r.Payload, validation.Required),
	))
}
