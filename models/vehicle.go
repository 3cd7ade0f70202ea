package models

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleSold        VehicleStatus = "sold"
	VehicleReserved    VehicleStatus = "reserved"
	VehiclePending     VehicleStatus = "pending"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleIncoming    VehicleStatus = "incoming"
)

// Valid reports whether s is a status the inventory accepts.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleSold, VehicleReserved, VehiclePending, VehicleMaintenance, VehicleIncoming:
		return true
	}
	return false
}

type Vehicle struct {
	ID          string        `json:"id"`
	Brand       string        `json:"brand"`
	Model       string        `json:"model"`
	Year        int           `json:"year"`
	Price       float64       `json:"price"`
	MarketValue float64       `json:"marketValue,omitempty"`
	Status      VehicleStatus `json:"status"`
	Image       string        `json:"image,omitempty"`
	Mileage     int           `json:"mileage"`
	FuelType    string        `json:"fuelType,omitempty"`
	VIN         string        `json:"vin,omitempty"`
	AgencyID    string        `json:"agencyId,omitempty"`
}

// VehicleInput is the payload for create/update.
type VehicleInput struct {
	Brand    string        `json:"make"`
	Model    string        `json:"model"`
	Year     int           `json:"year"`
	Price    float64       `json:"price"`
	Status   VehicleStatus `json:"status,omitempty"`
	Mileage  int           `json:"mileage"`
	FuelType string        `json:"fuelType,omitempty"`
	VIN      string        `json:"vin,omitempty"`
	AgencyID string        `json:"agency,omitempty"`
}
