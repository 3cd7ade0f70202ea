package models

import "time"

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

type Agency struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Location   string  `json:"location,omitempty"`
	Address    Address `json:"address"`
	Phone      string  `json:"phone,omitempty"`
	Email      string  `json:"email,omitempty"`
	FleetCount int     `json:"fleetCount"`
	ManagerID  string  `json:"managerId,omitempty"`
	Status     string  `json:"status"`
}

type AgencyInput struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
	Phone   string  `json:"phone,omitempty"`
	Email   string  `json:"email,omitempty"`
	Status  string  `json:"status,omitempty"`
}

type Kiosk struct {
	ID            string    `json:"id"`
	AgencyID      string    `json:"agencyId"`
	Name          string    `json:"name,omitempty"`
	Status        string    `json:"status"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	Version       string    `json:"version,omitempty"`
}

// Online reports whether the kiosk heartbeat is recent enough.
func (k Kiosk) Online(now time.Time, grace time.Duration) bool {
	return !k.LastHeartbeat.IsZero() && now.Sub(k.LastHeartbeat) <= grace
}

type KioskInput struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}
