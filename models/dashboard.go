package models

import "time"

type DashboardStats struct {
	Inventory          int `json:"inventory"`
	ActiveNegotiations int `json:"activeNegotiations"`
	ActiveClients      int `json:"activeClients"`
}

// Activity is one recently updated negotiation on the overview feed.
type Activity struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"clientName"`
	Vehicle     string    `json:"vehicle,omitempty"`
	LastMessage string    `json:"lastMessage"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type DashboardOverview struct {
	Stats          DashboardStats `json:"stats"`
	RecentActivity []Activity     `json:"recentActivity"`
	Vehicles       []Vehicle      `json:"vehicles"`
}
