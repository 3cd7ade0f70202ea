package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"auto-uc2-dashboard/models"
)

// ref is a reference the backend sends either as a bare id or as a populated document.
type ref struct {
	ID        string
	Name      string
	Email     string
	FirstName string
	LastName  string
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var doc struct {
		MongoID   string `json:"_id"`
		ID        string `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*r = ref{
		ID:        firstNonEmpty(doc.MongoID, doc.ID),
		Name:      doc.Name,
		Email:     doc.Email,
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
	}
	return nil
}

func (r ref) participant() models.Participant {
	return models.Participant{ID: r.ID, Name: displayName(r.Name, r.FirstName, r.LastName), Email: r.Email}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func displayName(name, first, last string) string {
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return name
}

type wireMessage struct {
	MongoID        string    `json:"_id"`
	ID             string    `json:"id"`
	Conversation   ref       `json:"conversation"`
	ConversationID string    `json:"conversationId"`
	Sender         ref       `json:"sender"`
	Origin         string    `json:"origin"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	FileURL        string    `json:"fileUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	Read           bool      `json:"read"`
}

func normalizeMessage(w wireMessage) models.Message {
	origin := models.MessageOrigin(strings.ToLower(w.Origin))
	if origin == "" && w.Type == "system" {
		origin = models.OriginSystem
	}
	return models.Message{
		ID:             firstNonEmpty(w.MongoID, w.ID),
		ConversationID: firstNonEmpty(w.ConversationID, w.Conversation.ID),
		Sender:         w.Sender.participant(),
		Origin:         origin,
		Content:        w.Content,
		FileURL:        w.FileURL,
		CreatedAt:      w.CreatedAt,
		Read:           w.Read,
	}
}

// DecodeMessage normalizes one message document.
func DecodeMessage(raw json.RawMessage) (models.Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.Message{}, fmt.Errorf("decode message: %w", err)
	}
	return normalizeMessage(w), nil
}

// DecodeMessagePush normalizes a new_message payload: {conversationId, message}.
func DecodeMessagePush(raw json.RawMessage) (string, models.Message, error) {
	var p struct {
		ConversationID string          `json:"conversationId"`
		Message        json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", models.Message{}, fmt.Errorf("decode new_message: %w", err)
	}
	if len(p.Message) == 0 {
		return "", models.Message{}, errors.New("decode new_message: missing message")
	}
	msg, err := DecodeMessage(p.Message)
	if err != nil {
		return "", models.Message{}, err
	}
	id := firstNonEmpty(p.ConversationID, msg.ConversationID)
	if id == "" || msg.ID == "" {
		return "", models.Message{}, errors.New("decode new_message: missing ids")
	}
	msg.ConversationID = id
	return id, msg, nil
}

type wireConversation struct {
	MongoID       string             `json:"_id"`
	ID            string             `json:"id"`
	Client        ref                `json:"client"`
	Agent         ref                `json:"agent"`
	Vehicle       ref                `json:"vehicle"`
	VehicleID     string             `json:"vehicleId"`
	Subject       string             `json:"subject"`
	Status        string             `json:"status"`
	LastMessage   string             `json:"lastMessage"`
	LastMessageAt time.Time          `json:"lastMessageAt"`
	Unread        models.UnreadCount `json:"unreadCount"`
	AINegotiation bool               `json:"isAiNegotiation"`
}

func normalizeConversation(w wireConversation) models.Conversation {
	return models.Conversation{
		ID:            firstNonEmpty(w.MongoID, w.ID),
		Client:        w.Client.participant(),
		Agent:         w.Agent.participant(),
		VehicleID:     firstNonEmpty(w.VehicleID, w.Vehicle.ID),
		Subject:       w.Subject,
		Status:        models.ParseConversationStatus(w.Status),
		LastMessage:   w.LastMessage,
		LastMessageAt: w.LastMessageAt,
		Unread:        w.Unread,
		AINegotiation: w.AINegotiation,
	}
}

type wireVehicle struct {
	MongoID     string   `json:"_id"`
	ID          string   `json:"id"`
	Make        string   `json:"make"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Price       float64  `json:"price"`
	MarketValue float64  `json:"marketValue"`
	Status      string   `json:"status"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Mileage     int      `json:"mileage"`
	FuelType    string   `json:"fuelType"`
	VIN         string   `json:"vin"`
	Agency      ref      `json:"agency"`
}

func normalizeVehicle(w wireVehicle) models.Vehicle {
	img := w.Image
	if img == "" && len(w.Images) > 0 {
		img = w.Images[0]
	}
	return models.Vehicle{
		ID:          firstNonEmpty(w.MongoID, w.ID),
		Brand:       firstNonEmpty(w.Make, w.Brand),
		Model:       w.Model,
		Year:        w.Year,
		Price:       w.Price,
		MarketValue: w.MarketValue,
		Status:      models.VehicleStatus(strings.ToLower(w.Status)),
		Image:       img,
		Mileage:     w.Mileage,
		FuelType:    w.FuelType,
		VIN:         w.VIN,
		AgencyID:    w.Agency.ID,
	}
}

type wireClient struct {
	MongoID      string    `json:"_id"`
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Status       string    `json:"status"`
	LastActivity time.Time `json:"lastActivity"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func normalizeClient(w wireClient) models.Client {
	last := w.LastActivity
	if last.IsZero() {
		last = w.UpdatedAt
	}
	return models.Client{
		ID:           firstNonEmpty(w.MongoID, w.ID),
		FirstName:    w.FirstName,
		LastName:     w.LastName,
		Name:         displayName(w.Name, w.FirstName, w.LastName),
		Email:        w.Email,
		Phone:        w.Phone,
		Status:       w.Status,
		LastActivity: last,
	}
}

type wireUser struct {
	MongoID    string     `json:"_id"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Photo      string     `json:"photo"`
	Avatar     string     `json:"avatar"`
	Status     string     `json:"status"`
	Agency     ref        `json:"agency"`
	MFAEnabled bool       `json:"mfaEnabled"`
	LastLogin  *time.Time `json:"lastLogin"`
	CreatedAt  *time.Time `json:"createdAt"`
}

func normalizeUser(w wireUser) models.User {
	return models.User{
		ID:         firstNonEmpty(w.MongoID, w.ID),
		Name:       displayName(w.Name, w.FirstName, w.LastName),
		Email:      w.Email,
		Role:       models.ParseRole(w.Role),
		Avatar:     firstNonEmpty(w.Photo, w.Avatar),
		Status:     w.Status,
		AgencyID:   w.Agency.ID,
		MFAEnabled: w.MFAEnabled,
		LastLogin:  w.LastLogin,
		CreatedAt:  w.CreatedAt,
	}
}

type wireAgency struct {
	MongoID      string         `json:"_id"`
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Location     string         `json:"location"`
	Address      models.Address `json:"address"`
	Phone        string         `json:"phone"`
	Email        string         `json:"email"`
	FleetCount   int            `json:"fleetCount"`
	VehicleCount int            `json:"vehicleCount"`
	Manager      ref            `json:"manager"`
	Status       string         `json:"status"`
}

func normalizeAgency(w wireAgency) models.Agency {
	fleet := w.FleetCount
	if fleet == 0 {
		fleet = w.VehicleCount
	}
	loc := w.Location
	if loc == "" {
		loc = w.Address.City
	}
	return models.Agency{
		ID:         firstNonEmpty(w.MongoID, w.ID),
		Name:       w.Name,
		Location:   loc,
		Address:    w.Address,
		Phone:      w.Phone,
		Email:      w.Email,
		FleetCount: fleet,
		ManagerID:  w.Manager.ID,
		Status:     firstNonEmpty(w.Status, "active"),
	}
}

type wireKiosk struct {
	MongoID       string    `json:"_id"`
	ID            string    `json:"id"`
	Agency        ref       `json:"agency"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	Version       string    `json:"version"`
}

func normalizeKiosk(w wireKiosk) models.Kiosk {
	return models.Kiosk{
		ID:            firstNonEmpty(w.MongoID, w.ID),
		AgencyID:      w.Agency.ID,
		Name:          w.Name,
		Status:        w.Status,
		LastHeartbeat: w.LastHeartbeat,
		Version:       w.Version,
	}
}

func normalizeAll[W, M any](ws []W, fn func(W) M) []M {
	out := make([]M, 0, len(ws))
	for _, w := range ws {
		out = append(out, fn(w))
	}
	return out
}
