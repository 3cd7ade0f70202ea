package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/middlewares"
	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/utils"
)

const (
	PushSnapshot   = "snapshot"
	PushToast      = "toast"
	PushConnection = "connection"
)

// NegotiationView is the JSON rendering of a negotiation snapshot.
type NegotiationView struct {
	Conversations  []models.Conversation `json:"conversations"`
	Selected       string                `json:"selected,omitempty"`
	Transcript     []models.Message      `json:"transcript"`
	RemoteTyping   bool                  `json:"remoteTyping"`
	Metrics        models.LiveMetrics    `json:"metrics"`
	Connected      bool                  `json:"connected"`
	Sending        bool                  `json:"sending"`
	Loading        bool                  `json:"loading"`
	ScrollToBottom bool                  `json:"scrollToBottom,omitempty"`
}

func newView(s negotiation.Snapshot, fx negotiation.Effects) NegotiationView {
	v := NegotiationView{
		Conversations:  s.Conversations,
		Selected:       s.Selected,
		Transcript:     s.Transcript,
		RemoteTyping:   s.RemoteTyping,
		Metrics:        s.Metrics,
		Connected:      s.Connected,
		Sending:        s.Sending,
		Loading:        s.Loading,
		ScrollToBottom: fx.ScrollToBottom,
	}
	if v.Conversations == nil {
		v.Conversations = []models.Conversation{}
	}
	if v.Transcript == nil {
		v.Transcript = []models.Message{}
	}
	return v
}

// SessionFactory builds the negotiation session of operator me.
type SessionFactory func(me string) *negotiation.Session

// NegotiationController owns the negotiation session of the signed-in operator
// and serves the negotiation screen.
type NegotiationController struct {
	factory SessionFactory
	ws      *WSManager
	logger  *slog.Logger

	mu     sync.RWMutex
	active *negotiation.Session
	unsub  func()
}

func NewNegotiationController(factory SessionFactory, ws *WSManager, logger *slog.Logger) *NegotiationController {
	if logger == nil {
		logger = slog.Default()
	}
	n := &NegotiationController{factory: factory, ws: ws, logger: logger}
	if ws != nil {
		ws.OnCommand(n.handleCommand)
	}
	return n
}

// Bind replaces the session with one for operator me and loads its conversations.
func (n *NegotiationController) Bind(ctx context.Context, me string) {
	s := n.factory(me)
	var unsub func()
	if n.ws != nil {
		unsub = s.Subscribe(func(snap negotiation.Snapshot, fx negotiation.Effects) {
			n.ws.Broadcast(PushSnapshot, newView(snap, fx))
		})
	}

	n.mu.Lock()
	prev, prevUnsub := n.active, n.unsub
	n.active, n.unsub = s, unsub
	n.mu.Unlock()
	closeSession(prev, prevUnsub)

	go func() {
		if err := s.Load(ctx, ""); err != nil {
			n.logger.Warn("initial conversation load failed", slog.Any("error", err))
		}
	}()
}

// Unbind drops the session, e.g. on logout.
func (n *NegotiationController) Unbind() {
	n.mu.Lock()
	prev, prevUnsub := n.active, n.unsub
	n.active, n.unsub = nil, nil
	n.mu.Unlock()
	closeSession(prev, prevUnsub)
}

// Refresh republishes the snapshot, e.g. after a connectivity change.
func (n *NegotiationController) Refresh() {
	if s := n.current(); s != nil {
		s.Refresh()
	}
}

func closeSession(s *negotiation.Session, unsub func()) {
	if unsub != nil {
		unsub()
	}
	if s != nil {
		s.ClearSelection()
		s.Close()
	}
}

func (n *NegotiationController) current() *negotiation.Session {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

func (n *NegotiationController) view() (NegotiationView, bool) {
	s := n.current()
	if s == nil {
		return NegotiationView{}, false
	}
	return newView(s.Snapshot(), negotiation.Effects{}), true
}

// session returns the bound session or answers 503.
func (n *NegotiationController) session(c *gin.Context) (*negotiation.Session, bool) {
	s := n.current()
	if s == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, utils.Response{Code: http.StatusServiceUnavailable, Message: "negotiation session not ready"})
		return nil, false
	}
	if u, ok := middlewares.CurrentUser(c); ok && u.ID != s.Me() {
		c.AbortWithStatusJSON(http.StatusConflict, utils.Response{Code: http.StatusConflict, Message: "session changed, reload"})
		return nil, false
	}
	return s, true
}

func (n *NegotiationController) handleCommand(userID string, cmd Command) {
	s := n.current()
	if s == nil || s.Me() != userID {
		return
	}
	switch cmd.Type {
	case "typing":
		s.Keystroke()
	case "select":
		if err := s.Select(context.Background(), cmd.ConversationID); err != nil {
			n.logger.Debug("select from tab failed", slog.Any("error", err))
		}
	}
}

// Get returns the screen state. ?preselect=<id> or ?reload=true reloads the list first.
func (n *NegotiationController) Get(c *gin.Context) {
	s, ok := n.session(c)
	if !ok {
		return
	}
	preselect := c.Query("preselect")
	if preselect != "" || c.Query("reload") == "true" {
		// failures are already toasted; the screen still renders
		_ = s.Load(c.Request.Context(), preselect)
	}
	utils.RespondSuccess(c, newView(s.Snapshot(), negotiation.Effects{}), nil)
}

func (n *NegotiationController) Start(c *gin.Context) {
	s, ok := n.session(c)
	if !ok {
		return
	}
	var in struct {
		ClientID  string `json:"clientId"`
		VehicleID string `json:"vehicleId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, utils.Response{Code: http.StatusBadRequest, Message: "invalid request body"})
		return
	}
	conv, err := s.Start(c.Request.Context(), in.ClientID, in.VehicleID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, conv, nil)
}

// StartAI opens, or reopens, the AI negotiation on a vehicle.
func (n *NegotiationController) StartAI(c *gin.Context) {
	s, ok := n.session(c)
	if !ok {
		return
	}
	var in struct {
		VehicleID   string `json:"vehicleId"`
		VehicleName string `json:"vehicleName"`
		AgencyID    string `json:"agencyId"`
		Message     string `json:"message"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, utils.Response{Code: http.StatusBadRequest, Message: "invalid request body"})
		return
	}
	conv, reused, err := s.StartAI(c.Request.Context(), in.VehicleID, in.VehicleName, in.AgencyID, in.Message)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"conversation": conv, "reused": reused}, nil)
}

func (n *NegotiationController) Select(c *gin.Context) {
	s, ok := n.session(c)
	if !ok {
		return
	}
	if err := s.Select(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, newView(s.Snapshot(), negotiation.Effects{ScrollToBottom: true}), nil)
}

// Delete needs the X-Confirm header; without it nothing is sent upstream.
func (n *NegotiationController) Delete(c *gin.Context) {
	s, ok := n.session(c)
	if !ok {
		return
	}
	if err := s.Delete(c.Request.Context(), c.Param("id"), utils.Confirmed(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"id": c.Param("id")}, nil)
}
