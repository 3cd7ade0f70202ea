package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"auto-uc2-dashboard/middlewares"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSController struct {
	ws  *WSManager
	neg *NegotiationController
}

func NewWSController(ws *WSManager, neg *NegotiationController) *WSController {
	return &WSController{ws: ws, neg: neg}
}

// Serve upgrades to the browser push socket. The first frame is the current
// negotiation snapshot.
func (w *WSController) Serve(c *gin.Context) {
	u, _ := middlewares.CurrentUser(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	var initial []Push
	if view, ok := w.neg.view(); ok {
		initial = append(initial, Push{Type: PushSnapshot, Data: view})
	}
	w.ws.Attach(conn, u.ID, initial...)
}
