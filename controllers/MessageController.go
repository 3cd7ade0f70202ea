package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/utils"
)

// requireSelected answers 409 when id is not the selected conversation.
func requireSelected(c *gin.Context, s *negotiation.Session) bool {
	if c.Param("id") != s.Snapshot().Selected {
		c.AbortWithStatusJSON(http.StatusConflict, utils.Response{Code: http.StatusConflict, Message: "conversation is not selected"})
		return false
	}
	return true
}

// SendMessage accepts JSON {content} or a multipart form with content and file.
func (n *NegotiationController) SendMessage(c *gin.Context) {
	s, ok := n.session(c)
	if !ok || !requireSelected(c, s) {
		return
	}

	var (
		content string
		att     *negotiation.Attachment
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		content = c.PostForm("content")
		fh, err := c.FormFile("file")
		if err == nil {
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, utils.Response{Code: http.StatusBadRequest, Message: "unreadable attachment"})
				return
			}
			defer f.Close()
			att = &negotiation.Attachment{Name: fh.Filename, Size: fh.Size, Body: f}
		}
	} else {
		var in struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, utils.Response{Code: http.StatusBadRequest, Message: "invalid request body"})
			return
		}
		content = in.Content
	}

	if err := s.Send(c.Request.Context(), content, att); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, newView(s.Snapshot(), negotiation.Effects{ScrollToBottom: true}), nil)
}

// Typing records one keystroke in the compose box.
func (n *NegotiationController) Typing(c *gin.Context) {
	s, ok := n.session(c)
	if !ok || !requireSelected(c, s) {
		return
	}
	s.Keystroke()
	c.Status(http.StatusNoContent)
}
