package controllers

import (
	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/utils"
)

type ClientController struct {
	svc    *services.Clients
	search *services.Searcher[models.Client]
}

func NewClientController(svc *services.Clients, search *services.Searcher[models.Client]) *ClientController {
	return &ClientController{svc: svc, search: search}
}

func (cc *ClientController) List(c *gin.Context) {
	list, err := cc.svc.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, list, gin.H{"count": len(list)})
}

func (cc *ClientController) Search(c *gin.Context) {
	list, err := cc.search.Query(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, list, gin.H{"count": len(list)})
}

func (cc *ClientController) Create(c *gin.Context) {
	var in models.ClientInput
	if !bind(c, &in) {
		return
	}
	cl, err := cc.svc.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, cl, nil)
}

func (cc *ClientController) Update(c *gin.Context) {
	var in models.ClientInput
	if !bind(c, &in) {
		return
	}
	cl, err := cc.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, cl, nil)
}

func (cc *ClientController) Delete(c *gin.Context) {
	if err := cc.svc.Delete(c.Request.Context(), c.Param("id"), utils.Confirmed(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"id": c.Param("id")}, nil)
}
