package controllers

import (
	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/utils"
)

// AdminController serves agencies, kiosks and system screens.
type AdminController struct {
	agencies *services.Agencies
	system   *services.System
}

func NewAdminController(agencies *services.Agencies, system *services.System) *AdminController {
	return &AdminController{agencies: agencies, system: system}
}

func (a *AdminController) ListAgencies(c *gin.Context) {
	list, err := a.agencies.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, list, gin.H{"count": len(list)})
}

func (a *AdminController) GetAgency(c *gin.Context) {
	ag, err := a.agencies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, ag, nil)
}

func (a *AdminController) CreateAgency(c *gin.Context) {
	var in models.AgencyInput
	if !bind(c, &in) {
		return
	}
	ag, err := a.agencies.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, ag, nil)
}

func (a *AdminController) UpdateAgency(c *gin.Context) {
	var in models.AgencyInput
	if !bind(c, &in) {
		return
	}
	ag, err := a.agencies.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, ag, nil)
}

func (a *AdminController) DeleteAgency(c *gin.Context) {
	if err := a.agencies.Delete(c.Request.Context(), c.Param("id"), utils.Confirmed(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"id": c.Param("id")}, nil)
}

func (a *AdminController) Kiosks(c *gin.Context) {
	list, err := a.agencies.Kiosks(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, list, gin.H{"count": len(list)})
}

func (a *AdminController) CreateKiosk(c *gin.Context) {
	var in models.KioskInput
	if !bind(c, &in) {
		return
	}
	k, err := a.agencies.CreateKiosk(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, k, nil)
}

func (a *AdminController) DeleteKiosk(c *gin.Context) {
	if err := a.agencies.DeleteKiosk(c.Request.Context(), c.Param("id"), c.Param("kioskId"), utils.Confirmed(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"id": c.Param("kioskId")}, nil)
}

// Health is public: the login screen shows backend status too.
func (a *AdminController) Health(c *gin.Context) {
	h, err := a.system.Health(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, h, nil)
}

func (a *AdminController) Metrics(c *gin.Context) {
	m, err := a.system.Metrics(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, m, nil)
}

// Logs filters by ?level= when given.
func (a *AdminController) Logs(c *gin.Context) {
	entries, err := a.system.Logs(c.Request.Context(), models.LogLevel(c.Query("level")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, entries, gin.H{"count": len(entries)})
}
