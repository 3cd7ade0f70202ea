package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/utils"
)

type VehicleController struct {
	svc    *services.Vehicles
	search *services.Searcher[models.Vehicle]
	saved  *session.Manager
}

func NewVehicleController(svc *services.Vehicles, search *services.Searcher[models.Vehicle], saved *session.Manager) *VehicleController {
	return &VehicleController{svc: svc, search: search, saved: saved}
}

func (v *VehicleController) List(c *gin.Context) {
	list, err := v.svc.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, list, gin.H{"count": len(list)})
}

func (v *VehicleController) Search(c *gin.Context) {
	list, err := v.search.Query(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, list, gin.H{"count": len(list)})
}

func (v *VehicleController) Get(c *gin.Context) {
	veh, err := v.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, veh, nil)
}

func (v *VehicleController) Create(c *gin.Context) {
	var in models.VehicleInput
	if !bind(c, &in) {
		return
	}
	veh, err := v.svc.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, veh, nil)
}

func (v *VehicleController) Update(c *gin.Context) {
	var in models.VehicleInput
	if !bind(c, &in) {
		return
	}
	veh, err := v.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, veh, nil)
}

func (v *VehicleController) SetStatus(c *gin.Context) {
	var in struct {
		Status models.VehicleStatus `json:"status"`
	}
	if !bind(c, &in) {
		return
	}
	veh, err := v.svc.SetStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, veh, nil)
}

func (v *VehicleController) Delete(c *gin.Context) {
	if err := v.svc.Delete(c.Request.Context(), c.Param("id"), utils.Confirmed(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"id": c.Param("id")}, nil)
}

// ToggleSaved bookmarks or un-bookmarks a vehicle locally.
func (v *VehicleController) ToggleSaved(c *gin.Context) {
	saved, err := v.saved.ToggleSavedVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"id": c.Param("id"), "saved": saved}, nil)
}

func (v *VehicleController) Saved(c *gin.Context) {
	ids, err := v.saved.SavedVehicles(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, ids, nil)
}

// bind decodes the JSON body into dst or answers 400.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, utils.Response{Code: http.StatusBadRequest, Message: "invalid request body"})
		return false
	}
	return true
}
