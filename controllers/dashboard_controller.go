package controllers

import (
	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/utils"
)

// DashboardController serves the landing page overview.
type DashboardController struct {
	dashboard *services.Dashboard
}

func NewDashboardController(dashboard *services.Dashboard) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (d *DashboardController) Overview(c *gin.Context) {
	o, err := d.dashboard.Overview(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, o, gin.H{"activity": len(o.RecentActivity)})
}
