package controller

import (
	"valentine_week_backend/internal/service"
	"valentine_week_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DayController struct {
	ProgressService *service.ProgressService
}

func NewDayController(progressService *service.ProgressService) *DayController {
	return &DayController{ProgressService: progressService}
}

// ListDays godoc
// @Summary 情人节周目录
// @Description 八天的名称、日期、寄语和前端路由
// @Tags 目录
// @Produce json
// @Success 200 {array} model.ValentineDay
// @Router /days [get]
func (ctrl *DayController) ListDays(c *gin.Context) {
	util.Document(c, ctrl.ProgressService.Catalog())
}
