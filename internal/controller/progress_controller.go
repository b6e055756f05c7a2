package controller

import (
	"errors"
	"net/http"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/service"
	"valentine_week_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// ProgressController 处理进度相关的 HTTP 请求
type ProgressController struct {
	ProgressService *service.ProgressService
	Hub             *service.SyncHub
	Config          *config.ProgressConfig
}

// ReplayModeRequest 切换回放模式请求
type ReplayModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"true"`
}

// CompleteDayRequest 旧版单用户完成请求
type CompleteDayRequest struct {
	DayNumber int `json:"day_number" example:"1"`
}

func NewProgressController(progressService *service.ProgressService, hub *service.SyncHub, cfg *config.ProgressConfig) *ProgressController {
	return &ProgressController{
		ProgressService: progressService,
		Hub:             hub,
		Config:          cfg,
	}
}

func writeProgressError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidUserID):
		util.Error(c, http.StatusBadRequest, util.KindInvalidUser, err.Error())
	case errors.Is(err, util.ErrProgressNotFound):
		util.Error(c, http.StatusNotFound, util.KindNotFound, "Progress not found")
	case errors.Is(err, util.ErrDayLocked):
		util.Error(c, http.StatusConflict, util.KindLockedDay, err.Error())
	case errors.Is(err, util.ErrInvalidDay):
		util.Error(c, http.StatusBadRequest, util.KindInvalidDay, err.Error())
	default:
		util.LogInternalError(c, err)
	}
}

// completionMetadata 完成记录附带的请求信息
func completionMetadata(c *gin.Context) datatypes.JSONMap {
	return datatypes.JSONMap{
		"request_id": c.GetString(util.RequestIDKey),
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	}
}

// GetProgress godoc
// @Summary 获取用户进度
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "用户ID"
// @Success 200 {object} model.UserProgress
// @Failure 404 {object} util.Response "进度不存在"
// @Router /progress/{user_id} [get]
func (ctrl *ProgressController) GetProgress(c *gin.Context) {
	p, err := ctrl.ProgressService.GetProgress(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, p)
}

// InitProgress godoc
// @Summary 初始化用户进度
// @Description 已存在时原样返回 200
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "用户ID"
// @Success 201 {object} model.UserProgress "新建"
// @Success 200 {object} model.UserProgress "已存在"
// @Failure 400 {object} util.Response
// @Router /progress/{user_id} [post]
func (ctrl *ProgressController) InitProgress(c *gin.Context) {
	p, created, err := ctrl.ProgressService.InitProgress(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	if created {
		util.Created(c, p)
		return
	}
	util.Document(c, p)
}

// CompleteDay godoc
// @Summary 完成某一天
// @Description 重复调用是安全的；未解锁返回 409
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "用户ID"
// @Param day_number path int true "天数 (1-8)"
// @Success 200 {object} model.UserProgress
// @Failure 400 {object} util.Response "天数无效"
// @Failure 404 {object} util.Response "进度不存在"
// @Failure 409 {object} util.Response "该天未解锁"
// @Router /progress/{user_id}/complete/{day_number} [post]
func (ctrl *ProgressController) CompleteDay(c *gin.Context) {
	day, err := util.ParseDayNumber(c.Param("day_number"))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	p, err := ctrl.ProgressService.CompleteDay(c.Request.Context(), c.Param("user_id"), day, completionMetadata(c))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, p)
}

// SetReplayMode godoc
// @Summary 切换回放模式
// @Tags 进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "用户ID"
// @Param request body ReplayModeRequest true "回放开关"
// @Success 200 {object} model.UserProgress
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /progress/{user_id}/replay [put]
func (ctrl *ProgressController) SetReplayMode(c *gin.Context) {
	var req ReplayModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}
	p, err := ctrl.ProgressService.SetReplayMode(c.Request.Context(), c.Param("user_id"), *req.Enabled)
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, p)
}

// ResetProgress godoc
// @Summary 重置进度
// @Description 恢复初始状态并清空完成记录
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "用户ID"
// @Success 200 {object} model.UserProgress
// @Router /progress/{user_id}/reset [post]
func (ctrl *ProgressController) ResetProgress(c *gin.Context) {
	p, err := ctrl.ProgressService.ResetProgress(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, p)
}

// GetHistory godoc
// @Summary 完成记录
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "用户ID"
// @Success 200 {array} model.CompletionEvent
// @Failure 404 {object} util.Response
// @Router /progress/{user_id}/history [get]
func (ctrl *ProgressController) GetHistory(c *gin.Context) {
	events, err := ctrl.ProgressService.History(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, events)
}

// Subscribe godoc
// @Summary 多设备同步 WebSocket
// @Description 连接后先推送当前快照，之后每次变更推送 PROGRESS_UPDATED
// @Tags 进度
// @Param user_id path string true "用户ID"
// @Param token query string false "JWT Token"
// @Success 101 {string} string "Switching Protocols"
// @Router /progress/{user_id}/ws [get]
func (ctrl *ProgressController) Subscribe(c *gin.Context) {
	p, err := ctrl.ProgressService.GetProgress(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	service.ServeWs(ctrl.Hub, c.Writer, c.Request, p)
}

// GetDefaultProgress godoc
// @Summary 获取默认用户进度（旧接口）
// @Description 不存在时自动初始化
// @Tags 进度(旧版)
// @Produce json
// @Success 200 {object} model.UserProgress
// @Router /progress [get]
func (ctrl *ProgressController) GetDefaultProgress(c *gin.Context) {
	p, err := ctrl.ProgressService.GetOrInitProgress(c.Request.Context(), ctrl.Config.DefaultUserID)
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, p)
}

// CompleteDefaultDay godoc
// @Summary 完成某一天（旧接口）
// @Tags 进度(旧版)
// @Accept json
// @Produce json
// @Param request body CompleteDayRequest true "天数"
// @Success 200 {object} model.UserProgress
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /progress/complete [post]
func (ctrl *ProgressController) CompleteDefaultDay(c *gin.Context) {
	var req CompleteDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}
	// 缺省或非正数与路径参数一样按无效天数处理
	day, err := util.CheckDayNumber(req.DayNumber)
	if err != nil {
		writeProgressError(c, err)
		return
	}
	ctx := c.Request.Context()
	userID := ctrl.Config.DefaultUserID
	if _, err := ctrl.ProgressService.GetOrInitProgress(ctx, userID); err != nil {
		writeProgressError(c, err)
		return
	}
	p, err := ctrl.ProgressService.CompleteDay(ctx, userID, day, completionMetadata(c))
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, p)
}

// ResetDefaultProgress godoc
// @Summary 重置默认用户进度（旧接口）
// @Tags 进度(旧版)
// @Produce json
// @Success 200 {object} model.UserProgress
// @Router /progress/reset [post]
func (ctrl *ProgressController) ResetDefaultProgress(c *gin.Context) {
	p, err := ctrl.ProgressService.ResetProgress(c.Request.Context(), ctrl.Config.DefaultUserID)
	if err != nil {
		writeProgressError(c, err)
		return
	}
	util.Document(c, p)
}
