package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/secret-mission/internal/game"
)

// MissionHandler 任务处理器
type MissionHandler struct {
	gameService *game.Service
}

// NewMissionHandler 创建任务处理器
func NewMissionHandler(gameService *game.Service) *MissionHandler {
	return &MissionHandler{gameService: gameService}
}

// SubmitMissionRequest 提交任务请求
type SubmitMissionRequest struct {
	GameID      uint   `json:"gameId" binding:"required"`
	PlayerID    uint   `json:"playerId" binding:"required"`
	MissionText string `json:"missionText" binding:"required"`
}

// SubmitMission 提交任务
// @Summary 提交秘密任务
// @Description 最后一名玩家提交后自动分配任务并开始游戏
// @Tags Missions
// @Accept json
// @Produce json
// @Param request body SubmitMissionRequest true "任务内容"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/missions/submit [post]
func (h *MissionHandler) SubmitMission(c *gin.Context) {
	var req SubmitMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	mission, err := h.gameService.SubmitMission(c.Request.Context(),
		req.GameID, req.PlayerID, req.MissionText)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mission": mission})
}

// GetPlayerMission 查询分配给玩家的任务
// @Summary 查询玩家收到的任务
// @Description 分配前返回 mission 为 null
// @Tags Missions
// @Produce json
// @Param playerId path int true "玩家ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /api/missions/player/{playerId} [get]
func (h *MissionHandler) GetPlayerMission(c *gin.Context) {
	playerID, ok := parseUintParam(c, "playerId")
	if !ok {
		return
	}

	mission, err := h.gameService.PlayerMission(c.Request.Context(), playerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mission": mission})
}
