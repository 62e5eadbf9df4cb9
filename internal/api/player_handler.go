package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/secret-mission/internal/game"
)

// PlayerHandler 玩家处理器
type PlayerHandler struct {
	gameService *game.Service
}

// NewPlayerHandler 创建玩家处理器
func NewPlayerHandler(gameService *game.Service) *PlayerHandler {
	return &PlayerHandler{gameService: gameService}
}

// PlayerActionRequest 玩家动作请求
type PlayerActionRequest struct {
	Action           string `json:"action" binding:"required"`
	Value            *int   `json:"value,omitempty"`
	GuessingPlayerID *uint  `json:"guessingPlayerId,omitempty"`
}

// PlayerAction 结算主持人对玩家的动作
// @Summary 执行玩家动作
// @Description 支持 eliminate / subtract_life / add_point / mission_completed
// @Tags Players
// @Accept json
// @Produce json
// @Param playerId path int true "玩家ID"
// @Param request body PlayerActionRequest true "动作参数"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/players/{playerId}/action [post]
func (h *PlayerHandler) PlayerAction(c *gin.Context) {
	playerID, ok := parseUintParam(c, "playerId")
	if !ok {
		return
	}

	var req PlayerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	player, err := h.gameService.HandleAction(c.Request.Context(),
		playerID, req.Action, req.GuessingPlayerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"player": player})
}
