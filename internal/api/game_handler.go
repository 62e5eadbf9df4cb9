package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/wfunc/secret-mission/internal/config"
	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/game"
)

// GameHandler 游戏房间处理器
type GameHandler struct {
	gameService *game.Service
	cfg         *config.Config
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(gameService *game.Service, cfg *config.Config) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		cfg:         cfg,
	}
}

// CreateGameRequest 创建房间请求
type CreateGameRequest struct {
	Mode          string `json:"mode" binding:"required"`
	HostName      string `json:"hostName" binding:"required"`
	HostAvatar    string `json:"hostAvatar"`
	TimerDuration int    `json:"timerDuration"`
}

// JoinGameRequest 加入房间请求
type JoinGameRequest struct {
	RoomCode     string `json:"roomCode" binding:"required"`
	PlayerName   string `json:"playerName" binding:"required"`
	PlayerAvatar string `json:"playerAvatar"`
}

// CreateGame 创建房间
// @Summary 创建游戏房间
// @Description 创建新房间并把创建者登记为房主
// @Tags Games
// @Accept json
// @Produce json
// @Param request body CreateGameRequest true "创建参数"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/games/create [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	g, host, err := h.gameService.CreateGame(c.Request.Context(),
		req.Mode, req.HostName, req.HostAvatar, req.TimerDuration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"game":     g,
		"player":   host,
		"roomCode": g.RoomCode,
	})
}

// JoinGame 加入房间
// @Summary 按房间码加入游戏
// @Tags Games
// @Accept json
// @Produce json
// @Param request body JoinGameRequest true "加入参数"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/games/join [post]
func (h *GameHandler) JoinGame(c *gin.Context) {
	var req JoinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	g, player, err := h.gameService.JoinGame(c.Request.Context(),
		req.RoomCode, req.PlayerName, req.PlayerAvatar)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"game":   g,
		"player": player,
	})
}

// GetGame 查询游戏完整状态
// @Summary 查询游戏状态
// @Tags Games
// @Produce json
// @Param gameId path int true "游戏ID"
// @Success 200 {object} game.GameState
// @Failure 404 {object} ErrorResponse
// @Router /api/games/{gameId} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	gameID, ok := parseUintParam(c, "gameId")
	if !ok {
		return
	}

	state, err := h.gameService.GetGameState(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// EndGame 强制结束游戏
// @Summary 结束游戏
// @Tags Games
// @Produce json
// @Param gameId path int true "游戏ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/games/{gameId}/end [post]
func (h *GameHandler) EndGame(c *gin.Context) {
	gameID, ok := parseUintParam(c, "gameId")
	if !ok {
		return
	}

	if _, err := h.gameService.EndGame(c.Request.Context(), gameID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GameQR 生成加入房间的二维码
// @Summary 房间二维码
// @Description 返回包含加入链接的PNG二维码, 便于面对面扫码入局
// @Tags Games
// @Produce png
// @Param gameId path int true "游戏ID"
// @Success 200 {string} binary
// @Failure 404 {object} ErrorResponse
// @Router /api/games/{gameId}/qr [get]
func (h *GameHandler) GameQR(c *gin.Context) {
	gameID, ok := parseUintParam(c, "gameId")
	if !ok {
		return
	}

	state, err := h.gameService.GetGameState(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}

	joinURL := fmt.Sprintf("%s/join?code=%s", h.cfg.Server.PublicURL, state.Game.RoomCode)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrUnknown, "二维码生成失败"))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// parseUintParam 解析路径中的数字参数, 失败时直接响应400
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: name + " 必须是数字",
		})
		return 0, false
	}
	return uint(v), true
}
