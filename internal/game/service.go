package game

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/secret-mission/internal/config"
	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/logger"
	"github.com/wfunc/secret-mission/internal/models"
	"github.com/wfunc/secret-mission/internal/repository"
)

// Service 游戏协调服务
// 负责房间生命周期, 任务提交与分配, 玩家动作结算, 并通过 Broadcaster 推送实时事件
type Service struct {
	gameRepo    repository.GameRepository
	playerRepo  repository.PlayerRepository
	missionRepo repository.MissionRepository
	codeGen     *RoomCodeGenerator
	assigner    *MissionAssigner
	broadcaster Broadcaster
	cfg         *config.GameConfig
	log         *zap.Logger
}

// NewService 创建游戏服务
func NewService(
	gameRepo repository.GameRepository,
	playerRepo repository.PlayerRepository,
	missionRepo repository.MissionRepository,
	broadcaster Broadcaster,
	cfg *config.GameConfig,
) *Service {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &Service{
		gameRepo:    gameRepo,
		playerRepo:  playerRepo,
		missionRepo: missionRepo,
		codeGen:     NewRoomCodeGenerator(cfg.RoomCodeLength),
		assigner:    NewMissionAssigner(),
		broadcaster: broadcaster,
		cfg:         cfg,
		log:         logger.GetModuleLogger("game"),
	}
}

// SetBroadcaster 注入实时广播器, 用于启动时解决服务与 hub 的循环依赖
func (s *Service) SetBroadcaster(b Broadcaster) {
	if b != nil {
		s.broadcaster = b
	}
}

// GameState 游戏完整状态快照
type GameState struct {
	Game     *models.Game      `json:"game"`
	Players  []*models.Player  `json:"players"`
	Missions []*models.Mission `json:"missions"`
}

// CreateGame 创建房间并把房主写入玩家表
// 房间码冲突时重新生成, 连续冲突超过上限返回 ErrRoomCodeExhausted
func (s *Service) CreateGame(ctx context.Context, mode, hostName, hostAvatar string, timerDuration int) (*models.Game, *models.Player, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, nil, errors.New(errors.ErrInvalidParam, "房主昵称不能为空")
	}
	if mode != models.ModeLocal && mode != models.ModeOnline {
		return nil, nil, errors.Newf(errors.ErrInvalidParam, "未知的游戏模式: %s", mode)
	}
	if timerDuration <= 0 {
		timerDuration = s.cfg.DefaultTimerDuration
	}

	var game *models.Game
	attempts := s.cfg.RoomCodeMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		candidate := &models.Game{
			RoomCode:      s.codeGen.Generate(),
			Mode:          mode,
			Status:        models.StatusLobby,
			TimerDuration: timerDuration,
		}
		err := s.gameRepo.Create(ctx, candidate)
		if err == nil {
			game = candidate
			break
		}
		if !errors.Is(err, errors.ErrRoomCodeConflict) {
			return nil, nil, err
		}
		s.log.Warn("房间码冲突, 重新生成", zap.String("room_code", candidate.RoomCode), zap.Int("attempt", i+1))
	}
	if game == nil {
		return nil, nil, errors.New(errors.ErrRoomCodeExhausted, "房间码冲突次数过多, 请稍后重试")
	}

	host := &models.Player{
		GameID: game.ID,
		Name:   hostName,
		Avatar: hostAvatar,
		Lives:  s.cfg.DefaultLives,
		IsHost: true,
	}
	if err := s.playerRepo.Create(ctx, host); err != nil {
		return nil, nil, err
	}

	logger.LogGameEvent("game_created", game.ID,
		zap.String("room_code", game.RoomCode), zap.String("mode", mode))
	return game, host, nil
}

// JoinGame 按房间码加入游戏
// 只有大厅状态可加入, 成功后广播 player_joined
func (s *Service) JoinGame(ctx context.Context, roomCode, name, avatar string) (*models.Game, *models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, errors.New(errors.ErrInvalidParam, "玩家昵称不能为空")
	}

	game, err := s.gameRepo.FindByRoomCode(ctx, strings.TrimSpace(roomCode))
	if err != nil {
		return nil, nil, err
	}
	if game.Status != models.StatusLobby {
		return nil, nil, errors.New(errors.ErrGameAlreadyStarted, "游戏已经开始, 无法加入")
	}

	player := &models.Player{
		GameID: game.ID,
		Name:   name,
		Avatar: avatar,
		Lives:  s.cfg.DefaultLives,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, nil, err
	}

	s.broadcaster.BroadcastToGame(game.ID, EventPlayerJoined, map[string]interface{}{
		"player": player,
		"game":   game,
	})
	logger.LogGameEvent("player_joined", game.ID,
		zap.Uint("player_id", player.ID), zap.String("name", player.Name))
	return game, player, nil
}

// GetGameState 获取游戏完整状态
func (s *Service) GetGameState(ctx context.Context, gameID uint) (*GameState, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := s.playerRepo.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	missions, err := s.missionRepo.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &GameState{Game: game, Players: players, Missions: missions}, nil
}

// SubmitMission 玩家提交任务
// 当任务数追平玩家数时触发分配并开始游戏
func (s *Service) SubmitMission(ctx context.Context, gameID, playerID uint, text string) (*models.Mission, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrInvalidParam, "任务内容不能为空")
	}

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.StatusLobby {
		return nil, errors.New(errors.ErrGameAlreadyStarted, "游戏已开始, 不能再提交任务")
	}
	player, err := s.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.GameID != game.ID {
		return nil, errors.New(errors.ErrInvalidParam, "玩家不在该游戏中")
	}

	// 每名玩家只能提交一条任务, 重复提交会破坏分配计数
	submitted, err := s.missionRepo.CountByEnteredBy(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	if submitted > 0 {
		return nil, errors.New(errors.ErrAlreadyExists, "已提交过任务")
	}

	mission := &models.Mission{
		GameID:      game.ID,
		EnteredBy:   player.ID,
		MissionText: text,
	}
	if err := s.missionRepo.Create(ctx, mission); err != nil {
		return nil, err
	}

	if err := s.distributeIfReady(ctx, game); err != nil {
		return nil, err
	}
	return mission, nil
}

// distributeIfReady 任务数等于玩家数时执行分配
// 分配与计时器启动放在同一事务, 避免部分分配
func (s *Service) distributeIfReady(ctx context.Context, game *models.Game) error {
	playerCount, err := s.playerRepo.CountByGameID(ctx, game.ID)
	if err != nil {
		return err
	}
	missionCount, err := s.missionRepo.CountByGameID(ctx, game.ID)
	if err != nil {
		return err
	}
	if missionCount != playerCount {
		return nil
	}
	if playerCount < int64(s.cfg.MinPlayers) {
		s.log.Warn("人数不足, 暂不分配任务",
			zap.Uint("game_id", game.ID), zap.Int64("players", playerCount))
		return nil
	}

	players, err := s.playerRepo.FindByGameID(ctx, game.ID)
	if err != nil {
		return err
	}
	missions, err := s.missionRepo.FindByGameID(ctx, game.ID)
	if err != nil {
		return err
	}

	assignments, err := s.assigner.Assign(players, missions)
	if err != nil {
		return err
	}

	err = s.gameRepo.Transaction(ctx, func(tx *gorm.DB) error {
		missionTx := s.missionRepo.WithTx(tx).(repository.MissionRepository)
		for _, a := range assignments {
			if err := missionTx.Assign(ctx, a.MissionID, a.PlayerID); err != nil {
				return err
			}
		}
		return s.gameRepo.WithTx(tx).(repository.GameRepository).StartTimer(ctx, game.ID)
	})
	if err != nil {
		return err
	}

	fresh, err := s.gameRepo.FindByID(ctx, game.ID)
	if err != nil {
		return err
	}
	assigned, err := s.missionRepo.FindByGameID(ctx, game.ID)
	if err != nil {
		return err
	}
	s.broadcaster.BroadcastToGame(game.ID, EventMissionsDistributed, map[string]interface{}{
		"game":     fresh,
		"missions": assigned,
	})
	logger.LogGameEvent("missions_distributed", game.ID, zap.Int64("players", playerCount))
	return nil
}

// PlayerMission 查询分配给玩家的任务, 未分配时返回 nil
func (s *Service) PlayerMission(ctx context.Context, playerID uint) (*models.Mission, error) {
	if _, err := s.playerRepo.FindByID(ctx, playerID); err != nil {
		return nil, err
	}
	mission, err := s.missionRepo.FindByAssignedTo(ctx, playerID)
	if err != nil {
		if errors.Is(err, errors.ErrMissionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mission, nil
}

// HandleAction 处理主持人对玩家的动作结算
// 每次动作后广播 player_updated, 并检查游戏是否结束
func (s *Service) HandleAction(ctx context.Context, playerID uint, action string, guessingPlayerID *uint) (*models.Player, error) {
	player, err := s.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	game, err := s.gameRepo.FindByID(ctx, player.GameID)
	if err != nil {
		return nil, err
	}
	if game.Status == models.StatusFinished {
		return nil, errors.New(errors.ErrGameFinished, "游戏已结束")
	}

	switch action {
	case ActionEliminate:
		if err := s.eliminate(ctx, player, guessingPlayerID); err != nil {
			return nil, err
		}
	case ActionSubtractLife:
		lives := player.Lives - 1
		if lives < 0 {
			lives = 0
		}
		if err := s.playerRepo.UpdateLives(ctx, player.ID, lives); err != nil {
			return nil, err
		}
		if lives == 0 {
			// 生命耗尽直接淘汰, 不计猜中者积分, 不翻开任务
			if err := s.playerRepo.Eliminate(ctx, player.ID); err != nil {
				return nil, err
			}
		}
	case ActionAddPoint:
		if err := s.playerRepo.UpdatePoints(ctx, player.ID, player.Points+1); err != nil {
			return nil, err
		}
	case ActionMissionCompleted:
		if err := s.playerRepo.MarkMissionCompleted(ctx, player.ID); err != nil {
			return nil, err
		}
		if err := s.playerRepo.UpdatePoints(ctx, player.ID, player.Points+1); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf(errors.ErrInvalidAction, "未知动作: %s", action)
	}

	updated, err := s.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastToGame(game.ID, EventPlayerUpdated, map[string]interface{}{
		"player": updated,
	})
	logger.LogGameEvent("player_action", game.ID,
		zap.Uint("player_id", playerID), zap.String("action", action))

	if err := s.checkGameEnd(ctx, game.ID); err != nil {
		return nil, err
	}
	return updated, nil
}

// eliminate 淘汰玩家: 翻开其持有的任务, 猜中者加分
func (s *Service) eliminate(ctx context.Context, player *models.Player, guessingPlayerID *uint) error {
	if err := s.playerRepo.Eliminate(ctx, player.ID); err != nil {
		return err
	}

	mission, err := s.missionRepo.FindByAssignedTo(ctx, player.ID)
	if err == nil {
		if err := s.missionRepo.Reveal(ctx, mission.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, errors.ErrMissionNotFound) {
		return err
	}

	if guessingPlayerID != nil {
		guesser, err := s.playerRepo.FindByID(ctx, *guessingPlayerID)
		if err != nil {
			return err
		}
		if guesser.GameID != player.GameID {
			return errors.New(errors.ErrInvalidParam, "猜中者不在该游戏中")
		}
		if err := s.playerRepo.UpdatePoints(ctx, guesser.ID, guesser.Points+1); err != nil {
			return err
		}
	}
	return nil
}

// checkGameEnd 存活玩家不多于 1 人时结束游戏并广播 game_ended
func (s *Service) checkGameEnd(ctx context.Context, gameID uint) error {
	players, err := s.playerRepo.FindByGameID(ctx, gameID)
	if err != nil {
		return err
	}
	active := 0
	var winner *models.Player
	for _, p := range players {
		if p.IsActive() {
			active++
			winner = p
		}
	}
	if active > 1 {
		return nil
	}

	if err := s.gameRepo.UpdateStatus(ctx, gameID, models.StatusFinished); err != nil {
		return err
	}
	payload := map[string]interface{}{"players": players}
	if winner != nil {
		payload["winner"] = winner
	}
	s.broadcaster.BroadcastToGame(gameID, EventGameEnded, payload)
	logger.LogGameEvent("game_ended", gameID, zap.Int("active", active))
	return nil
}

// EndGame 主持人手动结束游戏
func (s *Service) EndGame(ctx context.Context, gameID uint) (*models.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status == models.StatusFinished {
		return game, nil
	}
	if err := s.gameRepo.UpdateStatus(ctx, gameID, models.StatusFinished); err != nil {
		return nil, err
	}
	game.Status = models.StatusFinished

	players, err := s.playerRepo.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastToGame(gameID, EventGameEnded, map[string]interface{}{
		"players": players,
	})
	logger.LogGameEvent("game_ended_manual", gameID)
	return game, nil
}

// BindSocket 把 websocket 连接绑定到玩家
func (s *Service) BindSocket(ctx context.Context, playerID uint, socketID string) (*models.Player, error) {
	player, err := s.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.playerRepo.UpdateSocketID(ctx, playerID, socketID); err != nil {
		return nil, err
	}
	player.SocketID = socketID
	return player, nil
}
