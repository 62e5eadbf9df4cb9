package game

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/wfunc/secret-mission/internal/config"
	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/models"
	"github.com/wfunc/secret-mission/internal/repository"
)

// recordingBroadcaster 记录广播事件供断言
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	GameID uint
	Event  string
	Data   interface{}
}

func (b *recordingBroadcaster) BroadcastToGame(gameID uint, event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{GameID: gameID, Event: event, Data: data})
}

func (b *recordingBroadcaster) byEvent(event string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// conflictGameRepo 模拟房间码始终冲突
type conflictGameRepo struct {
	repository.GameRepository
}

func (r *conflictGameRepo) Create(ctx context.Context, game *models.Game) error {
	return errors.New(errors.ErrRoomCodeConflict, "房间码已被占用")
}

type ServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	svc         *Service
	broadcaster *recordingBroadcaster
	ctx         context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.db = repository.SetupTestDB()
	s.broadcaster = &recordingBroadcaster{}
	s.ctx = context.Background()
	s.svc = NewService(
		repository.NewGameRepository(s.db),
		repository.NewPlayerRepository(s.db),
		repository.NewMissionRepository(s.db),
		s.broadcaster,
		&config.GameConfig{
			DefaultLives:         3,
			DefaultTimerDuration: 30,
			RoomCodeLength:       6,
			RoomCodeMaxAttempts:  5,
			MinPlayers:           2,
		},
	)
}

func (s *ServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(s.db)
}

// setupLobby 创建房间并补齐玩家, 返回游戏与按加入顺序的玩家
func (s *ServiceTestSuite) setupLobby(names ...string) (*models.Game, []*models.Player) {
	game, host, err := s.svc.CreateGame(s.ctx, models.ModeOnline, names[0], "🦊", 30)
	s.Require().NoError(err)

	players := []*models.Player{host}
	for _, name := range names[1:] {
		_, p, err := s.svc.JoinGame(s.ctx, game.RoomCode, name, "")
		s.Require().NoError(err)
		players = append(players, p)
	}
	return game, players
}

// submitAll 每名玩家提交一条任务
func (s *ServiceTestSuite) submitAll(game *models.Game, players []*models.Player) {
	for _, p := range players {
		_, err := s.svc.SubmitMission(s.ctx, game.ID, p.ID, "让"+p.Name+"说出一个秘密")
		s.Require().NoError(err)
	}
}

func (s *ServiceTestSuite) TestCreateGame() {
	game, host, err := s.svc.CreateGame(s.ctx, models.ModeLocal, "小明", "🐱", 0)
	s.NoError(err)
	s.Len(game.RoomCode, 6)
	s.Equal(models.StatusLobby, game.Status)
	s.Equal(30, game.TimerDuration)
	s.Nil(game.TimerStartedAt)
	s.True(host.IsHost)
	s.Equal(3, host.Lives)
	s.Equal(0, host.Points)
}

func (s *ServiceTestSuite) TestCreateGameValidation() {
	_, _, err := s.svc.CreateGame(s.ctx, models.ModeLocal, "  ", "", 30)
	s.True(errors.Is(err, errors.ErrInvalidParam))

	_, _, err = s.svc.CreateGame(s.ctx, "battle", "小明", "", 30)
	s.True(errors.Is(err, errors.ErrInvalidParam))
}

func (s *ServiceTestSuite) TestCreateGameRoomCodeExhausted() {
	svc := NewService(
		&conflictGameRepo{GameRepository: repository.NewGameRepository(s.db)},
		repository.NewPlayerRepository(s.db),
		repository.NewMissionRepository(s.db),
		s.broadcaster,
		&config.GameConfig{DefaultLives: 3, RoomCodeLength: 6, RoomCodeMaxAttempts: 3, MinPlayers: 2},
	)
	_, _, err := svc.CreateGame(s.ctx, models.ModeOnline, "小明", "", 30)
	s.True(errors.Is(err, errors.ErrRoomCodeExhausted))
}

func (s *ServiceTestSuite) TestJoinGame() {
	game, _ := s.setupLobby("小明")

	_, p, err := s.svc.JoinGame(s.ctx, game.RoomCode, "小红", "🐰")
	s.NoError(err)
	s.False(p.IsHost)
	s.Equal(3, p.Lives)

	joined := s.broadcaster.byEvent(EventPlayerJoined)
	s.Len(joined, 1)
	s.Equal(game.ID, joined[0].GameID)
}

func (s *ServiceTestSuite) TestJoinGameUnknownRoom() {
	_, _, err := s.svc.JoinGame(s.ctx, "000000", "小红", "")
	s.True(errors.Is(err, errors.ErrGameNotFound))
}

func (s *ServiceTestSuite) TestJoinGameAfterStart() {
	game, players := s.setupLobby("小明", "小红")
	s.submitAll(game, players)

	_, _, err := s.svc.JoinGame(s.ctx, game.RoomCode, "小刚", "")
	s.True(errors.Is(err, errors.ErrGameAlreadyStarted))
}

func (s *ServiceTestSuite) TestSubmitMissionValidation() {
	game, players := s.setupLobby("小明", "小红")

	_, err := s.svc.SubmitMission(s.ctx, game.ID, players[0].ID, "   ")
	s.True(errors.Is(err, errors.ErrInvalidParam))

	_, err = s.svc.SubmitMission(s.ctx, game.ID, 9999, "任务")
	s.True(errors.Is(err, errors.ErrPlayerNotFound))
}

// 每名玩家只能提交一条任务, 重复提交不计入分配计数
func (s *ServiceTestSuite) TestSubmitMissionTwiceRejected() {
	game, players := s.setupLobby("小明", "小红", "小刚")

	_, err := s.svc.SubmitMission(s.ctx, game.ID, players[0].ID, "第一条任务")
	s.Require().NoError(err)

	_, err = s.svc.SubmitMission(s.ctx, game.ID, players[0].ID, "第二条任务")
	s.True(errors.Is(err, errors.ErrAlreadyExists))

	count, err := repository.NewMissionRepository(s.db).CountByGameID(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(int64(1), count)

	// 其余玩家提交后仍能正常分配
	for _, p := range players[1:] {
		_, err := s.svc.SubmitMission(s.ctx, game.ID, p.ID, "给"+p.Name+"的任务")
		s.Require().NoError(err)
	}
	updated, err := s.svc.GetGameState(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(models.StatusPlaying, updated.Game.Status)
}

func (s *ServiceTestSuite) TestMissionDistribution() {
	game, players := s.setupLobby("小明", "小红", "小刚", "小丽")

	// 前三条提交不触发分配
	for _, p := range players[:3] {
		_, err := s.svc.SubmitMission(s.ctx, game.ID, p.ID, "给"+p.Name+"的任务")
		s.Require().NoError(err)
	}
	state, err := s.svc.GetGameState(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(models.StatusLobby, state.Game.Status)
	s.Empty(s.broadcaster.byEvent(EventMissionsDistributed))

	// 最后一条追平人数, 触发分配
	_, err = s.svc.SubmitMission(s.ctx, game.ID, players[3].ID, "最后一条任务")
	s.NoError(err)

	state, err = s.svc.GetGameState(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(models.StatusPlaying, state.Game.Status)
	s.NotNil(state.Game.TimerStartedAt)

	assignees := make(map[uint]bool)
	authorByID := make(map[uint]uint)
	for _, m := range state.Missions {
		authorByID[m.ID] = m.EnteredBy
		s.Require().NotNil(m.AssignedTo)
		s.False(assignees[*m.AssignedTo], "同一玩家被分配了多条任务")
		assignees[*m.AssignedTo] = true
		s.NotEqual(m.EnteredBy, *m.AssignedTo, "玩家分到了自己的任务")
		s.False(m.IsRevealed)
	}
	s.Len(assignees, 4)
	s.Len(s.broadcaster.byEvent(EventMissionsDistributed), 1)
}

func (s *ServiceTestSuite) TestPlayerMission() {
	game, players := s.setupLobby("小明", "小红")

	// 分配前查询返回空
	mission, err := s.svc.PlayerMission(s.ctx, players[0].ID)
	s.NoError(err)
	s.Nil(mission)

	s.submitAll(game, players)

	mission, err = s.svc.PlayerMission(s.ctx, players[0].ID)
	s.NoError(err)
	s.Require().NotNil(mission)
	s.Equal(players[1].ID, mission.EnteredBy)
}

func (s *ServiceTestSuite) TestSubtractLife() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)
	target := players[1]

	p, err := s.svc.HandleAction(s.ctx, target.ID, ActionSubtractLife, nil)
	s.NoError(err)
	s.Equal(2, p.Lives)
	s.False(p.IsEliminated)
	s.Len(s.broadcaster.byEvent(EventPlayerUpdated), 1)
}

func (s *ServiceTestSuite) TestSubtractLifeToZeroEliminates() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)
	target := players[1]

	for i := 0; i < 3; i++ {
		_, err := s.svc.HandleAction(s.ctx, target.ID, ActionSubtractLife, nil)
		s.Require().NoError(err)
	}

	p, err := s.svc.PlayerMission(s.ctx, target.ID)
	s.NoError(err)
	s.Require().NotNil(p)
	// 生命耗尽淘汰不翻开任务
	s.False(p.IsRevealed)

	state, err := s.svc.GetGameState(s.ctx, game.ID)
	s.NoError(err)
	for _, pl := range state.Players {
		if pl.ID == target.ID {
			s.Equal(0, pl.Lives)
			s.True(pl.IsEliminated)
		}
	}
}

func (s *ServiceTestSuite) TestSubtractLifeFloor() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)
	target := players[1]

	for i := 0; i < 5; i++ {
		p, err := s.svc.HandleAction(s.ctx, target.ID, ActionSubtractLife, nil)
		s.Require().NoError(err)
		s.GreaterOrEqual(p.Lives, 0)
	}
}

func (s *ServiceTestSuite) TestEliminateRevealsAndCredits() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)
	target, guesser := players[1], players[2]

	p, err := s.svc.HandleAction(s.ctx, target.ID, ActionEliminate, &guesser.ID)
	s.NoError(err)
	s.True(p.IsEliminated)

	mission, err := s.svc.PlayerMission(s.ctx, target.ID)
	s.NoError(err)
	s.Require().NotNil(mission)
	s.True(mission.IsRevealed)

	state, err := s.svc.GetGameState(s.ctx, game.ID)
	s.NoError(err)
	for _, pl := range state.Players {
		if pl.ID == guesser.ID {
			s.Equal(1, pl.Points)
		}
	}
}

// 重复淘汰同一名玩家: 状态不变, 但猜中者会再次加分
func (s *ServiceTestSuite) TestEliminateTwiceCreditsGuesserAgain() {
	game, players := s.setupLobby("小明", "小红", "小刚", "小美")
	s.submitAll(game, players)
	target, guesser := players[1], players[2]

	_, err := s.svc.HandleAction(s.ctx, target.ID, ActionEliminate, &guesser.ID)
	s.Require().NoError(err)

	p, err := s.svc.HandleAction(s.ctx, target.ID, ActionEliminate, &guesser.ID)
	s.NoError(err)
	s.True(p.IsEliminated)

	state, err := s.svc.GetGameState(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(models.StatusPlaying, state.Game.Status)
	for _, pl := range state.Players {
		if pl.ID == guesser.ID {
			s.Equal(2, pl.Points)
		}
	}
}

func (s *ServiceTestSuite) TestEliminateGuesserMustShareGame() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)

	other, otherPlayers := s.setupLobby("路人甲", "路人乙")
	_ = other

	_, err := s.svc.HandleAction(s.ctx, players[1].ID, ActionEliminate, &otherPlayers[0].ID)
	s.True(errors.Is(err, errors.ErrInvalidParam))
	_ = game
}

func (s *ServiceTestSuite) TestAddPoint() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)

	p, err := s.svc.HandleAction(s.ctx, players[0].ID, ActionAddPoint, nil)
	s.NoError(err)
	s.Equal(1, p.Points)
}

func (s *ServiceTestSuite) TestMissionCompleted() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)

	p, err := s.svc.HandleAction(s.ctx, players[0].ID, ActionMissionCompleted, nil)
	s.NoError(err)
	s.True(p.MissionCompleted)
	s.Equal(1, p.Points)
}

func (s *ServiceTestSuite) TestUnknownAction() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)

	_, err := s.svc.HandleAction(s.ctx, players[0].ID, "steal_points", nil)
	s.True(errors.Is(err, errors.ErrInvalidAction))
}

func (s *ServiceTestSuite) TestGameEndsWhenOneActiveLeft() {
	game, players := s.setupLobby("小明", "小红", "小刚")
	s.submitAll(game, players)

	_, err := s.svc.HandleAction(s.ctx, players[1].ID, ActionEliminate, nil)
	s.Require().NoError(err)
	s.Empty(s.broadcaster.byEvent(EventGameEnded))

	_, err = s.svc.HandleAction(s.ctx, players[2].ID, ActionEliminate, nil)
	s.Require().NoError(err)

	state, err := s.svc.GetGameState(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(models.StatusFinished, state.Game.Status)

	ended := s.broadcaster.byEvent(EventGameEnded)
	s.Require().Len(ended, 1)
	payload, ok := ended[0].Data.(map[string]interface{})
	s.Require().True(ok)
	winner, ok := payload["winner"].(*models.Player)
	s.Require().True(ok)
	s.Equal(players[0].ID, winner.ID)
}

func (s *ServiceTestSuite) TestActionAfterFinish() {
	game, players := s.setupLobby("小明", "小红")
	s.submitAll(game, players)

	_, err := s.svc.EndGame(s.ctx, game.ID)
	s.Require().NoError(err)

	_, err = s.svc.HandleAction(s.ctx, players[0].ID, ActionAddPoint, nil)
	s.True(errors.Is(err, errors.ErrGameFinished))
}

func (s *ServiceTestSuite) TestEndGameIdempotent() {
	game, _ := s.setupLobby("小明", "小红")

	g, err := s.svc.EndGame(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(models.StatusFinished, g.Status)
	s.Len(s.broadcaster.byEvent(EventGameEnded), 1)

	g, err = s.svc.EndGame(s.ctx, game.ID)
	s.NoError(err)
	s.Equal(models.StatusFinished, g.Status)
	// 重复结束不再广播
	s.Len(s.broadcaster.byEvent(EventGameEnded), 1)
}

func (s *ServiceTestSuite) TestBindSocket() {
	_, players := s.setupLobby("小明", "小红")

	p, err := s.svc.BindSocket(s.ctx, players[0].ID, "socket-abc")
	s.NoError(err)
	s.Equal("socket-abc", p.SocketID)

	_, err = s.svc.BindSocket(s.ctx, 9999, "socket-x")
	s.True(errors.Is(err, errors.ErrPlayerNotFound))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
