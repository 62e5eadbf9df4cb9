package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/models"
	"gorm.io/gorm"
)

// GameRepositoryTestSuite 游戏仓储测试套件
type GameRepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	gameRepo    GameRepository
	playerRepo  PlayerRepository
	missionRepo MissionRepository
}

func (suite *GameRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.gameRepo = NewGameRepository(suite.db)
	suite.playerRepo = NewPlayerRepository(suite.db)
	suite.missionRepo = NewMissionRepository(suite.db)
}

func (suite *GameRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestGameRepository_Create 测试创建游戏
func (suite *GameRepositoryTestSuite) TestGameRepository_Create() {
	ctx := context.Background()

	game := CreateTestGame("482913", models.ModeOnline)
	err := suite.gameRepo.Create(ctx, game)
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), game.ID)

	// 验证数据
	found, err := suite.gameRepo.FindByID(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "482913", found.RoomCode)
	assert.Equal(suite.T(), models.StatusLobby, found.Status)
	assert.Nil(suite.T(), found.TimerStartedAt)
}

// TestGameRepository_CreateDuplicateRoomCode 测试房间码冲突
func (suite *GameRepositoryTestSuite) TestGameRepository_CreateDuplicateRoomCode() {
	ctx := context.Background()

	err := suite.gameRepo.Create(ctx, CreateTestGame("482913", models.ModeOnline))
	assert.NoError(suite.T(), err)

	// 相同房间码再次创建应返回冲突
	err = suite.gameRepo.Create(ctx, CreateTestGame("482913", models.ModeLocal))
	assert.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, errors.ErrRoomCodeConflict))
}

// TestGameRepository_FindByRoomCode 测试根据房间码查找
func (suite *GameRepositoryTestSuite) TestGameRepository_FindByRoomCode() {
	ctx := context.Background()

	game := CreateTestGame("123456", models.ModeOnline)
	err := suite.gameRepo.Create(ctx, game)
	assert.NoError(suite.T(), err)

	found, err := suite.gameRepo.FindByRoomCode(ctx, "123456")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), game.ID, found.ID)

	// 未知房间码
	_, err = suite.gameRepo.FindByRoomCode(ctx, "000000")
	assert.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotFound))
}

// TestGameRepository_UpdateStatus 测试状态更新
func (suite *GameRepositoryTestSuite) TestGameRepository_UpdateStatus() {
	ctx := context.Background()

	game := CreateTestGame("111222", models.ModeOnline)
	err := suite.gameRepo.Create(ctx, game)
	assert.NoError(suite.T(), err)

	err = suite.gameRepo.UpdateStatus(ctx, game.ID, models.StatusFinished)
	assert.NoError(suite.T(), err)

	found, err := suite.gameRepo.FindByID(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusFinished, found.Status)
}

// TestGameRepository_StartTimer 测试开始计时
func (suite *GameRepositoryTestSuite) TestGameRepository_StartTimer() {
	ctx := context.Background()

	game := CreateTestGame("333444", models.ModeOnline)
	err := suite.gameRepo.Create(ctx, game)
	assert.NoError(suite.T(), err)

	err = suite.gameRepo.StartTimer(ctx, game.ID)
	assert.NoError(suite.T(), err)

	found, err := suite.gameRepo.FindByID(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusPlaying, found.Status)
	assert.NotNil(suite.T(), found.TimerStartedAt)

	// 重复调用不会重置计时起点
	firstStart := *found.TimerStartedAt
	err = suite.gameRepo.StartTimer(ctx, game.ID)
	assert.NoError(suite.T(), err)

	found, err = suite.gameRepo.FindByID(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), firstStart.Unix(), found.TimerStartedAt.Unix())
}

// TestGameRepository_CascadeDelete 测试级联删除
func (suite *GameRepositoryTestSuite) TestGameRepository_CascadeDelete() {
	ctx := context.Background()

	game := CreateTestGame("555666", models.ModeOnline)
	err := suite.gameRepo.Create(ctx, game)
	assert.NoError(suite.T(), err)

	host := CreateTestPlayer(game.ID, "host", true)
	err = suite.playerRepo.Create(ctx, host)
	assert.NoError(suite.T(), err)

	mission := CreateTestMission(game.ID, host.ID, "偷偷学猫叫三声")
	err = suite.missionRepo.Create(ctx, mission)
	assert.NoError(suite.T(), err)

	// 硬删除游戏后玩家与任务应一并消失
	err = suite.db.Unscoped().Delete(&models.Game{}, game.ID).Error
	assert.NoError(suite.T(), err)

	var playerCount, missionCount int64
	suite.db.Model(&models.Player{}).Where("game_id = ?", game.ID).Count(&playerCount)
	suite.db.Model(&models.Mission{}).Where("game_id = ?", game.ID).Count(&missionCount)
	assert.Zero(suite.T(), playerCount)
	assert.Zero(suite.T(), missionCount)
}

func TestGameRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(GameRepositoryTestSuite))
}
