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

// PlayerRepositoryTestSuite 玩家仓储测试套件
type PlayerRepositoryTestSuite struct {
	suite.Suite
	db         *gorm.DB
	gameRepo   GameRepository
	playerRepo PlayerRepository
	game       *models.Game
}

func (suite *PlayerRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.gameRepo = NewGameRepository(suite.db)
	suite.playerRepo = NewPlayerRepository(suite.db)

	suite.game = CreateTestGame("482913", models.ModeOnline)
	err := suite.gameRepo.Create(context.Background(), suite.game)
	suite.Require().NoError(err)
}

func (suite *PlayerRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestPlayerRepository_Create 测试创建玩家
func (suite *PlayerRepositoryTestSuite) TestPlayerRepository_Create() {
	ctx := context.Background()

	player := CreateTestPlayer(suite.game.ID, "小明", true)
	err := suite.playerRepo.Create(ctx, player)
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), player.ID)

	found, err := suite.playerRepo.FindByID(ctx, player.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "小明", found.Name)
	assert.Equal(suite.T(), 3, found.Lives)
	assert.Equal(suite.T(), 0, found.Points)
	assert.True(suite.T(), found.IsHost)
	assert.False(suite.T(), found.IsEliminated)
	assert.False(suite.T(), found.MissionCompleted)
}

// TestPlayerRepository_FindByGameID 测试按加入顺序列出玩家
func (suite *PlayerRepositoryTestSuite) TestPlayerRepository_FindByGameID() {
	ctx := context.Background()

	names := []string{"host", "p2", "p3", "p4"}
	for i, name := range names {
		player := CreateTestPlayer(suite.game.ID, name, i == 0)
		err := suite.playerRepo.Create(ctx, player)
		suite.Require().NoError(err)
	}

	players, err := suite.playerRepo.FindByGameID(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), players, 4)
	for i, name := range names {
		assert.Equal(suite.T(), name, players[i].Name)
	}

	// 每局只有一个房主
	hostCount := 0
	for _, p := range players {
		if p.IsHost {
			hostCount++
		}
	}
	assert.Equal(suite.T(), 1, hostCount)
}

// TestPlayerRepository_NotFound 测试不存在的玩家
func (suite *PlayerRepositoryTestSuite) TestPlayerRepository_NotFound() {
	_, err := suite.playerRepo.FindByID(context.Background(), 9999)
	assert.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, errors.ErrPlayerNotFound))
}

// TestPlayerRepository_Mutations 测试单列更新
func (suite *PlayerRepositoryTestSuite) TestPlayerRepository_Mutations() {
	ctx := context.Background()

	player := CreateTestPlayer(suite.game.ID, "小红", false)
	err := suite.playerRepo.Create(ctx, player)
	suite.Require().NoError(err)

	assert.NoError(suite.T(), suite.playerRepo.UpdateSocketID(ctx, player.ID, "sock-abc123"))
	assert.NoError(suite.T(), suite.playerRepo.UpdateLives(ctx, player.ID, 1))
	assert.NoError(suite.T(), suite.playerRepo.UpdatePoints(ctx, player.ID, 5))
	assert.NoError(suite.T(), suite.playerRepo.MarkMissionCompleted(ctx, player.ID))
	assert.NoError(suite.T(), suite.playerRepo.Eliminate(ctx, player.ID))

	found, err := suite.playerRepo.FindByID(ctx, player.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "sock-abc123", found.SocketID)
	assert.Equal(suite.T(), 1, found.Lives)
	assert.Equal(suite.T(), 5, found.Points)
	assert.True(suite.T(), found.MissionCompleted)
	assert.True(suite.T(), found.IsEliminated)
	assert.False(suite.T(), found.IsActive())
}

// TestPlayerRepository_CountByGameID 测试玩家计数
func (suite *PlayerRepositoryTestSuite) TestPlayerRepository_CountByGameID() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		player := CreateTestPlayer(suite.game.ID, "p", i == 0)
		suite.Require().NoError(suite.playerRepo.Create(ctx, player))
	}

	count, err := suite.playerRepo.CountByGameID(ctx, suite.game.ID)
	assert.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, count)
}

func TestPlayerRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PlayerRepositoryTestSuite))
}
