package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/models"
)

// Assignment 一条分配结果: 任务 -> 接收玩家
type Assignment struct {
	MissionID uint
	PlayerID  uint
}

// MissionAssigner 任务分配引擎
// 洗牌后按位对齐, 再做换位修复, 保证:
//  1. 每个玩家恰好分到一个任务
//  2. 没有玩家分到自己提交的任务
type MissionAssigner struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMissionAssigner 创建任务分配引擎
func NewMissionAssigner() *MissionAssigner {
	return &MissionAssigner{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Assign 计算分配方案, 不落库
// 玩家数与任务数必须相等且不少于 2, 否则返回参数错误
func (a *MissionAssigner) Assign(players []*models.Player, missions []*models.Mission) ([]Assignment, error) {
	if len(players) != len(missions) {
		return nil, errors.Newf(errors.ErrInvalidParam, "玩家数 %d 与任务数 %d 不一致", len(players), len(missions))
	}
	if len(players) < 2 {
		return nil, errors.New(errors.ErrNotEnoughPlayers, "至少需要 2 名玩家才能分配任务")
	}

	shuffled := make([]*models.Mission, len(missions))
	copy(shuffled, missions)

	a.mu.Lock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := a.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	a.mu.Unlock()

	// 换位修复: 位置 i 出现自配时, 向后扫描找一个可交换的位置
	// 每人一条任务的前提下交换总能成功, 且不会破坏已修复的位置
	for i, p := range players {
		if shuffled[i].EnteredBy != p.ID {
			continue
		}
		fixed := false
		for k := 1; k < len(players); k++ {
			j := (i + k) % len(players)
			if shuffled[j].EnteredBy == p.ID || shuffled[i].EnteredBy == players[j].ID {
				continue
			}
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			fixed = true
			break
		}
		if !fixed {
			return nil, errors.New(errors.ErrInvalidAction, "无法生成有效的任务分配方案")
		}
	}

	result := make([]Assignment, len(players))
	for i, p := range players {
		result[i] = Assignment{MissionID: shuffled[i].ID, PlayerID: p.ID}
	}
	return result, nil
}
