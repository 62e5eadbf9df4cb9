package game

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// RoomCodeGenerator 生成纯数字房间码
// 码长可配置, 首位不为 0, 分布均匀
type RoomCodeGenerator struct {
	length int
	mu     sync.Mutex
	rng    *rand.Rand
}

// NewRoomCodeGenerator 创建房间码生成器
func NewRoomCodeGenerator(length int) *RoomCodeGenerator {
	if length < 4 {
		length = 4
	}
	return &RoomCodeGenerator{
		length: length,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate 生成一个房间码
// 取值范围 [10^(n-1), 10^n), 不保证全局唯一, 唯一性由数据库约束兜底
func (g *RoomCodeGenerator) Generate() string {
	min := int64(1)
	for i := 1; i < g.length; i++ {
		min *= 10
	}
	g.mu.Lock()
	n := min + g.rng.Int63n(min*9)
	g.mu.Unlock()
	return strconv.FormatInt(n, 10)
}

// Length 返回房间码长度
func (g *RoomCodeGenerator) Length() int {
	return g.length
}
