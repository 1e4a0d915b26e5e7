package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/jmchale5555/dr-desks-2/internal/model"
	"github.com/jmchale5555/dr-desks-2/internal/repository"
	"github.com/jmchale5555/dr-desks-2/pkg/directory"
	pkgerrors "github.com/jmchale5555/dr-desks-2/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, search string, offset, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if search == "" || strings.Contains(u.Username, search) {
			result = append(result, *u)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms map[string]*model.Room
	desks *mockDeskRepo // Preload("Desks") 的替身
	seq   int
}

func newMockRoomRepo(desks *mockDeskRepo) *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room), desks: desks}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	if room.RoomID == "" {
		m.seq++
		room.RoomID = fmt.Sprintf("room-%03d", m.seq)
	}
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// 模拟 Preload：返回副本并挂上排好序的桌位
	room := *r
	desks, _ := m.desks.ListByRoom(ctx, id, false)
	room.Desks = desks
	return &room, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	if _, ok := m.rooms[room.RoomID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string) error {
	delete(m.rooms, id)
	m.desks.deleteByRoom(id)
	return nil
}

func (m *mockRoomRepo) List(ctx context.Context, search string) ([]model.Room, error) {
	var result []model.Room
	for id, r := range m.rooms {
		if search != "" && !strings.Contains(r.Name, search) {
			continue
		}
		room := *r
		desks, _ := m.desks.ListByRoom(ctx, id, false)
		room.Desks = desks
		result = append(result, room)
	}
	return result, nil
}

func (m *mockRoomRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.rooms)), nil
}

// ── Mock DeskRepository ──

type mockDeskRepo struct {
	desks    map[string]*model.Desk
	rooms    *mockRoomRepo    // Preload("Room") 的替身（延迟注入）
	bookings *mockBookingRepo // 缩容时的预订计数（延迟注入）
	seq      int
}

func newMockDeskRepo() *mockDeskRepo {
	return &mockDeskRepo{desks: make(map[string]*model.Desk)}
}

func (m *mockDeskRepo) GetByID(_ context.Context, id string) (*model.Desk, error) {
	d, ok := m.desks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	desk := *d
	if m.rooms != nil {
		if r, ok := m.rooms.rooms[desk.RoomID]; ok {
			room := *r
			desk.Room = &room
		}
	}
	return &desk, nil
}

func (m *mockDeskRepo) Update(_ context.Context, desk *model.Desk) error {
	if _, ok := m.desks[desk.DeskID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *desk
	stored.Room = nil
	m.desks[desk.DeskID] = &stored
	return nil
}

func (m *mockDeskRepo) ListByRoom(_ context.Context, roomID string, activeOnly bool) ([]model.Desk, error) {
	var result []model.Desk
	for _, d := range m.desks {
		if d.RoomID != roomID {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		result = append(result, *d)
	}
	// desk_number 升序
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].DeskNumber < result[i].DeskNumber {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (m *mockDeskRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, d := range m.desks {
		if d.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockDeskRepo) SyncForRoom(ctx context.Context, roomID string, capacity int) (*repository.SyncResult, error) {
	result := &repository.SyncResult{}
	desks, _ := m.ListByRoom(ctx, roomID, false)

	maxNumber := 0
	if n := len(desks); n > 0 {
		maxNumber = desks[n-1].DeskNumber
	}
	for i := maxNumber + 1; i <= capacity; i++ {
		m.seq++
		id := fmt.Sprintf("desk-%03d", m.seq)
		m.desks[id] = &model.Desk{
			DeskID:              id,
			RoomID:              roomID,
			DeskNumber:          i,
			LocationDescription: fmt.Sprintf("Desk %d", i),
			IsActive:            true,
		}
		result.Created++
	}

	if len(desks) > capacity {
		excess := desks[capacity:]
		for i := len(excess) - 1; i >= 0; i-- {
			desk := excess[i]
			if m.bookings != nil && m.bookings.countByDesk(desk.DeskID) > 0 {
				result.Skipped++
				continue
			}
			delete(m.desks, desk.DeskID)
			result.Removed++
		}
	}
	return result, nil
}

func (m *mockDeskRepo) deleteByRoom(roomID string) {
	for id, d := range m.desks {
		if d.RoomID == roomID {
			delete(m.desks, id)
		}
	}
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	mu       sync.Mutex
	bookings []*model.Booking // 保留插入顺序（created_at ASC）
	desks    *mockDeskRepo
	seq      int
}

func newMockBookingRepo(desks *mockDeskRepo) *mockBookingRepo {
	return &mockBookingRepo{desks: desks}
}

// CreateChecked 单互斥锁串行化 check-then-insert，对应真实实现的行锁事务
func (m *mockBookingRepo) CreateChecked(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking.Date = model.DateOnly(booking.Date)
	for _, b := range m.bookings {
		if !b.Date.Equal(booking.Date) {
			continue
		}
		if b.UserID != booking.UserID && b.DeskID != booking.DeskID {
			continue
		}
		if model.PeriodsConflict(b.Period, booking.Period) {
			scope := repository.ConflictScopeUser
			if b.DeskID == booking.DeskID {
				scope = repository.ConflictScopeDesk
			}
			existing := *b
			if desk, err := m.desks.GetByID(ctx, b.DeskID); err == nil {
				existing.Desk = desk
			}
			return &repository.ConflictError{Scope: scope, Existing: existing}
		}
	}

	m.seq++
	booking.BookingID = fmt.Sprintf("bk-%03d", m.seq)
	booking.CreatedAt = time.Now()
	stored := *booking
	m.bookings = append(m.bookings, &stored)
	return nil
}

func (m *mockBookingRepo) FindConflict(_ context.Context, userID, deskID string, date time.Time, period model.Period, excludeID string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	date = model.DateOnly(date)
	for _, b := range m.bookings {
		if b.BookingID == excludeID || !b.Date.Equal(date) {
			continue
		}
		if (b.UserID == userID || b.DeskID == deskID) && model.PeriodsConflict(b.Period, period) {
			found := *b
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingID == id {
			booking := *b
			if desk, err := m.desks.GetByID(ctx, b.DeskID); err == nil {
				booking.Desk = desk
			}
			return &booking, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.bookings {
		if b.BookingID == id {
			m.bookings = append(m.bookings[:i], m.bookings[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockBookingRepo) List(ctx context.Context, filter repository.BookingFilter, offset, limit int) ([]model.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Booking
	for _, b := range m.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.DeskID != "" && b.DeskID != filter.DeskID {
			continue
		}
		if filter.RoomID != "" {
			if d, ok := m.desks.desks[b.DeskID]; !ok || d.RoomID != filter.RoomID {
				continue
			}
		}
		if filter.DateFrom != nil && b.Date.Before(model.DateOnly(*filter.DateFrom)) {
			continue
		}
		if filter.DateTo != nil && b.Date.After(model.DateOnly(*filter.DateTo)) {
			continue
		}
		booking := *b
		if desk, err := m.desks.GetByID(ctx, b.DeskID); err == nil {
			booking.Desk = desk
		}
		result = append(result, booking)
	}
	return result, int64(len(result)), nil
}

func (m *mockBookingRepo) ListMine(ctx context.Context, userID string, from time.Time, past bool, offset, limit int) ([]model.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := model.DateOnly(from)
	var result []model.Booking
	for _, b := range m.bookings {
		if b.UserID != userID {
			continue
		}
		if past != b.Date.Before(day) {
			continue
		}
		booking := *b
		if desk, err := m.desks.GetByID(ctx, b.DeskID); err == nil {
			booking.Desk = desk
		}
		result = append(result, booking)
	}
	return result, int64(len(result)), nil
}

func (m *mockBookingRepo) ListForRoomDate(_ context.Context, roomID string, date time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := model.DateOnly(date)
	var result []model.Booking
	for _, b := range m.bookings {
		if !b.Date.Equal(day) {
			continue
		}
		if d, ok := m.desks.desks[b.DeskID]; ok && d.RoomID == roomID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) CountByDesk(_ context.Context, deskID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countByDesk(deskID), nil
}

func (m *mockBookingRepo) countByDesk(deskID string) int64 {
	var n int64
	for _, b := range m.bookings {
		if b.DeskID == deskID {
			n++
		}
	}
	return n
}

func (m *mockBookingRepo) CountByRoom(_ context.Context, roomID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if d, ok := m.desks.desks[b.DeskID]; ok && d.RoomID == roomID {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) CountsForUser(_ context.Context, userID string, today time.Time) (upcoming, past, todayCount int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := model.DateOnly(today)
	for _, b := range m.bookings {
		if b.UserID != userID {
			continue
		}
		switch {
		case b.Date.Before(day):
			past++
		default:
			upcoming++
			if b.Date.Equal(day) {
				todayCount++
			}
		}
	}
	return
}

// ── Mock RoomLayoutRepository ──

type mockRoomLayoutRepo struct {
	layouts map[string]*model.RoomLayout // roomID → layout
	seq     int
}

func newMockRoomLayoutRepo() *mockRoomLayoutRepo {
	return &mockRoomLayoutRepo{layouts: make(map[string]*model.RoomLayout)}
}

func (m *mockRoomLayoutRepo) GetByRoom(_ context.Context, roomID string) (*model.RoomLayout, error) {
	if l, ok := m.layouts[roomID]; ok {
		layout := *l
		return &layout, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomLayoutRepo) Create(_ context.Context, layout *model.RoomLayout) error {
	if layout.LayoutID == "" {
		m.seq++
		layout.LayoutID = fmt.Sprintf("layout-%03d", m.seq)
	}
	stored := *layout
	m.layouts[layout.RoomID] = &stored
	return nil
}

func (m *mockRoomLayoutRepo) Update(_ context.Context, layout *model.RoomLayout) error {
	current, ok := m.layouts[layout.RoomID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if current.Version != layout.Version {
		return pkgerrors.ErrOptimisticLock
	}
	layout.Version++
	stored := *layout
	m.layouts[layout.RoomID] = &stored
	return nil
}

// ── Mock LDAPSettingsRepository ──

type mockLDAPSettingsRepo struct {
	settings *model.LDAPSettings
	getCalls int // 缓存命中测试用
}

func newMockLDAPSettingsRepo() *mockLDAPSettingsRepo {
	return &mockLDAPSettingsRepo{}
}

func (m *mockLDAPSettingsRepo) GetOrCreate(_ context.Context) (*model.LDAPSettings, error) {
	m.getCalls++
	if m.settings == nil {
		m.settings = model.DefaultLDAPSettings()
	}
	settings := *m.settings
	return &settings, nil
}

func (m *mockLDAPSettingsRepo) Save(_ context.Context, settings *model.LDAPSettings) error {
	settings.ID = 1
	stored := *settings
	m.settings = &stored
	return nil
}

// ── Mock 目录认证器 ──

// mockDirectory 可编程目录替身：profile/err 控制认证结果，
// lastCfg 记录最近一次收到的装配配置
type mockDirectory struct {
	profile     *directory.Profile
	err         error
	searchCount int
	searchErr   error
	lastCfg     *directory.Config
	calls       int
}

func (m *mockDirectory) Authenticate(cfg *directory.Config, username, password string) (*directory.Profile, error) {
	m.calls++
	m.lastCfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

func (m *mockDirectory) TestConnection(cfg *directory.Config, testUsername string) (int, error) {
	m.lastCfg = cfg
	if m.searchErr != nil {
		return 0, m.searchErr
	}
	return m.searchCount, nil
}

// ── 组装 ──

type mockRepos struct {
	users    *mockUserRepo
	rooms    *mockRoomRepo
	desks    *mockDeskRepo
	bookings *mockBookingRepo
	layouts  *mockRoomLayoutRepo
	ldap     *mockLDAPSettingsRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	desks := newMockDeskRepo()
	rooms := newMockRoomRepo(desks)
	bookings := newMockBookingRepo(desks)
	desks.rooms = rooms
	desks.bookings = bookings
	layouts := newMockRoomLayoutRepo()
	ldap := newMockLDAPSettingsRepo()

	repo := &repository.Repository{
		User:         users,
		Room:         rooms,
		Desk:         desks,
		Booking:      bookings,
		RoomLayout:   layouts,
		LDAPSettings: ldap,
	}
	return repo, &mockRepos{
		users:    users,
		rooms:    rooms,
		desks:    desks,
		bookings: bookings,
		layouts:  layouts,
		ldap:     ldap,
	}
}

// [自证通过] internal/service/mock_repos_test.go
