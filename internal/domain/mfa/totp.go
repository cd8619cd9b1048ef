package mfa

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

const (
	Algorithm = "SHA1"
	Digits    = 6
	Period    = 30

	SecretBytes     = 20
	SecretLength    = 32
	BackupCodeCount = 10

	codeModulus = 1_000_000
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh 32-character base32 secret backed by 20
// bytes from crypto/rand.
func GenerateSecret() (string, error) {
	return generateSecret(rand.Reader)
}

func generateSecret(r io.Reader) (string, error) {
	buf := make([]byte, SecretBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for secret: %w", err)
	}
	return secretEncoding.EncodeToString(buf), nil
}

// GenerateCode derives the 6-digit TOTP code for secret at the given instant.
func GenerateCode(secret string, at time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, counterAt(at)), nil
}

func counterAt(at time.Time) uint64 {
	return uint64(at.Unix()) / Period
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(secret))
	if s == "" {
		return nil, fmt.Errorf("%w: secret is empty", ErrInvalidSecret)
	}
	if rem := len(s) % 8; rem != 0 {
		s += strings.Repeat("=", 8-rem)
	}
	key, err := base32.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}
	return key, nil
}

func hotp(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0F
	value := uint32(sum[offset]&0x7F)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	return fmt.Sprintf("%0*d", Digits, value%codeModulus)
}

// ProvisioningURI builds the otpauth URI authenticator apps scan.
func ProvisioningURI(issuer, account, secret string) string {
	escIssuer := escape(issuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=%s&digits=%d&period=%d",
		escIssuer, escape(account), escape(secret), escIssuer, Algorithm, Digits, Period)
}

// escape percent-encodes everything outside the RFC 3986 unreserved set.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// GenerateBackupCodes returns BackupCodeCount independent 6-digit codes.
func GenerateBackupCodes() ([]string, error) {
	return generateBackupCodes(rand.Reader, BackupCodeCount)
}

func generateBackupCodes(r io.Reader, n int) ([]string, error) {
	codes := make([]string, n)
	var buf [4]byte
	for i := range codes {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read random bytes for backup code: %w", err)
		}
		codes[i] = fmt.Sprintf("%06d", binary.LittleEndian.Uint32(buf[:])%codeModulus)
	}
	return codes, nil
}
