package mfa

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base32 of the ASCII key "12345678901234567890".
const rfc6238Secret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateCode_RFC6238Vectors(t *testing.T) {
	tests := []struct {
		unix     int64
		expected string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
		{20000000000, "353130"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			code, err := GenerateCode(rfc6238Secret, time.Unix(tt.unix, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestGenerateCode_StepBoundaries(t *testing.T) {
	stepStart := time.Unix(1111111110, 0)

	first, err := GenerateCode(rfc6238Secret, stepStart)
	require.NoError(t, err)
	last, err := GenerateCode(rfc6238Secret, stepStart.Add(29*time.Second))
	require.NoError(t, err)
	next, err := GenerateCode(rfc6238Secret, stepStart.Add(30*time.Second))
	require.NoError(t, err)

	assert.Equal(t, first, last, "codes within one step must match")
	assert.NotEqual(t, first, next, "the next step must yield a different code")
}

func TestGenerateCode_SecretNormalization(t *testing.T) {
	at := time.Unix(1234567890, 0)

	lower, err := GenerateCode(strings.ToLower(rfc6238Secret), at)
	require.NoError(t, err)
	assert.Equal(t, "005924", lower)

	unpadded, err := GenerateCode("JBSWY3DPEHPK3PXP", at)
	require.NoError(t, err)
	assert.Len(t, unpadded, Digits)

	short, err := GenerateCode("GEZDGNBV", at)
	require.NoError(t, err)
	assert.Len(t, short, Digits)
}

func TestGenerateCode_InvalidSecret(t *testing.T) {
	for _, secret := range []string{"", "   ", "not base32!", "18189181"} {
		_, err := GenerateCode(secret, time.Now())
		assert.ErrorIs(t, err, ErrInvalidSecret, secret)
	}
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, secret, SecretLength)
	assert.NotContains(t, secret, "=")

	key, err := decodeSecret(secret)
	require.NoError(t, err)
	assert.Len(t, key, SecretBytes)

	other, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestGenerateSecret_Deterministic(t *testing.T) {
	secret, err := generateSecret(bytes.NewReader(make([]byte, SecretBytes)))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", SecretLength), secret)

	_, err = generateSecret(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestProvisioningURI(t *testing.T) {
	t.Run("Plain values", func(t *testing.T) {
		uri := ProvisioningURI("EnrollmentAPI", "jane@example.com", "JBSWY3DPEHPK3PXP")
		assert.Equal(t,
			"otpauth://totp/EnrollmentAPI:jane%40example.com?secret=JBSWY3DPEHPK3PXP&issuer=EnrollmentAPI&algorithm=SHA1&digits=6&period=30",
			uri)
	})

	t.Run("Escapes issuer and account", func(t *testing.T) {
		uri := ProvisioningURI("Acme Bank", "jane+doe@example.com", "ABC")
		assert.Equal(t,
			"otpauth://totp/Acme%20Bank:jane%2Bdoe%40example.com?secret=ABC&issuer=Acme%20Bank&algorithm=SHA1&digits=6&period=30",
			uri)
	})
}

func TestGenerateBackupCodes(t *testing.T) {
	codes, err := GenerateBackupCodes()
	require.NoError(t, err)
	require.Len(t, codes, BackupCodeCount)
	for _, c := range codes {
		assert.True(t, isSixDigits(c), c)
	}
}

func TestGenerateBackupCodes_Deterministic(t *testing.T) {
	src := bytes.NewReader([]byte{
		0x01, 0x00, 0x00, 0x00,
		0xff, 0xff, 0xff, 0xff,
		0x40, 0x42, 0x0f, 0x00,
	})

	codes, err := generateBackupCodes(src, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "967295", "000000"}, codes)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateBackupCodes_ReaderFailure(t *testing.T) {
	_, err := generateBackupCodes(failingReader{}, 1)
	assert.ErrorContains(t, err, "entropy exhausted")
}

func TestIsSixDigits(t *testing.T) {
	assert.True(t, isSixDigits("012345"))
	assert.False(t, isSixDigits("12345"))
	assert.False(t, isSixDigits("1234567"))
	assert.False(t, isSixDigits("12a456"))
	assert.False(t, isSixDigits(""))
}
