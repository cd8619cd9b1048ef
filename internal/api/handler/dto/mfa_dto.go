package dto

import (
	"enrollment-api/internal/domain/mfa"
	"time"
)

// MFACodeRequest is the body of verify, enable, disable and backup-code
// redemption.
type MFACodeRequest struct {
	CustomerID int64  `json:"customerId" validate:"gt=0"`
	Code       string `json:"code" validate:"required,len=6,mfacode"`
}

func (r *MFACodeRequest) Validate() error {
	return validateStruct(r)
}

type QRCodeRequest struct {
	Secret string `json:"secret" validate:"required,max=64"`
	Email  string `json:"email" validate:"required,max=100,email"`
}

func (r *QRCodeRequest) Validate() error {
	return validateStruct(r)
}

type MFASetupResponse struct {
	CustomerID  int64    `json:"customerId"`
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qrCodeUrl"`
	BackupCodes []string `json:"backupCodes"`
}

func NewMFASetupResponse(res *mfa.SetupResult) MFASetupResponse {
	if res == nil {
		return MFASetupResponse{}
	}
	return MFASetupResponse{
		CustomerID:  res.CustomerID,
		Secret:      res.Secret,
		QRCodeURL:   res.ProvisioningURI,
		BackupCodes: res.BackupCodes,
	}
}

type MFAStatusResponse struct {
	CustomerID int64      `json:"customerId"`
	IsEnabled  bool       `json:"isEnabled"`
	EnabledAt  *time.Time `json:"enabledAt,omitempty"`
	Secret     *string    `json:"secret,omitempty"`
	QRCodeURL  *string    `json:"qrCodeUrl,omitempty"`
}

func NewMFAStatusResponse(st *mfa.Status) MFAStatusResponse {
	if st == nil {
		return MFAStatusResponse{}
	}
	return MFAStatusResponse{
		CustomerID: st.CustomerID,
		IsEnabled:  st.IsEnabled,
		EnabledAt:  st.EnabledAt,
		Secret:     st.Secret,
		QRCodeURL:  st.ProvisioningURI,
	}
}

type MFAVerifyResponse struct {
	IsValid bool `json:"isValid"`
}

type MFAToggleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type QRCodeResponse struct {
	QRCodeURL string `json:"qrCodeUrl"`
}
