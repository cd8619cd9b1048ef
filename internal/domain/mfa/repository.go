package mfa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/pkg/apperrors"

	"github.com/google/uuid"
)

var (
	ErrAlreadyEnabled = fmt.Errorf("%w: MFA is already enabled for this customer", apperrors.ErrInvalidState)

	ErrInvalidSecret = errors.New("invalid MFA secret")

	// ErrBackupCodeUsed is returned by MarkBackupCodeUsed when the code was
	// consumed by a concurrent request.
	ErrBackupCodeUsed = fmt.Errorf("%w: backup code already used", apperrors.ErrConflict)
)

// CustomerStore is the customer-record accessor the MFA lifecycle needs.
type CustomerStore interface {
	FindByID(ctx context.Context, customerID int64) (*customer.Customer, error)
	UpdateMFAState(ctx context.Context, customerID int64, expected, next customer.MFAState) error
}

type BackupCode struct {
	ID         uuid.UUID
	CustomerID int64
	CodeHash   string
	UsedAt     *time.Time
	CreatedAt  time.Time
}

type BackupCodeStore interface {
	// ProvisionSecret stores secret as the customer's pending secret and
	// replaces the whole backup-code set in one transaction. It fails with
	// customer.ErrUpdateConflict when the MFA state no longer equals expected.
	ProvisionSecret(ctx context.Context, customerID int64, expected customer.MFAState, secret string, codes []BackupCode) error

	ListUnusedBackupCodes(ctx context.Context, customerID int64) ([]BackupCode, error)

	MarkBackupCodeUsed(ctx context.Context, codeID uuid.UUID, usedAt time.Time) error

	DeleteBackupCodes(ctx context.Context, customerID int64) error
}
