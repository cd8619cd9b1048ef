package customer

import (
	"context"
	"fmt"
	"time"

	"enrollment-api/internal/pkg/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

	ErrEmailTaken = fmt.Errorf("%w: a customer with this email already exists", apperrors.ErrConflict)

	// ErrUpdateConflict is returned when the stored MFA state no longer
	// matches the state the caller read.
	ErrUpdateConflict = fmt.Errorf("%w: customer was modified concurrently", apperrors.ErrConflict)
)

type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// FindByIdentity returns every customer whose stored account number, SSN
	// and date of birth equal the arguments, ordered by id.
	FindByIdentity(ctx context.Context, accountNumber, ssn string, dob time.Time) ([]*Customer, error)

	// UpdateMFAState replaces the MFA fields only if the stored state still
	// equals expected; otherwise it returns ErrUpdateConflict.
	UpdateMFAState(ctx context.Context, customerID int64, expected, next MFAState) error

	Stats(ctx context.Context) (*EnrollmentStats, error)
}
