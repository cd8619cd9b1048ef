package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/domain/mfa"
	"enrollment-api/internal/infrastructure/monitoring"
	"enrollment-api/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `id, first_name, last_name, email, phone_number, account_number,
        address, city, state, zip_code, country, date_of_birth, ssn, status,
        created_at, updated_at, is_mfa_enabled, mfa_secret, mfa_enabled_at`

const (
	insertCustomerQuery = `
        INSERT INTO customers (first_name, last_name, email, phone_number, account_number,
            address, city, state, zip_code, country, date_of_birth, ssn, status,
            is_mfa_enabled, mfa_secret, mfa_enabled_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	findCustomerByIDQuery = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE id = $1`

	findCustomerByEmailQuery = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE lower(email) = lower($1)`

	findCustomersByIdentityQuery = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE account_number = $1 AND ssn = $2 AND date_of_birth = $3::date
        ORDER BY id ASC`

	updateMFAStateQuery = `
        UPDATE customers
        SET is_mfa_enabled = $1,
            mfa_secret = $2,
            mfa_enabled_at = $3,
            updated_at = NOW()
        WHERE id = $4
          AND is_mfa_enabled = $5
          AND mfa_secret IS NOT DISTINCT FROM $6`

	customerExistsQuery = `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`

	enrollmentStatsQuery = `
        SELECT COUNT(*),
            COUNT(*) FILTER (WHERE status = 'Pending'),
            COUNT(*) FILTER (WHERE status = 'InProgress'),
            COUNT(*) FILTER (WHERE status = 'Completed'),
            COUNT(*) FILTER (WHERE status = 'Rejected'),
            COUNT(*) FILTER (WHERE status = 'Cancelled'),
            COUNT(*) FILTER (WHERE is_mfa_enabled)
        FROM customers`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var (
	_ customer.CustomerRepository = (*CustomerRepository)(nil)
	_ mfa.CustomerStore           = (*CustomerRepository)(nil)
)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

// Save inserts a new customer and fills in its generated id and timestamps.
func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	if cust.CustomerID != 0 {
		return fmt.Errorf("%w: customer %d already persisted", apperrors.ErrInvalidArgument, cust.CustomerID)
	}

	r.logger.InfoContext(ctx, "Attempting to insert new customer")
	start := time.Now()

	err := r.db.QueryRow(ctx, insertCustomerQuery,
		cust.FirstName,
		cust.LastName,
		cust.Email,
		cust.PhoneNumber,
		cust.AccountNumber,
		cust.Address,
		cust.City,
		cust.State,
		cust.ZipCode,
		cust.Country,
		cust.DateOfBirth,
		cust.SSN,
		string(cust.Status),
		cust.IsMFAEnabled,
		cust.MFASecret,
		cust.MFAEnabledAt,
	).Scan(
		&cust.CustomerID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	monitoring.RecordDBQuery("InsertCustomer", queryStatus(err), time.Since(start))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation")
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Attempting to find customer by ID")
	start := time.Now()

	cust, err := scanCustomer(r.db.QueryRow(ctx, findCustomerByIDQuery, customerID))
	monitoring.RecordDBQuery("FindCustomerByID", queryStatus(err), time.Since(start))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logCtx.WarnContext(ctx, "Customer not found")
			return nil, customer.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	return cust, nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to find customer by email")
	start := time.Now()

	cust, err := scanCustomer(r.db.QueryRow(ctx, findCustomerByEmailQuery, email))
	monitoring.RecordDBQuery("FindCustomerByEmail", queryStatus(err), time.Since(start))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by email", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by email: %w", apperrors.ErrDatabase, err)
	}

	return cust, nil
}

func (r *CustomerRepository) FindByIdentity(ctx context.Context, accountNumber, ssn string, dob time.Time) ([]*customer.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to find customers by identity")
	start := time.Now()

	rows, err := r.db.Query(ctx, findCustomersByIdentityQuery, accountNumber, ssn, customer.DateOnly(dob))
	if err != nil {
		monitoring.RecordDBQuery("FindCustomersByIdentity", statusError, time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query customers by identity", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers by identity: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0, 1)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			monitoring.RecordDBQuery("FindCustomersByIdentity", statusError, time.Since(start))
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}
	if err = rows.Err(); err != nil {
		monitoring.RecordDBQuery("FindCustomersByIdentity", statusError, time.Since(start))
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("FindCustomersByIdentity", statusSuccess, time.Since(start))
	r.logger.DebugContext(ctx, "Finished identity lookup", slog.Int("count", len(customers)))
	return customers, nil
}

// UpdateMFAState is a compare-and-swap on (is_mfa_enabled, mfa_secret).
func (r *CustomerRepository) UpdateMFAState(ctx context.Context, customerID int64, expected, next customer.MFAState) error {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to update MFA state", slog.Bool("enabled", next.Enabled))
	start := time.Now()

	cmdTag, err := r.db.Exec(ctx, updateMFAStateQuery,
		next.Enabled,
		next.Secret,
		next.EnabledAt,
		customerID,
		expected.Enabled,
		expected.Secret,
	)
	monitoring.RecordDBQuery("UpdateMFAState", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to execute MFA state update", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update MFA state: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 1 {
		logCtx.InfoContext(ctx, "MFA state updated successfully")
		return nil
	}

	return explainMissedMFAUpdate(ctx, r.db, customerID, logCtx)
}

func (r *CustomerRepository) Stats(ctx context.Context) (*customer.EnrollmentStats, error) {
	start := time.Now()

	var s customer.EnrollmentStats
	err := r.db.QueryRow(ctx, enrollmentStatsQuery).Scan(
		&s.Total,
		&s.Pending,
		&s.InProgress,
		&s.Completed,
		&s.Rejected,
		&s.Cancelled,
		&s.MFAEnabled,
	)
	monitoring.RecordDBQuery("EnrollmentStats", queryStatus(err), time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query enrollment stats", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query enrollment stats: %w", apperrors.ErrDatabase, err)
	}

	return &s, nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var cust customer.Customer
	var status string
	err := row.Scan(
		&cust.CustomerID,
		&cust.FirstName,
		&cust.LastName,
		&cust.Email,
		&cust.PhoneNumber,
		&cust.AccountNumber,
		&cust.Address,
		&cust.City,
		&cust.State,
		&cust.ZipCode,
		&cust.Country,
		&cust.DateOfBirth,
		&cust.SSN,
		&status,
		&cust.CreatedAt,
		&cust.UpdatedAt,
		&cust.IsMFAEnabled,
		&cust.MFASecret,
		&cust.MFAEnabledAt,
	)
	if err != nil {
		return nil, err
	}
	cust.Status = customer.EnrollmentStatus(status)
	return &cust, nil
}
