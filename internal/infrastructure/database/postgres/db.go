package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
)

const (
	pgUniqueViolation = "23505"

	statusSuccess = "success"
	statusError   = "error"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

// rowQuerier is satisfied by both DBPool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// explainMissedMFAUpdate resolves a compare-and-swap on the MFA columns that
// matched no row: customer.ErrNotFound when the row is gone, otherwise
// customer.ErrUpdateConflict.
func explainMissedMFAUpdate(ctx context.Context, q rowQuerier, customerID int64, logger *slog.Logger) error {
	var exists bool
	if err := q.QueryRow(ctx, customerExistsQuery, customerID).Scan(&exists); err != nil {
		logger.ErrorContext(ctx, "Failed to check customer existence after empty update", slog.Any("error", err))
		return fmt.Errorf("%w: failed to check customer existence: %w", apperrors.ErrDatabase, err)
	}
	if !exists {
		logger.WarnContext(ctx, "MFA update affected zero rows, customer not found")
		return customer.ErrNotFound
	}

	logger.WarnContext(ctx, "MFA update affected zero rows, state changed concurrently")
	return customer.ErrUpdateConflict
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			contextLogger.Warn("Database unique constraint violation", "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}

func queryStatus(err error) string {
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return statusError
	}
	return statusSuccess
}

func rollback(ctx context.Context, tx pgx.Tx, logger *slog.Logger) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", err))
	}
}
