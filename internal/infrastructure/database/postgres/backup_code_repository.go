package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/domain/mfa"
	"enrollment-api/internal/infrastructure/monitoring"
	"enrollment-api/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const backupCodesTable = "mfa_backup_codes"

var backupCodeColumns = []string{"id", "customer_id", "code_hash", "used_at", "created_at"}

const (
	deleteBackupCodesQuery = `DELETE FROM mfa_backup_codes WHERE customer_id = $1`

	listUnusedBackupCodesQuery = `
        SELECT id, customer_id, code_hash, used_at, created_at
        FROM mfa_backup_codes
        WHERE customer_id = $1 AND used_at IS NULL
        ORDER BY created_at ASC`

	markBackupCodeUsedQuery = `
        UPDATE mfa_backup_codes
        SET used_at = $1
        WHERE id = $2 AND used_at IS NULL`
)

type BackupCodeRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ mfa.BackupCodeStore = (*BackupCodeRepository)(nil)

func NewBackupCodeRepository(db DBPool, logger *slog.Logger) *BackupCodeRepository {
	if db == nil {
		panic("DBPool cannot be nil for BackupCodeRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &BackupCodeRepository{
		db:     db,
		logger: logger.With("component", "BackupCodeRepository"),
	}
}

// ProvisionSecret stores a pending (not yet enabled) secret under the same
// compare-and-swap as CustomerRepository.UpdateMFAState and swaps in the new
// backup-code set, all in one transaction.
func (r *BackupCodeRepository) ProvisionSecret(ctx context.Context, customerID int64, expected customer.MFAState, secret string, codes []mfa.BackupCode) error {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	start := time.Now()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollback(ctx, tx, logCtx)

	next := customer.MFAState{Secret: &secret}
	cmdTag, err := tx.Exec(ctx, updateMFAStateQuery,
		next.Enabled,
		next.Secret,
		next.EnabledAt,
		customerID,
		expected.Enabled,
		expected.Secret,
	)
	if err != nil {
		monitoring.RecordDBQuery("ProvisionSecret", statusError, time.Since(start))
		logCtx.ErrorContext(ctx, "Failed to store pending MFA secret", slog.Any("error", err))
		return fmt.Errorf("%w: failed to store MFA secret: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		monitoring.RecordDBQuery("ProvisionSecret", statusError, time.Since(start))
		return explainMissedMFAUpdate(ctx, tx, customerID, logCtx)
	}

	if _, err := tx.Exec(ctx, deleteBackupCodesQuery, customerID); err != nil {
		monitoring.RecordDBQuery("ProvisionSecret", statusError, time.Since(start))
		logCtx.ErrorContext(ctx, "Failed to delete previous backup codes", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete backup codes: %w", apperrors.ErrDatabase, err)
	}

	rows := make([][]any, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, []any{c.ID, customerID, c.CodeHash, c.UsedAt, c.CreatedAt})
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{backupCodesTable}, backupCodeColumns, pgx.CopyFromRows(rows))
	if err != nil {
		monitoring.RecordDBQuery("ProvisionSecret", statusError, time.Since(start))
		logCtx.ErrorContext(ctx, "Failed to copy backup codes", slog.Any("error", err))
		return translateDBError(err, logCtx)
	}

	if err := tx.Commit(ctx); err != nil {
		monitoring.RecordDBQuery("ProvisionSecret", statusError, time.Since(start))
		logCtx.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("ProvisionSecret", statusSuccess, time.Since(start))
	logCtx.InfoContext(ctx, "MFA secret provisioned", slog.Int64("backupCodes", n))
	return nil
}

func (r *BackupCodeRepository) ListUnusedBackupCodes(ctx context.Context, customerID int64) ([]mfa.BackupCode, error) {
	start := time.Now()

	rows, err := r.db.Query(ctx, listUnusedBackupCodesQuery, customerID)
	if err != nil {
		monitoring.RecordDBQuery("ListUnusedBackupCodes", statusError, time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query backup codes", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query backup codes: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	codes := make([]mfa.BackupCode, 0, mfa.BackupCodeCount)
	for rows.Next() {
		var c mfa.BackupCode
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.CodeHash, &c.UsedAt, &c.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan backup code row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan backup code row: %w", apperrors.ErrDatabase, err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating backup code rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating backup code rows: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("ListUnusedBackupCodes", statusSuccess, time.Since(start))
	return codes, nil
}

// MarkBackupCodeUsed returns mfa.ErrBackupCodeUsed when the code was already
// consumed or no longer exists.
func (r *BackupCodeRepository) MarkBackupCodeUsed(ctx context.Context, codeID uuid.UUID, usedAt time.Time) error {
	start := time.Now()

	cmdTag, err := r.db.Exec(ctx, markBackupCodeUsedQuery, usedAt, codeID)
	monitoring.RecordDBQuery("MarkBackupCodeUsed", queryStatus(err), time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark backup code used", slog.Any("error", err))
		return fmt.Errorf("%w: failed to mark backup code used: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Backup code already used", slog.String("codeID", codeID.String()))
		return mfa.ErrBackupCodeUsed
	}
	return nil
}

func (r *BackupCodeRepository) DeleteBackupCodes(ctx context.Context, customerID int64) error {
	start := time.Now()

	cmdTag, err := r.db.Exec(ctx, deleteBackupCodesQuery, customerID)
	monitoring.RecordDBQuery("DeleteBackupCodes", queryStatus(err), time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete backup codes", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete backup codes: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Backup codes deleted", slog.Int64("customerID", customerID), slog.Int64("count", cmdTag.RowsAffected()))
	return nil
}
