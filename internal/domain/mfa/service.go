package mfa

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/event"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultIssuer = "EnrollmentAPI"

type Service interface {
	Setup(ctx context.Context, customerID int64) (*SetupResult, error)
	VerifyCode(ctx context.Context, customerID int64, code string) (bool, error)
	Enable(ctx context.Context, customerID int64, code string) (bool, error)
	Disable(ctx context.Context, customerID int64, code string) (bool, error)
	Status(ctx context.Context, customerID int64) (*Status, error)
	ProvisioningURI(secret, account string) string
	RedeemBackupCode(ctx context.Context, customerID int64, code string) (bool, error)
}

type SetupResult struct {
	CustomerID      int64
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

type Status struct {
	CustomerID      int64
	IsEnabled       bool
	EnabledAt       *time.Time
	Secret          *string
	ProvisioningURI *string
}

type Option func(*service)

// WithClock replaces time.Now as the source of the current TOTP step.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIssuer(issuer string) Option {
	return func(s *service) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithSecretInStatus makes Status return the raw shared secret.
func WithSecretInStatus(expose bool) Option {
	return func(s *service) {
		s.exposeSecret = expose
	}
}

var _ Service = (*service)(nil)

type service struct {
	customers    CustomerStore
	codes        BackupCodeStore
	pub          event.EventPublisher
	logger       *slog.Logger
	now          func() time.Time
	issuer       string
	bcryptCost   int
	exposeSecret bool
}

func NewService(customers CustomerStore, codes BackupCodeStore, publisher event.EventPublisher, logger *slog.Logger, opts ...Option) Service {
	if customers == nil {
		panic("customer store cannot be nil")
	}
	if codes == nil {
		panic("backup code store cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to mfa.NewService, using default stderr handler")
	}
	if publisher == nil {
		publisher = event.NewLogEventPublisher(logger)
	}

	s := &service{
		customers:  customers,
		codes:      codes,
		pub:        publisher,
		logger:     logger.With(slog.String("component", "mfaService")),
		now:        time.Now,
		issuer:     DefaultIssuer,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Setup(ctx context.Context, customerID int64) (*SetupResult, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.InfoContext(ctx, "Attempting MFA setup")

	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			logger.WarnContext(ctx, "MFA setup requested for unknown customer")
			return nil, customer.ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error loading customer for MFA setup", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}
	if cust.IsMFAEnabled {
		logger.WarnContext(ctx, "MFA setup rejected, already enabled")
		return nil, ErrAlreadyEnabled
	}

	secret, err := GenerateSecret()
	if err != nil {
		return nil, err
	}
	plainCodes, err := GenerateBackupCodes()
	if err != nil {
		return nil, err
	}
	hashed, err := s.hashBackupCodes(customerID, plainCodes)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to hash backup codes", slog.Any("error", err))
		return nil, err
	}

	if err := s.codes.ProvisionSecret(ctx, customerID, cust.MFA(), secret, hashed); err != nil {
		logger.ErrorContext(ctx, "Failed to persist provisioned MFA secret and backup codes", slog.Any("error", err))
		return nil, fmt.Errorf("failed to provision MFA for customer %d: %w", customerID, err)
	}

	s.publish(ctx, event.MFAProvisioned, customerID)
	logger.InfoContext(ctx, "MFA provisioned", slog.Int("backupCodes", len(plainCodes)))

	return &SetupResult{
		CustomerID:      customerID,
		Secret:          secret,
		ProvisioningURI: s.ProvisioningURI(secret, accountLabel(cust)),
		BackupCodes:     plainCodes,
	}, nil
}

func (s *service) VerifyCode(ctx context.Context, customerID int64, code string) (bool, error) {
	cust, err := s.load(ctx, customerID)
	if err != nil || cust == nil {
		return false, err
	}
	if !cust.IsMFAEnabled || cust.MFA().SecretValue() == "" {
		s.logger.DebugContext(ctx, "Verification skipped, MFA not active", slog.Int64("customerID", customerID))
		return false, nil
	}
	return s.matches(ctx, cust.MFA().SecretValue(), code), nil
}

func (s *service) Enable(ctx context.Context, customerID int64, code string) (bool, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))

	cust, err := s.load(ctx, customerID)
	if err != nil || cust == nil {
		return false, err
	}
	current := cust.MFA()
	if current.SecretValue() == "" {
		logger.WarnContext(ctx, "MFA enable rejected, no provisioned secret")
		return false, nil
	}
	if !s.matches(ctx, current.SecretValue(), code) {
		logger.InfoContext(ctx, "MFA enable rejected, code mismatch")
		return false, nil
	}

	now := s.now().UTC()
	next := customer.MFAState{Secret: current.Secret, Enabled: true, EnabledAt: &now}
	if err := s.customers.UpdateMFAState(ctx, customerID, current, next); err != nil {
		logger.ErrorContext(ctx, "Failed to persist MFA enablement", slog.Any("error", err))
		return false, fmt.Errorf("failed to enable MFA for customer %d: %w", customerID, err)
	}

	s.publish(ctx, event.MFAEnabled, customerID)
	logger.InfoContext(ctx, "MFA enabled")
	return true, nil
}

func (s *service) Disable(ctx context.Context, customerID int64, code string) (bool, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))

	cust, err := s.load(ctx, customerID)
	if err != nil || cust == nil {
		return false, err
	}
	current := cust.MFA()
	if !current.Enabled || current.SecretValue() == "" {
		logger.WarnContext(ctx, "MFA disable rejected, MFA not enabled")
		return false, nil
	}
	if !s.matches(ctx, current.SecretValue(), code) {
		logger.InfoContext(ctx, "MFA disable rejected, code mismatch")
		return false, nil
	}

	if err := s.customers.UpdateMFAState(ctx, customerID, current, customer.MFAState{}); err != nil {
		logger.ErrorContext(ctx, "Failed to persist MFA disablement", slog.Any("error", err))
		return false, fmt.Errorf("failed to disable MFA for customer %d: %w", customerID, err)
	}
	if err := s.codes.DeleteBackupCodes(ctx, customerID); err != nil {
		logger.ErrorContext(ctx, "MFA disabled, but FAILED to delete backup codes", slog.Any("error", err))
	}

	s.publish(ctx, event.MFADisabled, customerID)
	logger.InfoContext(ctx, "MFA disabled")
	return true, nil
}

func (s *service) Status(ctx context.Context, customerID int64) (*Status, error) {
	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			s.logger.WarnContext(ctx, "MFA status requested for unknown customer", slog.Int64("customerID", customerID))
			return nil, customer.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error loading customer for MFA status", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}

	st := &Status{
		CustomerID: customerID,
		IsEnabled:  cust.IsMFAEnabled,
		EnabledAt:  cust.MFAEnabledAt,
	}
	secret := cust.MFA().SecretValue()
	if s.exposeSecret && secret != "" {
		st.Secret = &secret
	}
	if cust.IsMFAEnabled && secret != "" {
		uri := s.ProvisioningURI(secret, accountLabel(cust))
		st.ProvisioningURI = &uri
	}
	return st, nil
}

func (s *service) ProvisioningURI(secret, account string) string {
	return ProvisioningURI(s.issuer, account, secret)
}

// RedeemBackupCode consumes one unused backup code of a customer with MFA
// enabled. Each code succeeds at most once.
func (s *service) RedeemBackupCode(ctx context.Context, customerID int64, code string) (bool, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))

	if !isSixDigits(code) {
		return false, nil
	}
	cust, err := s.load(ctx, customerID)
	if err != nil || cust == nil {
		return false, err
	}
	if !cust.IsMFAEnabled {
		logger.InfoContext(ctx, "Backup code rejected, MFA not enabled")
		return false, nil
	}

	unused, err := s.codes.ListUnusedBackupCodes(ctx, customerID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list backup codes", slog.Any("error", err))
		return false, fmt.Errorf("failed to list backup codes for customer %d: %w", customerID, err)
	}

	for _, bc := range unused {
		if bcrypt.CompareHashAndPassword([]byte(bc.CodeHash), []byte(code)) != nil {
			continue
		}
		if err := s.codes.MarkBackupCodeUsed(ctx, bc.ID, s.now().UTC()); err != nil {
			if errors.Is(err, ErrBackupCodeUsed) {
				logger.WarnContext(ctx, "Backup code consumed concurrently")
				return false, nil
			}
			logger.ErrorContext(ctx, "Failed to mark backup code used", slog.Any("error", err))
			return false, fmt.Errorf("failed to redeem backup code: %w", err)
		}
		s.publish(ctx, event.MFABackupCodeRedeemed, customerID)
		logger.InfoContext(ctx, "Backup code redeemed", slog.Int("remaining", len(unused)-1))
		return true, nil
	}

	logger.InfoContext(ctx, "Backup code rejected, no match")
	return false, nil
}

// load returns (nil, nil) for a missing customer.
func (s *service) load(ctx context.Context, customerID int64) (*customer.Customer, error) {
	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			s.logger.InfoContext(ctx, "MFA operation on unknown customer", slog.Int64("customerID", customerID))
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Repository error loading customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}
	return cust, nil
}

func (s *service) matches(ctx context.Context, secret, code string) bool {
	expected, err := GenerateCode(secret, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored MFA secret cannot be decoded", slog.Any("error", err))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1
}

func (s *service) hashBackupCodes(customerID int64, plain []string) ([]BackupCode, error) {
	now := s.now().UTC()
	out := make([]BackupCode, 0, len(plain))
	for _, c := range plain {
		hash, err := bcrypt.GenerateFromPassword([]byte(c), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash backup code: %w", err)
		}
		out = append(out, BackupCode{
			ID:         uuid.New(),
			CustomerID: customerID,
			CodeHash:   string(hash),
			CreatedAt:  now,
		})
	}
	return out, nil
}

func (s *service) publish(ctx context.Context, kind event.MFAEventType, customerID int64) {
	e := event.MFAEvent{Type: kind, CustomerID: customerID, Timestamp: s.now().UTC()}
	if err := s.pub.PublishMFAEvent(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "FAILED to publish MFA event", slog.String("type", string(kind)), slog.Any("error", err))
	}
}

func accountLabel(cust *customer.Customer) string {
	if cust.Email != "" {
		return cust.Email
	}
	return "customer-" + strconv.FormatInt(cust.CustomerID, 10)
}

func isSixDigits(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
