package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"enrollment-api/internal/event"
	"enrollment-api/internal/pkg/apperrors"
)

const (
	birthdateLayout  = "2006-01-02"
	minEnrollmentAge = 13
	maxEnrollmentAge = 120

	customerNotFound = "Customer not found by repository"
)

type CustomerService interface {
	CreateNewCustomer(ctx context.Context, input NewCustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	Locate(ctx context.Context, accountNumber, ssn, birthdate string) (*Customer, error)
	EnrollmentStats(ctx context.Context) (*EnrollmentStats, error)
}

type NewCustomerInput struct {
	FirstName     string
	LastName      string
	Email         string
	PhoneNumber   string
	AccountNumber string
	Address       string
	City          string
	State         string
	ZipCode       string
	Country       string
	DateOfBirth   time.Time
	SSN           string
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewCustomerService(repo CustomerRepository, publisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if publisher == nil {
		logger.Warn("Warning: No event publisher provided to NewCustomerService, events will only be logged")
		publisher = event.NewLogEventPublisher(logger)
	}

	return &customerService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "customerService")),
		now:    time.Now,
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID: cust.CustomerID,
		FirstName:  cust.FirstName,
		LastName:   cust.LastName,
		Email:      cust.Email,
		Status:     string(cust.Status),
		CreatedAt:  cust.CreatedAt,
	}
}

func (s *customerService) CreateNewCustomer(ctx context.Context, input NewCustomerInput) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	cust, err := s.buildCustomer(input)
	if err != nil {
		s.logger.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		return nil, err
	}
	logger := s.logger.With(slog.String("email", cust.Email))

	existing, err := s.repo.FindByEmail(ctx, cust.Email)
	switch {
	case err == nil && existing != nil:
		logger.WarnContext(ctx, "Business rule failed: email already registered", slog.Int64("existingCustomerID", existing.CustomerID))
		return nil, ErrEmailTaken
	case err != nil && !errors.Is(err, ErrNotFound):
		logger.ErrorContext(ctx, "Repository error checking email uniqueness", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	logger.InfoContext(ctx, "Calling repository Save")
	if err := s.repo.Save(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logger.WarnContext(ctx, "Unique constraint rejected new customer")
			return nil, ErrEmailTaken
		}
		logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	logger = logger.With(slog.Int64("customerID", cust.CustomerID))

	createdEvent := event.CustomerCreatedEvent{
		Timestamp: s.now().UTC(),
		Payload:   NewCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, createdEvent); pubErr != nil {
		logger.ErrorContext(ctx, "Customer created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	logger.InfoContext(ctx, "Successfully created new customer")
	return cust, nil
}

func (s *customerService) buildCustomer(input NewCustomerInput) (*Customer, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := strings.TrimSpace(input.PhoneNumber)

	if firstName == "" {
		return nil, apperrors.NewValidationError("firstName", "First name is required")
	}
	if lastName == "" {
		return nil, apperrors.NewValidationError("lastName", "Last name is required")
	}
	if email == "" {
		return nil, apperrors.NewValidationError("email", "Email is required")
	}
	if phone == "" {
		return nil, apperrors.NewValidationError("phoneNumber", "Phone number is required")
	}
	if input.DateOfBirth.IsZero() {
		return nil, apperrors.NewValidationError("dateOfBirth", "Date of birth is required")
	}

	now := s.now()
	age := AgeAt(input.DateOfBirth, now)
	if age < minEnrollmentAge {
		return nil, apperrors.NewValidationError("dateOfBirth", "Customer must be at least 13 years old")
	}
	if age >= maxEnrollmentAge {
		return nil, apperrors.NewValidationError("dateOfBirth", "Please provide a valid date of birth")
	}

	ssn := ""
	if strings.TrimSpace(input.SSN) != "" {
		ssn = DigitsOnly(input.SSN)
		if len(ssn) != 9 {
			return nil, apperrors.NewValidationError("ssn", "SSN must be in format XXX-XX-XXXX or XXXXXXXXX")
		}
	}

	cust := NewCustomer(firstName, lastName, email, phone, input.DateOfBirth)
	cust.AccountNumber = DigitsOnly(input.AccountNumber)
	cust.SSN = ssn
	cust.Address = strings.TrimSpace(input.Address)
	cust.City = strings.TrimSpace(input.City)
	cust.State = strings.TrimSpace(input.State)
	cust.ZipCode = strings.TrimSpace(input.ZipCode)
	if country := strings.TrimSpace(input.Country); country != "" {
		cust.Country = country
	}
	cust.CreatedAt = now.UTC()
	cust.UpdatedAt = cust.CreatedAt
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.DebugContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return cust, nil
}

// Locate finds the customer whose account number, SSN and date of birth all
// match. The account number is compared on its digits only; the SSN exactly
// as given. Empty input or a birthdate that is not YYYY-MM-DD yields (nil, nil).
func (s *customerService) Locate(ctx context.Context, accountNumber, ssn, birthdate string) (*Customer, error) {
	acct := DigitsOnly(accountNumber)
	if acct == "" || ssn == "" || birthdate == "" {
		s.logger.DebugContext(ctx, "Locate called with incomplete identity")
		return nil, nil
	}

	dob, err := time.Parse(birthdateLayout, birthdate)
	if err != nil {
		s.logger.DebugContext(ctx, "Locate called with unparseable birthdate")
		return nil, nil
	}

	matches, err := s.repo.FindByIdentity(ctx, acct, ssn, dob)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error locating customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to locate customer: %w", err)
	}
	if len(matches) == 0 {
		s.logger.InfoContext(ctx, "No customer matched identity")
		return nil, nil
	}
	if len(matches) > 1 {
		s.logger.WarnContext(ctx, "Identity matched several customers, returning the first", slog.Int("count", len(matches)))
	}

	s.logger.InfoContext(ctx, "Customer located", slog.Int64("customerID", matches[0].CustomerID))
	return matches[0], nil
}

func (s *customerService) EnrollmentStats(ctx context.Context) (*EnrollmentStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error computing enrollment stats", slog.Any("error", err))
		return nil, fmt.Errorf("failed to compute enrollment stats: %w", err)
	}
	return stats, nil
}
