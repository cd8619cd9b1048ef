package customer

import (
	"strings"
	"time"
	"unicode"
)

type EnrollmentStatus string

const (
	StatusPending    EnrollmentStatus = "Pending"
	StatusInProgress EnrollmentStatus = "InProgress"
	StatusCompleted  EnrollmentStatus = "Completed"
	StatusRejected   EnrollmentStatus = "Rejected"
	StatusCancelled  EnrollmentStatus = "Cancelled"
)

const DefaultCountry = "US"

type Customer struct {
	CustomerID    int64            `json:"customerId"`
	FirstName     string           `json:"firstName"`
	LastName      string           `json:"lastName"`
	Email         string           `json:"email"`
	PhoneNumber   string           `json:"phoneNumber"`
	AccountNumber string           `json:"accountNumber,omitempty"`
	Address       string           `json:"address,omitempty"`
	City          string           `json:"city,omitempty"`
	State         string           `json:"state,omitempty"`
	ZipCode       string           `json:"zipCode,omitempty"`
	Country       string           `json:"country,omitempty"`
	DateOfBirth   time.Time        `json:"dateOfBirth"`
	SSN           string           `json:"-"`
	Status        EnrollmentStatus `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	IsMFAEnabled  bool             `json:"isMfaEnabled"`
	MFASecret     *string          `json:"-"`
	MFAEnabledAt  *time.Time       `json:"mfaEnabledAt,omitempty"`
}

// MFAState is the slice of a customer record owned by the MFA lifecycle.
type MFAState struct {
	Secret    *string
	Enabled   bool
	EnabledAt *time.Time
}

// EnrollmentStats counts customers per enrollment status.
type EnrollmentStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
	Cancelled  int64 `json:"cancelled"`
	MFAEnabled int64 `json:"mfaEnabled"`
}

func NewCustomer(firstName, lastName, email, phone string, dob time.Time) *Customer {
	now := time.Now().UTC()
	return &Customer{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		PhoneNumber: phone,
		DateOfBirth: DateOnly(dob),
		Country:     DefaultCountry,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *Customer) MFA() MFAState {
	return MFAState{
		Secret:    c.MFASecret,
		Enabled:   c.IsMFAEnabled,
		EnabledAt: c.MFAEnabledAt,
	}
}

func (c *Customer) ApplyMFA(state MFAState, at time.Time) {
	c.MFASecret = state.Secret
	c.IsMFAEnabled = state.Enabled
	c.MFAEnabledAt = state.EnabledAt
	c.UpdatedAt = at
}

// AgeAt returns the customer's age in whole years at the given instant.
func (c *Customer) AgeAt(at time.Time) int {
	return AgeAt(c.DateOfBirth, at)
}

func AgeAt(dob, at time.Time) int {
	at = at.UTC()
	dob = dob.UTC()
	years := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		years--
	}
	return years
}

func (s MFAState) SecretValue() string {
	if s.Secret == nil {
		return ""
	}
	return *s.Secret
}

// DigitsOnly strips every character that is not an ASCII digit.
func DigitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
