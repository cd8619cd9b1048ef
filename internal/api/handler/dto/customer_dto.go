package dto

import (
	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/pkg/apperrors"
	"time"
)

const dateLayout = "2006-01-02"

type CreateCustomerRequest struct {
	FirstName     string `json:"firstName" validate:"required,max=50,personname"`
	LastName      string `json:"lastName" validate:"required,max=50,personname"`
	Email         string `json:"email" validate:"required,max=100,email"`
	PhoneNumber   string `json:"phoneNumber" validate:"required,phonenum"`
	AccountNumber string `json:"accountNumber" validate:"omitempty,max=34"`
	Address       string `json:"address" validate:"omitempty,max=200"`
	City          string `json:"city" validate:"omitempty,max=50"`
	State         string `json:"state" validate:"omitempty,max=50"`
	ZipCode       string `json:"zipCode" validate:"omitempty,zipcode"`
	Country       string `json:"country" validate:"omitempty,max=50"`
	DateOfBirth   string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	SSN           string `json:"ssn" validate:"omitempty,ssnformat"`
}

func (r *CreateCustomerRequest) Validate() error {
	return validateStruct(r)
}

// ToInput converts a validated request into the service input.
func (r *CreateCustomerRequest) ToInput() (customer.NewCustomerInput, error) {
	dob, err := time.Parse(dateLayout, r.DateOfBirth)
	if err != nil {
		return customer.NewCustomerInput{}, apperrors.NewValidationError("dateOfBirth", "must be a date in format YYYY-MM-DD")
	}
	return customer.NewCustomerInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		PhoneNumber:   r.PhoneNumber,
		AccountNumber: r.AccountNumber,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		ZipCode:       r.ZipCode,
		Country:       r.Country,
		DateOfBirth:   dob,
		SSN:           r.SSN,
	}, nil
}

type CustomerResponse struct {
	CustomerID   int64      `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phoneNumber"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	ZipCode      string     `json:"zipCode,omitempty"`
	Country      string     `json:"country,omitempty"`
	DateOfBirth  string     `json:"dateOfBirth"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	IsMFAEnabled bool       `json:"isMfaEnabled"`
	MFAEnabledAt *time.Time `json:"mfaEnabledAt,omitempty"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	return CustomerResponse{
		CustomerID:   cust.CustomerID,
		FirstName:    cust.FirstName,
		LastName:     cust.LastName,
		Email:        cust.Email,
		PhoneNumber:  cust.PhoneNumber,
		Address:      cust.Address,
		City:         cust.City,
		State:        cust.State,
		ZipCode:      cust.ZipCode,
		Country:      cust.Country,
		DateOfBirth:  cust.DateOfBirth.Format(dateLayout),
		Status:       string(cust.Status),
		CreatedAt:    cust.CreatedAt,
		UpdatedAt:    cust.UpdatedAt,
		IsMFAEnabled: cust.IsMFAEnabled,
		MFAEnabledAt: cust.MFAEnabledAt,
	}
}

type EnrollmentStatsResponse struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
	Cancelled  int64 `json:"cancelled"`
	MFAEnabled int64 `json:"mfaEnabled"`
}

func NewEnrollmentStatsResponse(s *customer.EnrollmentStats) EnrollmentStatsResponse {
	if s == nil {
		return EnrollmentStatsResponse{}
	}
	return EnrollmentStatsResponse{
		Total:      s.Total,
		Pending:    s.Pending,
		InProgress: s.InProgress,
		Completed:  s.Completed,
		Rejected:   s.Rejected,
		Cancelled:  s.Cancelled,
		MFAEnabled: s.MFAEnabled,
	}
}
