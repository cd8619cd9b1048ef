package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRequest = "Valid request"

func validCreateRequest() CreateCustomerRequest {
	return CreateCustomerRequest{
		FirstName:     "Mary-Jane",
		LastName:      "O'Neil",
		Email:         "mj@example.com",
		PhoneNumber:   "+15551234567",
		AccountNumber: "1234567890123456",
		ZipCode:       "12345-6789",
		DateOfBirth:   "1990-01-01",
		SSN:           "123-45-6789",
	}
}

func TestCreateCustomerRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateCustomerRequest)
		field   string
		wantErr bool
	}{
		{validRequest, func(r *CreateCustomerRequest) {}, "", false},
		{"SSN without dashes", func(r *CreateCustomerRequest) { r.SSN = "123456789" }, "", false},
		{"No optional fields", func(r *CreateCustomerRequest) { r.SSN, r.ZipCode, r.AccountNumber = "", "", "" }, "", false},
		{"Missing first name", func(r *CreateCustomerRequest) { r.FirstName = "" }, "firstName", true},
		{"Digits in last name", func(r *CreateCustomerRequest) { r.LastName = "D0e" }, "lastName", true},
		{"Name too long", func(r *CreateCustomerRequest) { r.FirstName = strings.Repeat("a", 51) }, "firstName", true},
		{"Invalid email", func(r *CreateCustomerRequest) { r.Email = "not-an-email" }, "email", true},
		{"Phone with leading zero", func(r *CreateCustomerRequest) { r.PhoneNumber = "0555123" }, "phoneNumber", true},
		{"Bad zip", func(r *CreateCustomerRequest) { r.ZipCode = "1234" }, "zipCode", true},
		{"Bad SSN", func(r *CreateCustomerRequest) { r.SSN = "12-345-6789" }, "ssn", true},
		{"Bad birth date", func(r *CreateCustomerRequest) { r.DateOfBirth = "01/01/1990" }, "dateOfBirth", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			err := req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.field, apperrors.FieldOf(err))
		})
	}
}

func TestCreateCustomerRequestToInput(t *testing.T) {
	req := validCreateRequest()

	input, err := req.ToInput()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC), input.DateOfBirth)
	assert.Equal(t, "123-45-6789", input.SSN)
	assert.Equal(t, "Mary-Jane", input.FirstName)

	req.DateOfBirth = "1990-13-40"
	_, err = req.ToInput()
	assert.Equal(t, "dateOfBirth", apperrors.FieldOf(err))
}

func TestNewCustomerResponse(t *testing.T) {
	secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	cust := &customer.Customer{
		CustomerID:   42,
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		DateOfBirth:  time.Date(1985, time.May, 15, 0, 0, 0, 0, time.UTC),
		SSN:          "123456789",
		Status:       customer.StatusInProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsMFAEnabled: true,
		MFASecret:    &secret,
		MFAEnabledAt: &now,
	}

	resp := NewCustomerResponse(cust)
	assert.Equal(t, int64(42), resp.CustomerID)
	assert.Equal(t, "1985-05-15", resp.DateOfBirth)
	assert.Equal(t, "InProgress", resp.Status)
	assert.True(t, resp.IsMFAEnabled)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "123456789")
	assert.NotContains(t, string(raw), secret)

	assert.Equal(t, CustomerResponse{}, NewCustomerResponse(nil))
}

func TestNewEnrollmentStatsResponse(t *testing.T) {
	resp := NewEnrollmentStatsResponse(&customer.EnrollmentStats{Total: 5, Pending: 2, Completed: 3, MFAEnabled: 1})
	assert.Equal(t, EnrollmentStatsResponse{Total: 5, Pending: 2, Completed: 3, MFAEnabled: 1}, resp)
	assert.Equal(t, EnrollmentStatsResponse{}, NewEnrollmentStatsResponse(nil))
}
