package mfa

import (
	"context"
	"time"

	"enrollment-api/internal/domain/customer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCustomerStore struct {
	mock.Mock
}

func (_m *MockCustomerStore) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *customer.Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*customer.Customer)
		}
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerStore) UpdateMFAState(ctx context.Context, customerID int64, expected, next customer.MFAState) error {
	ret := _m.Called(ctx, customerID, expected, next)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, int64, customer.MFAState, customer.MFAState) error); ok {
		r0 = rf(ctx, customerID, expected, next)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type MockBackupCodeStore struct {
	mock.Mock
}

func (_m *MockBackupCodeStore) ProvisionSecret(ctx context.Context, customerID int64, expected customer.MFAState, secret string, codes []BackupCode) error {
	ret := _m.Called(ctx, customerID, expected, secret, codes)

	if rf, ok := ret.Get(0).(func(context.Context, int64, customer.MFAState, string, []BackupCode) error); ok {
		return rf(ctx, customerID, expected, secret, codes)
	}
	return ret.Error(0)
}

func (_m *MockBackupCodeStore) ListUnusedBackupCodes(ctx context.Context, customerID int64) ([]BackupCode, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []BackupCode
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]BackupCode)
	}

	return r0, ret.Error(1)
}

func (_m *MockBackupCodeStore) MarkBackupCodeUsed(ctx context.Context, codeID uuid.UUID, usedAt time.Time) error {
	return _m.Called(ctx, codeID, usedAt).Error(0)
}

func (_m *MockBackupCodeStore) DeleteBackupCodes(ctx context.Context, customerID int64) error {
	return _m.Called(ctx, customerID).Error(0)
}

var (
	_ CustomerStore   = (*MockCustomerStore)(nil)
	_ BackupCodeStore = (*MockBackupCodeStore)(nil)
)
