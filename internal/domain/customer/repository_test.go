package customer

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Save(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	ret := _m.Called(ctx, email)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindByIdentity(ctx context.Context, accountNumber, ssn string, dob time.Time) ([]*Customer, error) {
	ret := _m.Called(ctx, accountNumber, ssn, dob)

	var r0 []*Customer
	if rf, ok := ret.Get(0).(func(context.Context, string, string, time.Time) []*Customer); ok {
		r0 = rf(ctx, accountNumber, ssn, dob)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]*Customer)
		}
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) UpdateMFAState(ctx context.Context, customerID int64, expected, next MFAState) error {
	ret := _m.Called(ctx, customerID, expected, next)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, int64, MFAState, MFAState) error); ok {
		r0 = rf(ctx, customerID, expected, next)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) Stats(ctx context.Context) (*EnrollmentStats, error) {
	ret := _m.Called(ctx)

	var r0 *EnrollmentStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*EnrollmentStats)
	}

	return r0, ret.Error(1)
}

var _ CustomerRepository = (*MockCustomerRepository)(nil)
