// Package mocks provides test doubles for the spark client.
package mocks

import (
	"context"

	spark "github.com/sells-group/community-cli/pkg/spark"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ListingPhotos provides a mock function with given fields: ctx, listingKey
func (_m *MockClient) ListingPhotos(ctx context.Context, listingKey string) ([]spark.Photo, error) {
	ret := _m.Called(ctx, listingKey)

	if len(ret) == 0 {
		panic("no return value specified for ListingPhotos")
	}

	var r0 []spark.Photo
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]spark.Photo, error)); ok {
		return rf(ctx, listingKey)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []spark.Photo); ok {
		r0 = rf(ctx, listingKey)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]spark.Photo)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, listingKey)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It registers a
// cleanup function to assert the mocks expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
