package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"splat-service/internal/domain"
)

// MockModelRuntime is a mock of domain.ModelRuntime.
type MockModelRuntime struct {
	mock.Mock
}

func (m *MockModelRuntime) Load(ctx context.Context, checkpointPath string) (*domain.ModelHandle, error) {
	args := m.Called(ctx, checkpointPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelHandle), args.Error(1)
}

func (m *MockModelRuntime) Predict(ctx context.Context, tensor *domain.ImageTensor, disparityFactor float32) (*domain.GaussianSet, error) {
	args := m.Called(ctx, tensor, disparityFactor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GaussianSet), args.Error(1)
}

func (m *MockModelRuntime) Info(ctx context.Context) (*domain.DeviceInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceInfo), args.Error(1)
}

// MockCheckpointFetcher is a mock of domain.CheckpointFetcher.
type MockCheckpointFetcher struct {
	mock.Mock
}

func (m *MockCheckpointFetcher) Fetch(ctx context.Context, url, dest string) error {
	args := m.Called(ctx, url, dest)
	return args.Error(0)
}

// MockObjectStore is a mock of domain.ObjectStore.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
