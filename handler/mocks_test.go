package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Skip(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockExecutor) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockExecutor) Report(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockResponder struct {
	mock.Mock
}

func (m *mockResponder) Reply(msg string, ttl time.Duration) error {
	return m.Called(msg, ttl).Error(0)
}

func (m *mockResponder) Announce(msg string, ttl time.Duration) error {
	return m.Called(msg, ttl).Error(0)
}
