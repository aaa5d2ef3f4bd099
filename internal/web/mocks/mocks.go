// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package mocks provides testify mocks for the services behind the web layer.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/internal/web"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockAuthService is a mock for web.AuthService.
type MockAuthService struct {
	mock.Mock
}

var _ web.AuthService = (*MockAuthService)(nil)

// NewMockAuthService creates a MockAuthService whose expectations are
// asserted when the test ends.
func NewMockAuthService(t testingT) *MockAuthService {
	m := &MockAuthService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthService) Register(ctx context.Context, in auth.RegisterInput, client auth.ClientInfo) (*auth.LoginResult, error) {
	args := m.Called(ctx, in, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.LoginResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, client auth.ClientInfo) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID ulid.ULID) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Identity), args.Error(1)
}

// MockBlogService is a mock for web.BlogService.
type MockBlogService struct {
	mock.Mock
}

var _ web.BlogService = (*MockBlogService)(nil)

// NewMockBlogService creates a MockBlogService whose expectations are
// asserted when the test ends.
func NewMockBlogService(t testingT) *MockBlogService {
	m := &MockBlogService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBlogService) ListPosts(ctx context.Context) ([]*blog.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*blog.Post), args.Error(1)
}

func (m *MockBlogService) GetPost(ctx context.Context, id int64) (*blog.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockBlogService) CreatePost(ctx context.Context, in blog.PostInput) (*blog.Post, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockBlogService) EditPost(ctx context.Context, id int64, in blog.PostInput) (*blog.Post, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockBlogService) DeletePost(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBlogService) AddComment(ctx context.Context, postID int64, text string) (*blog.Comment, error) {
	args := m.Called(ctx, postID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Comment), args.Error(1)
}

func (m *MockBlogService) ListComments(ctx context.Context, postID int64) ([]*blog.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*blog.Comment), args.Error(1)
}

// MockDirectoryService is a mock for web.DirectoryService.
type MockDirectoryService struct {
	mock.Mock
}

var _ web.DirectoryService = (*MockDirectoryService)(nil)

// NewMockDirectoryService creates a MockDirectoryService whose expectations
// are asserted when the test ends.
func NewMockDirectoryService(t testingT) *MockDirectoryService {
	m := &MockDirectoryService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDirectoryService) ListUsers(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auth.User), args.Error(1)
}

func (m *MockDirectoryService) PurgeAllUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockSessionPurger is a mock for web.SessionPurger.
type MockSessionPurger struct {
	mock.Mock
}

var _ web.SessionPurger = (*MockSessionPurger)(nil)

func (m *MockSessionPurger) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
