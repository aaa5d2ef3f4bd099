// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package mocks provides testify mocks for the blog package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/penwright/penwright/internal/blog"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockPostRepository is a mock for blog.PostRepository.
type MockPostRepository struct {
	mock.Mock
}

var _ blog.PostRepository = (*MockPostRepository)(nil)

// NewMockPostRepository creates a MockPostRepository whose expectations are
// asserted when the test ends.
func NewMockPostRepository(t testingT) *MockPostRepository {
	m := &MockPostRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPostRepository) List(ctx context.Context) ([]*blog.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*blog.Post), args.Error(1)
}

func (m *MockPostRepository) Get(ctx context.Context, id int64) (*blog.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, post *blog.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) Update(ctx context.Context, post *blog.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) DeleteByAuthor(ctx context.Context, authorID int64) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCommentRepository is a mock for blog.CommentRepository.
type MockCommentRepository struct {
	mock.Mock
}

var _ blog.CommentRepository = (*MockCommentRepository)(nil)

// NewMockCommentRepository creates a MockCommentRepository whose expectations
// are asserted when the test ends.
func NewMockCommentRepository(t testingT) *MockCommentRepository {
	m := &MockCommentRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID int64) ([]*blog.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*blog.Comment), args.Error(1)
}

func (m *MockCommentRepository) Get(ctx context.Context, id int64) (*blog.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Comment), args.Error(1)
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *blog.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockCommentRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) DeleteByAuthor(ctx context.Context, authorID int64) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) DeleteOnPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

// InlineTransactor runs fn directly and records each call. Err, when set,
// is returned instead of running fn.
type InlineTransactor struct {
	Calls int
	Err   error
}

var _ blog.Transactor = (*InlineTransactor)(nil)

// InTransaction implements blog.Transactor.
func (t *InlineTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	if t.Err != nil {
		return t.Err
	}
	return fn(ctx)
}
