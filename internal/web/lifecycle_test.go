// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/internal/web"
	"github.com/penwright/penwright/internal/web/mocks"
)

func TestServer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newWebFixture(t)
	f.blog.On("ListPosts", mock.Anything).Return([]*blog.Post{}, nil)

	errCh, err := f.server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, f.server.Addr())

	_, err = f.server.Start()
	assert.Error(t, err, "second start must fail")

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + f.server.Addr() + "/")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.server.Stop(ctx))
	require.NoError(t, f.server.Stop(ctx), "stop is idempotent")

	for range errCh {
		t.Fatal("unexpected serve error")
	}
}

func TestSweepSessions(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var calls atomic.Int32
	purger := &mocks.MockSessionPurger{}
	purger.On("PurgeExpiredSessions", mock.Anything).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(int64(0), errors.New("db down")).Once()
	purger.On("PurgeExpiredSessions", mock.Anything).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(int64(2), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		web.SweepSessions(ctx, purger, 5*time.Millisecond, nil)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond,
		"a failed sweep must not stop the loop")
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}
