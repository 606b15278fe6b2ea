package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/realriphub/cmt-rr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRateLimit(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	window := 10 * time.Second

	tests := []struct {
		name      string
		last      int64
		wantErr   bool
		wantRetry int
	}{
		{name: "no previous comment", last: 0},
		{name: "three seconds ago", last: now.Add(-3 * time.Second).UnixMilli(), wantErr: true, wantRetry: 7},
		{name: "just inside window", last: now.Add(-9500 * time.Millisecond).UnixMilli(), wantErr: true, wantRetry: 1},
		{name: "exactly at window", last: now.Add(-window).UnixMilli()},
		{name: "long ago", last: now.Add(-time.Hour).UnixMilli()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRateLimit(tt.last, now, window)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var rl *RateLimitError
			require.True(t, errors.As(err, &rl))
			assert.Equal(t, tt.wantRetry, rl.RetryAfterSeconds())
		})
	}
}

func TestRateLimiterCheck(t *testing.T) {
	db := newTestDB(t)
	now := time.UnixMilli(1_700_000_000_000)
	limiter := NewRateLimiter(db, 10*time.Second)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, limiter.Check(ctx, "10.0.0.1"))

	insertComment(t, db, model.Comment{
		Created:   now.Add(-3 * time.Second).UnixMilli(),
		PostSlug:  "/a",
		Name:      "a",
		Email:     "a@b.c",
		IPAddress: "10.0.0.1",
	})
	insertComment(t, db, model.Comment{
		Created:   now.Add(-time.Minute).UnixMilli(),
		PostSlug:  "/a",
		Name:      "a",
		Email:     "a@b.c",
		IPAddress: DefaultClientIP,
	})

	var rl *RateLimitError
	require.ErrorAs(t, limiter.Check(ctx, "10.0.0.1"), &rl)
	assert.Equal(t, 7, rl.RetryAfterSeconds())

	assert.NoError(t, limiter.Check(ctx, "10.0.0.2"))
	assert.NoError(t, limiter.Check(ctx, ""))
}
