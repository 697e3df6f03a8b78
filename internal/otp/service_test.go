package otp

import (
	"context"
	"testing"
	"time"

	"provider-onboarding/internal/common/errors"
	"provider-onboarding/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func newTestService(t *testing.T, config *Config) *Service {
	t.Helper()
	svc, err := NewService(config, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return svc
}

// ==========================
// Config Tests
// ==========================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			config: *DefaultConfig(),
		},
		{
			name:    "zero length",
			config:  Config{Length: 0, TTL: time.Minute, MaxAttempts: 3},
			wantErr: true,
		},
		{
			name:    "zero ttl",
			config:  Config{Length: 4, TTL: 0, MaxAttempts: 3},
			wantErr: true,
		},
		{
			name:    "zero attempts",
			config:  Config{Length: 4, TTL: time.Minute, MaxAttempts: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==========================
// Issue / Verify Tests
// ==========================

func TestService_IssueAndVerify(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "1234", code, "default config pins the test code")

	require.NoError(t, svc.Verify(ctx, "9876543210", code))

	// code is consumed on success
	err = svc.Verify(ctx, "9876543210", code)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestService_Verify_WrongCode(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "9876543210")
	require.NoError(t, err)

	err = svc.Verify(ctx, "9876543210", "0000")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "Invalid OTP")

	// the right code still works after one failed attempt
	assert.NoError(t, svc.Verify(ctx, "9876543210", "1234"))
}

func TestService_Verify_NoPendingCode(t *testing.T) {
	svc := newTestService(t, nil)

	err := svc.Verify(context.Background(), "9876543210", "1234")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestService_Verify_AttemptsCap(t *testing.T) {
	config := DefaultConfig()
	config.MaxAttempts = 2
	svc := newTestService(t, config)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "9876543210")
	require.NoError(t, err)

	assert.Error(t, svc.Verify(ctx, "9876543210", "0000"))
	assert.Error(t, svc.Verify(ctx, "9876543210", "0001"))

	// third attempt exceeds the cap and deletes the code even if correct
	err = svc.Verify(ctx, "9876543210", "1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempts")

	err = svc.Verify(ctx, "9876543210", "1234")
	require.Error(t, err, "code must be gone after the cap was hit")
}

func TestService_Issue_RandomCodeLength(t *testing.T) {
	config := DefaultConfig()
	config.TestCode = ""
	config.Length = 6
	svc := newTestService(t, config)

	code, err := svc.Issue(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "9876543210", "1234", 10*time.Millisecond))

	_, ok, err := store.Load(ctx, "9876543210")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok, err = store.Load(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, ok, "expired code must not be returned")
}
