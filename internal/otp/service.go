// Package otp issues and verifies the phone verification codes used at the
// OTP onboarding stage. Delivery of the code is an external concern; the
// service only generates, stores, and checks codes.
package otp

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"provider-onboarding/internal/common/errors"
	"provider-onboarding/internal/common/logger"
)

type Config struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
	// TestCode pins the generated code to a fixed value (the historical
	// stub "1234"). Empty means a random code per issue.
	TestCode string
}

func DefaultConfig() *Config {
	return &Config{
		Length:      4,
		TTL:         10 * time.Minute,
		MaxAttempts: 3,
		TestCode:    "1234",
	}
}

func (c *Config) Validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("length must be positive")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	return nil
}

// CodeStore persists issued codes for their TTL.
type CodeStore interface {
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	Load(ctx context.Context, phone string) (string, bool, error)
	Delete(ctx context.Context, phone string) error
	IncrAttempts(ctx context.Context, phone string, ttl time.Duration) (int, error)
}

type Service struct {
	config *Config
	store  CodeStore
	logger logger.Logger
}

func NewService(config *Config, store CodeStore, log logger.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "otp"}),
	}, nil
}

// Issue generates a verification code for the phone and stores it with the
// configured TTL. The code is returned so the caller can hand it to the
// delivery collaborator.
func (s *Service) Issue(ctx context.Context, phone string) (string, error) {
	code := s.config.TestCode
	if code == "" {
		code = randomCode(s.config.Length)
	}

	if err := s.store.Save(ctx, phone, code, s.config.TTL); err != nil {
		return "", errors.NewTransportError("otp store", err)
	}

	s.logger.Info("verification code issued", map[string]interface{}{
		"phone": maskPhone(phone),
	})
	return code, nil
}

// Verify checks the submitted code against the stored one. The code is
// consumed on success; attempts are capped.
func (s *Service) Verify(ctx context.Context, phone, code string) error {
	stored, ok, err := s.store.Load(ctx, phone)
	if err != nil {
		return errors.NewTransportError("otp store", err)
	}
	if !ok {
		return errors.NewValidationError("otp", "No verification code pending for this phone")
	}

	attempts, err := s.store.IncrAttempts(ctx, phone, s.config.TTL)
	if err != nil {
		return errors.NewTransportError("otp store", err)
	}
	if attempts > s.config.MaxAttempts {
		_ = s.store.Delete(ctx, phone)
		return errors.NewValidationError("otp", "Maximum verification attempts exceeded")
	}

	if code != stored {
		return errors.NewValidationError("otp", "Invalid OTP")
	}

	if err := s.store.Delete(ctx, phone); err != nil {
		s.logger.Warn("failed to clear verified code", map[string]interface{}{
			"phone": maskPhone(phone),
			"error": err.Error(),
		})
	}
	return nil
}

func randomCode(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		fmt.Fprintf(&b, "%d", rand.Intn(10))
	}
	return b.String()
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
