package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/SscSPs/community_billing/internal/utils"
)

// BaseService provides common functionality for all services
type BaseService struct {
	txm     portsrepo.TransactionManager
	policy  Policy
	now     func() time.Time
	codeGen func() (string, error)
}

// ServiceOption is a functional option shared by every service constructor.
type ServiceOption func(*BaseService)

// WithPolicy replaces the default business policy.
func WithPolicy(p Policy) ServiceOption {
	return func(s *BaseService) {
		s.policy = p
	}
}

// WithClock replaces the wall clock. Tests use it to move time.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BaseService) {
		s.now = now
	}
}

// WithCodeGenerator replaces the referral code generator.
func WithCodeGenerator(gen func() (string, error)) ServiceOption {
	return func(s *BaseService) {
		s.codeGen = gen
	}
}

func newBaseService(txm portsrepo.TransactionManager, options ...ServiceOption) BaseService {
	base := BaseService{
		txm:     txm,
		policy:  DefaultPolicy(),
		now:     time.Now,
		codeGen: func() (string, error) {
			return utils.GenerateCode(domain.ReferralCodeAlphabet, domain.ReferralCodeLength)
		},
	}
	for _, option := range options {
		option(&base)
	}
	return base
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// clock returns the current time truncated to microseconds, the precision PostgreSQL stores.
func (s *BaseService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// logUnexpected logs err unless it is a typed, caller-recoverable failure.
func (s *BaseService) logUnexpected(ctx context.Context, err error, msg string, keyvals ...any) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal {
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}

// notFound converts a repository miss into a typed NOT_FOUND failure.
func notFound(err error, what, id string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", what, id))
	}
	return err
}
