package services

import (
	"context"
	"log/slog"

	"github.com/mholloway/pennygate/internal/auth"
	"github.com/mholloway/pennygate/internal/clock"
	"github.com/mholloway/pennygate/internal/models"
	pkgauth "github.com/mholloway/pennygate/pkg/auth"
	pkglogger "github.com/mholloway/pennygate/pkg/logger"
)

// UserStore defines the interface for credential lookups during login.
type UserStore interface {
	List(ctx context.Context) ([]*models.User, error)
}

// LoginResult is the outcome of one login attempt. User is resolved even
// when Banned is true so callers can log who is being blocked; a token
// must only ever be issued when User is non-nil and Banned is false.
type LoginResult struct {
	User   *models.User
	Banned bool
}

// LoginService orchestrates one login attempt: ban status, credential
// check, outcome recording.
type LoginService struct {
	users       UserStore
	tracker     *BanTracker
	timing      *auth.TimingDelay
	clock       clock.Clock
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewLoginService creates a new LoginService
func NewLoginService(users UserStore, tracker *BanTracker, timing *auth.TimingDelay, clk clock.Clock, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *LoginService {
	return &LoginService{
		users:       users,
		tracker:     tracker,
		timing:      timing,
		clock:       clk,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Attempt resolves the ban status for ip, verifies pin, and records an
// invalid outcome against the ban tracker. The returned Banned flag is
// the status before this attempt's outcome was folded in.
//
// A malformed PIN fails with models.ErrBadRequest before the ban store is
// touched: it never reached a credential comparison, so it does not count
// as a failed attempt. Store errors abort the attempt (fail closed).
func (s *LoginService) Attempt(ctx context.Context, pin int, ip string) (*LoginResult, error) {
	if !pkgauth.ValidPinFormat(pin) {
		return nil, models.ErrBadRequest
	}

	start := s.clock.Now()

	banned, err := s.tracker.Status(ctx, ip)
	if err != nil {
		s.logger.Error("ban status check failed", slog.String("ip", ip), slog.Any("error", err))
		return nil, err
	}

	user, err := s.verifyPin(ctx, pin)
	if err != nil {
		s.logger.Error("credential check failed", slog.Any("error", err))
		return nil, storeUnavailable(err)
	}

	if user == nil {
		if err := s.tracker.RecordFailure(ctx, ip); err != nil {
			s.logger.Error("failed to record login failure", slog.String("ip", ip), slog.Any("error", err))
			return nil, err
		}
	}

	s.audit(user, ip, banned)
	s.timing.WaitFrom(start, user != nil && !banned)

	return &LoginResult{User: user, Banned: banned}, nil
}

// verifyPin compares the presented PIN against every account. Accounts
// are a household-sized set, so a scan-and-compare against the bcrypt
// hashes is the lookup; there is no identifier to key on besides the PIN
// itself. Returns (nil, nil) when no account matches.
func (s *LoginService) verifyPin(ctx context.Context, pin int) (*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		if pkgauth.ComparePin(user.PinHash, pin) == nil {
			return user, nil
		}
	}
	return nil, nil
}

func (s *LoginService) audit(user *models.User, ip string, banned bool) {
	switch {
	case user == nil:
		s.auditLogger.LogLoginAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			IPAddress:     ip,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
	case banned:
		s.auditLogger.LogLoginAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			UserID:        user.UID,
			IPAddress:     ip,
			FailureReason: "source_banned",
			Success:       false,
		})
	default:
		s.auditLogger.LogLoginAttempt(pkglogger.AuditEvent{
			EventType: "login_success",
			UserID:    user.UID,
			IPAddress: ip,
			Success:   true,
		})
	}
}
