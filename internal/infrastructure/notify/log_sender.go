// Package notify contains delivery adapters for account notices.
package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
)

const resetPath = "/api/v1/auth/reset-password/"

// LogSender stands in for an email provider by writing reset notices to the
// log. The reset link itself is only written when IncludeLink is set.
type LogSender struct {
	log         zerolog.Logger
	publicURL   string
	includeLink bool
}

// NewLogSender builds a sender that links to publicURL. includeLink must only
// be true in development.
func NewLogSender(log zerolog.Logger, publicURL string, includeLink bool) *LogSender {
	return &LogSender{
		log:         log,
		publicURL:   strings.TrimRight(publicURL, "/"),
		includeLink: includeLink,
	}
}

// ResetURL is the address a user visits to complete a reset.
func (s *LogSender) ResetURL(secret string) string {
	return s.publicURL + resetPath + secret
}

func (s *LogSender) Send(_ context.Context, notice domain.ResetNotice) error {
	evt := s.log.Info().
		Str("account_id", notice.AccountID).
		Time("expires_at", notice.ExpiresAt)
	if s.includeLink {
		evt = evt.Str("reset_url", s.ResetURL(notice.Secret))
	}
	evt.Msg("password reset link issued")
	return nil
}
