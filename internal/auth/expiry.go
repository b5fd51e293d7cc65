package auth

import (
	"time"

	"github.com/hugh/go-invite/internal/database/models"
)

const (
	DefaultInviteLife  = 2 * 24 * time.Hour
	DefaultSessionLife = 7 * 24 * time.Hour
)

// ExpiryPolicy decides when invites and sessions go stale. The inline
// checks in this package and the background sweeper both go through it.
type ExpiryPolicy struct {
	InviteLife  time.Duration
	SessionLife time.Duration
}

func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		InviteLife:  DefaultInviteLife,
		SessionLife: DefaultSessionLife,
	}
}

// InviteCutoff returns the instant before which an invite is expired at now.
func (p ExpiryPolicy) InviteCutoff(now time.Time) time.Time {
	return now.Add(-p.InviteLife)
}

// SessionCutoff returns the instant before which a session is expired at now.
func (p ExpiryPolicy) SessionCutoff(now time.Time) time.Time {
	return now.Add(-p.SessionLife)
}

// Expired is the one expiry predicate: stamp < cutoff, i.e. now > stamp + life.
func Expired(stamp, cutoff time.Time) bool {
	return stamp.Before(cutoff)
}

func (p ExpiryPolicy) InviteExpired(user *models.User, now time.Time) bool {
	return Expired(user.InvitedAt, p.InviteCutoff(now))
}

func (p ExpiryPolicy) SessionExpired(session *models.Session, now time.Time) bool {
	return Expired(session.CreatedAt, p.SessionCutoff(now))
}

func (p ExpiryPolicy) InviteExpiresAt(user *models.User) time.Time {
	return user.InvitedAt.Add(p.InviteLife)
}

func (p ExpiryPolicy) SessionExpiresAt(session *models.Session) time.Time {
	return session.CreatedAt.Add(p.SessionLife)
}
