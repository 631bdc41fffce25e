package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nitrolabs/nitro/internal/domain"
	"github.com/nitrolabs/nitro/internal/metrics"
	"github.com/nitrolabs/nitro/internal/store"
	"github.com/nitrolabs/nitro/pkg/cryptox"
	"github.com/nitrolabs/nitro/pkg/jwtx"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

type SessionService struct {
	Store store.Store

	// TTL is the lifetime of a freshly created session. Zero means the
	// 30 day default.
	TTL time.Duration

	// Metrics is optional; nil disables recording.
	Metrics metrics.MetricsCollector
}

func (s *SessionService) metrics() metrics.MetricsCollector {
	if s.Metrics == nil {
		return metrics.Noop{}
	}
	return s.Metrics
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.TTL
}

// EstablishSession returns the user's live session, creating one only when
// none exists. The check-then-insert runs inside a transaction so two
// concurrent logins for the same user cannot both create a session.
func (s *SessionService) EstablishSession(ctx context.Context, userID string) (domain.Session, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	var session domain.Session
	var created bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		created = false
		existing, err := tx.Sessions().GetActiveSessionForUser(ctx, userID, now)
		if err == nil {
			session = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		token, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return err
		}

		session = domain.Session{
			Token:     token,
			UserID:    userID,
			ExpiresAt: now.Add(s.ttl()),
			CreatedAt: now,
		}
		created = true
		return tx.Sessions().CreateSession(ctx, session)
	})
	if err != nil {
		return domain.Session{}, err
	}

	if created {
		s.metrics().RecordSessionCreated()
	} else {
		s.metrics().RecordSessionReused()
	}

	l.Debug("session established",
		slog.String("user_id", userID),
		slog.Time("expires_at", session.ExpiresAt),
	)
	return session, nil
}

// TerminateSession deletes every session row with the given token. Unknown
// tokens are not an error, so logout is safely repeatable.
func (s *SessionService) TerminateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.Store.Sessions().DeleteSessionsByToken(ctx, token); err != nil {
		return err
	}
	s.metrics().RecordSessionRevoked()
	return nil
}

// IsLive reports whether a session with the token exists and has not
// expired. This is the server-side revocation check: a signed credential is
// only trusted while its session row is live.
func (s *SessionService) IsLive(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	session, err := s.Store.Sessions().GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return session.Live(time.Now().UTC()), nil
}

// GetSession fetches the session row for a token regardless of liveness.
func (s *SessionService) GetSession(ctx context.Context, token string) (domain.Session, error) {
	return s.Store.Sessions().GetSessionByToken(ctx, token)
}
