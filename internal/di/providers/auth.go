package providers

import (
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/awbooks/awbooks-server/internal/auth"
	"github.com/awbooks/awbooks-server/internal/config"
	"github.com/awbooks/awbooks-server/internal/identity"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/ratelimit"
	"github.com/awbooks/awbooks-server/internal/session"
)

// SessionKey wraps the session cookie key bytes.
type SessionKey []byte

// ProvideSessionKey derives the key from SESSION_SECRET, or loads the key
// persisted in the data directory.
func ProvideSessionKey(i do.Injector) (SessionKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.ResolveKey(cfg.Session.Secret, cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	source := "data directory"
	if cfg.Session.Secret != "" {
		source = "SESSION_SECRET"
	}
	log.Info("Session key loaded",
		"source", source,
		"session_duration", cfg.Session.Duration,
	)

	return SessionKey(key), nil
}

// ProvideCookieSealer provides the PASETO cookie sealer.
func ProvideCookieSealer(i do.Injector) (*auth.CookieSealer, error) {
	key := do.MustInvoke[SessionKey](i)
	return auth.NewCookieSealer([]byte(key))
}

// ProvideSessionManager provides the cookie session manager.
func ProvideSessionManager(i do.Injector) (*session.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	backend := do.MustInvoke[*SessionStoreHandle](i)
	sealer := do.MustInvoke[*auth.CookieSealer](i)

	return session.NewManager(backend.Store, sealer, session.Options{
		CookieName: cfg.Session.CookieName,
		Duration:   cfg.Session.Duration,
		Secure:     cfg.Session.CookieSecure,
	}, log.Logger), nil
}

// ProvideVerifier provides the ID token verifier selected by AUTH_VERIFIER.
func ProvideVerifier(i do.Injector) (identity.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Auth.Verifier {
	case config.VerifierLocal:
		log.Info("Verifying ID tokens locally", "client_id", cfg.Auth.GoogleClientID)
		return identity.NewLocalVerifier(cfg.Auth.GoogleClientID), nil
	case config.VerifierTokenInfo:
		if cfg.Auth.GoogleClientID == "" {
			log.Warn("GOOGLE_CLIENT_ID not set, token audience will not be checked")
		}
		log.Info("Verifying ID tokens with tokeninfo endpoint", "url", cfg.Auth.TokenInfoURL, "timeout", cfg.Auth.VerifyTimeout)
		return identity.NewTokenInfoVerifier(cfg.Auth.TokenInfoURL, cfg.Auth.GoogleClientID, cfg.Auth.VerifyTimeout), nil
	default:
		return nil, fmt.Errorf("unknown verifier %q", cfg.Auth.Verifier)
	}
}

// LoginLimiterHandle wraps the login rate limiter with shutdown capability.
type LoginLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLoginLimiter provides the per-IP limiter for /login and /gconnect.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &LoginLimiterHandle{
		KeyedRateLimiter: ratelimit.NewWithTTL(cfg.Auth.LoginRate, cfg.Auth.LoginBurst, 15*time.Minute),
	}, nil
}
