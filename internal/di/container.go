// Package di provides dependency injection configuration for the AWBooks server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/awbooks/awbooks-server/internal/config"
	"github.com/awbooks/awbooks-server/internal/di/providers"
	"github.com/awbooks/awbooks-server/internal/identity"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/service"
	"github.com/awbooks/awbooks-server/internal/session"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSessionKey)

	// Storage
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionStore)

	// Auth
	do.Provide(injector, providers.ProvideCookieSealer)
	do.Provide(injector, providers.ProvideSessionManager)
	do.Provide(injector, providers.ProvideVerifier)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideIdentityService)

	// Presentation
	do.Provide(injector, providers.ProvideRenderer)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Invoking the HTTP server handle starts
// listening; everything it depends on is built first.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.SessionKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SessionStoreHandle](injector)
	_ = do.MustInvoke[*session.Manager](injector)
	_ = do.MustInvoke[identity.Verifier](injector)
	_ = do.MustInvoke[*providers.LoginLimiterHandle](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.IdentityService](injector)
	_ = do.MustInvoke[*providers.RendererHandle](injector)

	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
