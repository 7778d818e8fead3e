package api

import "github.com/awbooks/awbooks-server/internal/service"

// Services groups the business logic used by the handlers.
type Services struct {
	Catalog  *service.CatalogService
	Identity *service.IdentityService
}
