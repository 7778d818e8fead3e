package providers

import (
	"github.com/samber/do/v2"

	"github.com/awbooks/awbooks-server/internal/identity"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/service"
)

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewCatalogService(storeHandle.Store, log.Logger), nil
}

// ProvideIdentityService provides the identity linker.
func ProvideIdentityService(i do.Injector) (*service.IdentityService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	verifier := do.MustInvoke[identity.Verifier](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewIdentityService(storeHandle.Store, verifier, log.Logger), nil
}
