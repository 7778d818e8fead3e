package providers

import (
	"context"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/awbooks/awbooks-server/internal/config"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/service"
	"github.com/awbooks/awbooks-server/internal/session"
	"github.com/awbooks/awbooks-server/internal/store/sqlite"
)

// sessionGCInterval is how often the session store's value log is compacted.
const sessionGCInterval = 10 * time.Minute

// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
const shutdownTimeout = 30 * time.Second

// StoreHandle wraps the record store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the record store and seeds categories when enabled.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, err
	}

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	if cfg.Catalog.SeedCategories {
		n, err := service.SeedCategories(context.Background(), db, service.DefaultCategories)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("Categories seeded", "created", n)
	}

	return &StoreHandle{Store: db}, nil
}

// SessionStoreHandle wraps the session store and its GC loop.
type SessionStoreHandle struct {
	*session.Store
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return h.Close()
}

// ProvideSessionStore opens the Badger session store and starts its GC loop.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := session.Open(cfg.Data.SessionsPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		st.RunGC(ctx, sessionGCInterval)
	}()

	return &SessionStoreHandle{Store: st, cancel: cancel, done: done}, nil
}
