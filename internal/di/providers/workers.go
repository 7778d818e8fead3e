package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/awbooks/awbooks-server/internal/config"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/view"
)

// RendererHandle wraps the page renderer and its template watcher.
type RendererHandle struct {
	*view.Renderer
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RendererHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideRenderer parses the page templates. With TEMPLATES_DIR set the
// templates are read from disk and reloaded on change.
func ProvideRenderer(i do.Injector) (*RendererHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	r, err := view.New(view.Options{Dir: cfg.View.TemplatesDir}, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.View.TemplatesDir != "" {
		go func() {
			if err := r.Watch(ctx); err != nil {
				log.Error("Template watcher stopped", "error", err)
			}
		}()
	}

	return &RendererHandle{Renderer: r, cancel: cancel}, nil
}
