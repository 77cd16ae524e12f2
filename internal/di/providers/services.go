package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagmark/tagmark-server/internal/access"
	"github.com/tagmark/tagmark-server/internal/auth"
	"github.com/tagmark/tagmark-server/internal/config"
	"github.com/tagmark/tagmark-server/internal/logger"
	"github.com/tagmark/tagmark-server/internal/markup"
	"github.com/tagmark/tagmark-server/internal/metrics"
	"github.com/tagmark/tagmark-server/internal/service"
)

// MetricsHandle holds the Prometheus collectors. Metrics is nil when
// metrics are disabled; every consumer accepts a nil collector.
type MetricsHandle struct {
	Metrics *metrics.Metrics
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Metrics.Enabled {
		return &MetricsHandle{}, nil
	}
	return &MetricsHandle{Metrics: metrics.New()}, nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, cfg.Auth.OpenRegistration, log.Logger), nil
}

// ProvideBookmarkService provides the bookmark service. Anything the
// access policy does not name is denied.
func ProvideBookmarkService(i do.Injector) (*service.BookmarkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	policy := access.NewPolicy(storeHandle.Store, access.DenyAll)
	return service.NewBookmarkService(storeHandle.Store, policy, markup.NewRenderer(), metricsHandle.Metrics, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideTransferService provides bookmark import and export.
func ProvideTransferService(i do.Injector) (*service.TransferService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	bookmarks := do.MustInvoke[*service.BookmarkService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTransferService(storeHandle.Store, bookmarks, log.Logger), nil
}
