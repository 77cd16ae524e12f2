package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/tagmark/tagmark-server/internal/config"
	"github.com/tagmark/tagmark-server/internal/logger"
	"github.com/tagmark/tagmark-server/internal/search"
	"github.com/tagmark/tagmark-server/internal/service"
)

// SearchHandle holds the search index and the service built on it.
// Both are nil when search is disabled.
type SearchHandle struct {
	Service *service.SearchService
	index   *search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchHandle) Shutdown() error {
	if h.index == nil {
		return nil
	}
	return h.index.Close()
}

// ProvideSearch opens the Bleve index and wires the search service into
// the store so every bookmark write is indexed.
func ProvideSearch(i do.Injector) (*SearchHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if !cfg.Search.Enabled {
		log.Info("Search disabled by configuration")
		return &SearchHandle{}, nil
	}

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.SearchIndexPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	svc := service.NewSearchService(index, storeHandle.Store, log.Logger)
	storeHandle.SetSearchIndexer(svc)

	return &SearchHandle{Service: svc, index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when
// it is empty but bookmarks exist.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	handle := do.MustInvoke[*SearchHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if handle.Service == nil {
		return
	}

	docCount, _ := handle.Service.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	bookmarks, err := storeHandle.ListAllBookmarks(ctx)
	if err != nil || len(bookmarks) == 0 {
		return
	}

	log.Info("Search index is empty but bookmarks exist, triggering initial reindex",
		"bookmark_count", len(bookmarks),
	)

	go func() {
		if err := handle.Service.ReindexAll(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := handle.Service.DocumentCount()
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
