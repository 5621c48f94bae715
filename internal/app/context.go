// Package app carries the shared process-level dependencies handed to the
// server and background loops.
package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/hilo-match/hilo/internal/cache"
	"github.com/hilo-match/hilo/internal/config"
	"github.com/hilo-match/hilo/internal/tags"
)

// AppContext bundles everything built once at startup.
type AppContext struct {
	DB        *gorm.DB
	Cache     *cache.RedisCache
	Catalog   *tags.Catalog
	TraitList []tags.Trait
	Traits    tags.TraitSet
	Config    *config.Config
	Log       *slog.Logger
}
