package providers

import (
	"github.com/samber/do/v2"

	"github.com/saucepanapp/saucepan-server/internal/config"
	"github.com/saucepanapp/saucepan-server/internal/logger"
	"github.com/saucepanapp/saucepan-server/internal/media/images"
)

// ProvideImageStorage provides the recipe image storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}

	log.Info("Image storage initialized", "path", cfg.Storage.DataPath)

	return storage, nil
}
