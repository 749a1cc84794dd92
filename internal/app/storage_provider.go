package app

import (
	"fmt"

	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/localstore"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// Swapped in tests.
var (
	newGCSBucket  = gcp.NewBucketService
	newLocalStore = func(log *logger.Logger, root, publicBaseURL string) (gcp.BucketService, error) {
		return localstore.New(log, root, publicBaseURL)
	}
)

// resolveBucketService picks the object store behind reports, the template
// and company logos.
func resolveBucketService(log *logger.Logger, cfg gcp.StorageConfig) (gcp.BucketService, error) {
	if err := cfg.Validate(); err != nil {
		log.Error("Object storage misconfigured", "mode", cfg.Mode, "error", err)
		return nil, err
	}
	log.Info("Selecting object storage provider",
		"mode", cfg.Mode,
		"inferred", cfg.Inferred,
		"emulator_host", cfg.EmulatorHost,
		"local_root", cfg.LocalRoot,
	)

	var (
		bucket gcp.BucketService
		err    error
	)
	if cfg.Mode == gcp.ModeLocal {
		bucket, err = newLocalStore(log, cfg.LocalRoot, cfg.PublicBaseURL)
	} else {
		bucket, err = newGCSBucket(log, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("object storage (%s): %w", cfg.Mode, err)
	}
	return bucket, nil
}
