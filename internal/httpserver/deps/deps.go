package deps

import (
	"time"

	"whatip/internal/detect"
	"whatip/internal/logger"
	"whatip/internal/registry"
	"whatip/internal/resolve"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Registry *registry.Registry
	Detector *detect.Detector
	Resolver *resolve.Resolver

	DetectTimeout  time.Duration // overall budget per detection request
	DetectWorkers  int           // race mode worker bound
	ResolveWorkers int           // batch resolution worker bound

	ReloadTrigger chan struct{} // channel to trigger a manual config reload
}
