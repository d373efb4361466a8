package app

import (
	"github.com/honua-io/honua/internal/registry"
	"github.com/honua-io/honua/modules/features"
	"github.com/honua-io/honua/modules/tiles"
	"github.com/honua-io/honua/modules/wfs"
	"github.com/honua-io/honua/modules/wms"
)

// coreRegistrations is the definitive set of service modules compiled into
// the honua binary. Deployment targets with extra services pass their own
// list to New instead.
func coreRegistrations() []registry.ServiceRegistration {
	return []registry.ServiceRegistration{
		wfs.New(),
		wms.New(),
		tiles.New(),
		features.New(),
	}
}
