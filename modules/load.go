package modules

import (
	"github.com/koinonia-app/koinonia/modules/attendance"
	"github.com/koinonia-app/koinonia/pkg/application"
)

// BuiltIn returns the modules the server registers by default.
func BuiltIn(opts *attendance.ModuleOptions) []application.Module {
	return []application.Module{
		attendance.NewModule(opts),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
