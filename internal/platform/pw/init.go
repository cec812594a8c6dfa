package pw

import "github.com/mj1618/page-turner/internal/platform"

// DriverName is the name the playwright driver registers under.
const DriverName = "playwright"

func init() {
	platform.Register(DriverName, func(opts platform.Options) (*platform.Provider, error) {
		s, err := Start(opts)
		if err != nil {
			return nil, err
		}
		return s.Provider(), nil
	})
}
