package htmldoc

import "github.com/mj1618/page-turner/internal/platform"

// DriverName is the name the offline driver registers under.
const DriverName = "html"

func init() {
	platform.Register(DriverName, func(opts platform.Options) (*platform.Provider, error) {
		d, err := Open(opts)
		if err != nil {
			return nil, err
		}
		return d.Provider(), nil
	})
}
