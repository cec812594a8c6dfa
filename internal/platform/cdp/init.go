package cdp

import "github.com/mj1618/page-turner/internal/platform"

// DriverName is the name the chromedp driver registers under.
const DriverName = "cdp"

func init() {
	platform.Register(DriverName, func(opts platform.Options) (*platform.Provider, error) {
		b, err := Launch(opts)
		if err != nil {
			return nil, err
		}
		return b.Provider(), nil
	})
}
