// Package providers registers the default set of providers with
// ytgrab.DefaultProviderRegistry; import it for side effects.
package providers

import (
	_ "github.com/mwhitfield/ytgrab/provider/raw"
	_ "github.com/mwhitfield/ytgrab/provider/youtube"
)
