// Package api is the http surface of chatter.
//
// It parses and validates requests, hands them to the store or the timeline
// service, and shapes the responses. Nothing here holds state between requests.
package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(
		NewServer,
	),
)
