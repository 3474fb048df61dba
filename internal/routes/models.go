package routes

import (
	sitemaproutes "github.com/goliatone/go-sitemap/routes"
)

// Aliases keep the internal registry in sync with the public domain types.
type (
	RouteEntry        = sitemaproutes.RouteEntry
	ChangeFrequency   = sitemaproutes.ChangeFrequency
	Warning           = sitemaproutes.Warning
	RevalidationEvent = sitemaproutes.RevalidationEvent
)

// Origin labels recorded on merged entries.
const (
	OriginStatic         = "static"
	originFallbackPrefix = "fallback:"
)

// FallbackOrigin labels an entry borrowed from another locale in the chain.
func FallbackOrigin(code string) string {
	return originFallbackPrefix + code
}
