package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// LocaleUUID identifies a configured locale. Codes are case-insensitive for
// identity purposes so "en-IN" and "en-in" map to the same locale record.
func LocaleUUID(localeCode string) uuid.UUID {
	return UUID("go-sitemap:locale:" + strings.ToLower(strings.TrimSpace(localeCode)))
}

// DocumentUUID identifies the generated sitemap document for a locale. The
// ID is stable across rebuilds; only the document body and checksum change.
func DocumentUUID(localeCode string) uuid.UUID {
	return UUID("go-sitemap:document:" + strings.ToLower(strings.TrimSpace(localeCode)))
}

// RouteUUID identifies a route entry within a locale by its normalized path.
func RouteUUID(localeCode, path string) uuid.UUID {
	locale := strings.ToLower(strings.TrimSpace(localeCode))
	return UUID("go-sitemap:route:" + locale + ":" + strings.TrimSpace(path))
}
