package commands

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-sitemap/routes"
)

const (
	rebuildLocaleMessageType = "sitemap.rebuild.locale"
	rebuildAllMessageType    = "sitemap.rebuild.all"
	revalidateMessageType    = "sitemap.revalidate"
)

// Revalidator is the slice of the revalidation coordinator the command
// handlers drive.
type Revalidator interface {
	Rebuild(ctx context.Context, locale string) (*routes.DocumentSet, error)
	RebuildAll(ctx context.Context) error
	Published(locale string) (*routes.DocumentSet, bool)
	Enqueue(event routes.RevalidationEvent) error
}

// ResultCallback receives document sets produced by rebuild commands. The
// callback is optional and is invoked synchronously from the handler.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a rebuild command execution.
type ResultEnvelope struct {
	Set      *routes.DocumentSet
	Metadata map[string]any
}

// RebuildLocaleCommand rebuilds the documents for a single locale. Without
// Force, locales that already publish a document set are left untouched.
type RebuildLocaleCommand struct {
	Locale         string         `json:"locale"`
	Force          bool           `json:"force,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (RebuildLocaleCommand) Type() string { return rebuildLocaleMessageType }

// Validate ensures the target locale is present.
func (m RebuildLocaleCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Locale) == "" {
		errs["locale"] = validation.NewError("sitemap.rebuild.locale_required", "locale must not be empty")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RebuildAllCommand rebuilds every configured locale, or the listed subset.
type RebuildAllCommand struct {
	Locales        []string       `json:"locales,omitempty"`
	Force          bool           `json:"force,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (RebuildAllCommand) Type() string { return rebuildAllMessageType }

// Validate ensures listed locales are well-formed.
func (m RebuildAllCommand) Validate() error {
	errs := validation.Errors{}
	for _, locale := range m.Locales {
		if strings.TrimSpace(locale) == "" {
			errs["locales"] = validation.NewError("sitemap.rebuild.locales_invalid", "locales must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RevalidateCommand enqueues a staleness event instead of rebuilding inline.
// The locale may be the wildcard accepted by the coordinator.
type RevalidateCommand struct {
	Locale string `json:"locale"`
	Reason string `json:"reason,omitempty"`
}

// Type implements command.Message.
func (RevalidateCommand) Type() string { return revalidateMessageType }

// Validate ensures the target locale is present.
func (m RevalidateCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Locale) == "" {
		errs["locale"] = validation.NewError("sitemap.revalidate.locale_required", "locale must not be empty")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
