package routes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoLocales          = errors.New("routes: no locales configured")
	ErrLocaleCodeRequired = errors.New("routes: locale code is required")
	ErrUnknownLocale      = errors.New("routes: unknown locale")
	ErrDuplicateLocale    = errors.New("routes: duplicate locale code")
	ErrFallbackUnknown    = errors.New("routes: fallback references unknown locale")
	ErrFallbackCycle      = errors.New("routes: locale fallback cycle detected")
	ErrSourceUnavailable  = errors.New("routes: content source unavailable")
	ErrMalformedEntry     = errors.New("routes: malformed route entry")
	ErrFeedUnavailable    = errors.New("routes: feed unavailable")
	ErrRobotsUnavailable  = errors.New("routes: robots policy unavailable")
)

// LocaleNotFoundError captures lookups for locales outside the configured set.
type LocaleNotFoundError struct {
	Code string
}

func (e *LocaleNotFoundError) Error() string {
	if e == nil || strings.TrimSpace(e.Code) == "" {
		return ErrUnknownLocale.Error()
	}
	return fmt.Sprintf("%s: locale=%s", ErrUnknownLocale.Error(), e.Code)
}

func (e *LocaleNotFoundError) Unwrap() error {
	return ErrUnknownLocale
}

// FallbackCycleError carries the offending chain so operators can see the
// loop in startup logs, e.g. "hi -> en -> hi".
type FallbackCycleError struct {
	Chain []string
}

func (e *FallbackCycleError) Error() string {
	if e == nil || len(e.Chain) == 0 {
		return ErrFallbackCycle.Error()
	}
	return fmt.Sprintf("%s: chain=%s", ErrFallbackCycle.Error(), strings.Join(e.Chain, " -> "))
}

func (e *FallbackCycleError) Unwrap() error {
	return ErrFallbackCycle
}

// SourceError captures a failed dynamic route fetch. The registry absorbs
// these into degraded-mode warnings on the generated document; a failed
// fetch never fails the build.
type SourceError struct {
	Source string
	Locale string
	Err    error
}

func (e *SourceError) Error() string {
	if e == nil {
		return ErrSourceUnavailable.Error()
	}
	msg := fmt.Sprintf("%s: source=%s locale=%s", ErrSourceUnavailable.Error(), e.Source, e.Locale)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return ErrSourceUnavailable
}

// MalformedEntryError reports a route entry rejected during normalization.
type MalformedEntryError struct {
	Locale string
	Path   string
	Reason string
}

func (e *MalformedEntryError) Error() string {
	if e == nil {
		return ErrMalformedEntry.Error()
	}
	msg := fmt.Sprintf("%s: locale=%s path=%q", ErrMalformedEntry.Error(), e.Locale, e.Path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *MalformedEntryError) Unwrap() error {
	return ErrMalformedEntry
}
