package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
	command "github.com/goliatone/go-command"
)

var (
	_ command.Commander[RebuildLocaleCommand] = (*RebuildLocaleHandler)(nil)
	_ command.Commander[RebuildAllCommand]    = (*RebuildAllHandler)(nil)
	_ command.Commander[RevalidateCommand]    = (*RevalidateHandler)(nil)
)

// RebuildLocaleHandler rebuilds one locale through the revalidation service.
type RebuildLocaleHandler struct {
	inner *Handler[RebuildLocaleCommand]
}

// NewRebuildLocaleHandler constructs a handler wired to the provided service.
func NewRebuildLocaleHandler(service Revalidator, logger interfaces.Logger, opts ...HandlerOption[RebuildLocaleCommand]) *RebuildLocaleHandler {
	baseLogger := EnsureLogger(logger)

	exec := func(ctx context.Context, msg RebuildLocaleCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}
		locale := strings.TrimSpace(msg.Locale)

		if !msg.Force {
			if set, ok := service.Published(locale); ok {
				invokeCallback(msg.ResultCallback, ResultEnvelope{
					Set: set,
					Metadata: map[string]any{
						"operation": "rebuild.locale",
						"locale":    locale,
						"skipped":   true,
					},
				})
				return nil
			}
		}

		set, err := service.Rebuild(ctx, locale)
		if err != nil {
			return wrapRebuildError(err)
		}
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Set: set,
			Metadata: map[string]any{
				"operation": "rebuild.locale",
				"locale":    locale,
			},
		})
		return nil
	}

	handlerOpts := []HandlerOption[RebuildLocaleCommand]{
		WithLogger[RebuildLocaleCommand](baseLogger),
		WithOperation[RebuildLocaleCommand]("rebuild.locale"),
		WithMessageFields(func(msg RebuildLocaleCommand) map[string]any {
			fields := map[string]any{"locale": strings.TrimSpace(msg.Locale)}
			if msg.Force {
				fields["force"] = true
			}
			return fields
		}),
		WithTelemetry(DefaultTelemetry[RebuildLocaleCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RebuildLocaleHandler{inner: NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[RebuildLocaleCommand].
func (h *RebuildLocaleHandler) Execute(ctx context.Context, msg RebuildLocaleCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RebuildAllHandler rebuilds every configured locale, or an explicit subset.
type RebuildAllHandler struct {
	inner *Handler[RebuildAllCommand]
}

// NewRebuildAllHandler constructs a handler wired to the provided service.
func NewRebuildAllHandler(service Revalidator, logger interfaces.Logger, opts ...HandlerOption[RebuildAllCommand]) *RebuildAllHandler {
	baseLogger := EnsureLogger(logger)

	exec := func(ctx context.Context, msg RebuildAllCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}

		locales := normalizeLocales(msg.Locales)
		if len(locales) == 0 {
			if err := service.RebuildAll(ctx); err != nil {
				return wrapRebuildError(err)
			}
			invokeCallback(msg.ResultCallback, ResultEnvelope{
				Metadata: map[string]any{"operation": "rebuild.all"},
			})
			return nil
		}

		var errs []error
		rebuilt := make([]string, 0, len(locales))
		for _, locale := range locales {
			if !msg.Force {
				if _, ok := service.Published(locale); ok {
					continue
				}
			}
			if _, err := service.Rebuild(ctx, locale); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", locale, err))
				continue
			}
			rebuilt = append(rebuilt, locale)
		}
		if len(errs) > 0 {
			return wrapRebuildError(errors.Join(errs...))
		}
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Metadata: map[string]any{
				"operation": "rebuild.all",
				"locales":   rebuilt,
			},
		})
		return nil
	}

	handlerOpts := []HandlerOption[RebuildAllCommand]{
		WithLogger[RebuildAllCommand](baseLogger),
		WithOperation[RebuildAllCommand]("rebuild.all"),
		WithMessageFields(func(msg RebuildAllCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Locales) > 0 {
				fields["locales"] = len(msg.Locales)
			}
			if msg.Force {
				fields["force"] = true
			}
			return fields
		}),
		WithTelemetry(DefaultTelemetry[RebuildAllCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RebuildAllHandler{inner: NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[RebuildAllCommand].
func (h *RebuildAllHandler) Execute(ctx context.Context, msg RebuildAllCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RevalidateHandler enqueues staleness events without waiting for rebuilds.
type RevalidateHandler struct {
	inner *Handler[RevalidateCommand]
}

// NewRevalidateHandler constructs a handler wired to the provided service.
func NewRevalidateHandler(service Revalidator, logger interfaces.Logger, opts ...HandlerOption[RevalidateCommand]) *RevalidateHandler {
	baseLogger := EnsureLogger(logger)

	exec := func(_ context.Context, msg RevalidateCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}
		reason := strings.TrimSpace(msg.Reason)
		if reason == "" {
			reason = "command"
		}
		err := service.Enqueue(routes.RevalidationEvent{
			Locale: strings.TrimSpace(msg.Locale),
			Reason: reason,
		})
		if err != nil {
			return wrapRevalidateError(err)
		}
		return nil
	}

	handlerOpts := []HandlerOption[RevalidateCommand]{
		WithLogger[RevalidateCommand](baseLogger),
		WithOperation[RevalidateCommand]("revalidate"),
		WithMessageFields(func(msg RevalidateCommand) map[string]any {
			return map[string]any{"locale": strings.TrimSpace(msg.Locale)}
		}),
		WithTelemetry(DefaultTelemetry[RevalidateCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RevalidateHandler{inner: NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[RevalidateCommand].
func (h *RevalidateHandler) Execute(ctx context.Context, msg RevalidateCommand) error {
	return h.inner.Execute(ctx, msg)
}

func normalizeLocales(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, locale := range values {
		trimmed := strings.TrimSpace(locale)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}
