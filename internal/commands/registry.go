package commands

import (
	"context"
	"errors"

	"github.com/goliatone/go-sitemap/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the sitemap command handlers produced by RegisterSitemapCommands.
type HandlerSet struct {
	RebuildLocale *RebuildLocaleHandler
	RebuildAll    *RebuildAllHandler
	Revalidate    *RevalidateHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	rebuildLocaleOpts []HandlerOption[RebuildLocaleCommand]
	rebuildAllOpts    []HandlerOption[RebuildAllCommand]
	revalidateOpts    []HandlerOption[RevalidateCommand]
}

// WithRebuildLocaleOptions forwards options to the RebuildLocaleHandler constructor.
func WithRebuildLocaleOptions(opts ...HandlerOption[RebuildLocaleCommand]) Option {
	return func(cfg *options) {
		cfg.rebuildLocaleOpts = append(cfg.rebuildLocaleOpts, opts...)
	}
}

// WithRebuildAllOptions forwards options to the RebuildAllHandler constructor.
func WithRebuildAllOptions(opts ...HandlerOption[RebuildAllCommand]) Option {
	return func(cfg *options) {
		cfg.rebuildAllOpts = append(cfg.rebuildAllOpts, opts...)
	}
}

// WithRevalidateOptions forwards options to the RevalidateHandler constructor.
func WithRevalidateOptions(opts ...HandlerOption[RevalidateCommand]) Option {
	return func(cfg *options) {
		cfg.revalidateOpts = append(cfg.revalidateOpts, opts...)
	}
}

// RegisterSitemapCommands builds the sitemap command handlers and registers
// them with the provided registry. The returned HandlerSet lets callers wire
// additional integrations (dispatcher, cron) as needed.
func RegisterSitemapCommands(reg CommandRegistry, service Revalidator, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("sitemap command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := CommandLogger(provider, "sitemap")

	rebuildLocale := NewRebuildLocaleHandler(service, logger, cfg.rebuildLocaleOpts...)
	rebuildAll := NewRebuildAllHandler(service, logger, cfg.rebuildAllOpts...)
	revalidate := NewRevalidateHandler(service, logger, cfg.revalidateOpts...)

	if reg != nil {
		if err := reg.RegisterCommand(rebuildLocale); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(rebuildAll); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(revalidate); err != nil {
			return nil, err
		}
	}

	return &HandlerSet{
		RebuildLocale: rebuildLocale,
		RebuildAll:    rebuildAll,
		Revalidate:    revalidate,
	}, nil
}

// RegisterRebuildCron wires the rebuild-all handler into a cron registrar
// using the supplied command configuration and message payload. The handler
// is executed with a background context.
func RegisterRebuildCron(reg CronRegistrar, handler *RebuildAllHandler, cfg command.HandlerConfig, msg RebuildAllCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
