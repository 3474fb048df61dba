package runtimeconfig_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-sitemap/internal/runtimeconfig"
)

func multiLocaleConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Site.Locales = []runtimeconfig.LocaleConfig{
		{Code: "en", CanonicalBase: "https://academy.example.com/en"},
		{Code: "hi", CanonicalBase: "https://academy.example.com/hi", Fallback: "en"},
	}
	cfg.Site.DefaultLocale = "en"
	return cfg
}

func TestConfigValidate_AcceptsDefaults(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_AcceptsFallbackChain(t *testing.T) {
	cfg := multiLocaleConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresLocales(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Site.Locales = nil

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrSiteLocalesRequired) {
		t.Fatalf("expected ErrSiteLocalesRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresKnownDefaultLocale(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.DefaultLocale = "fr"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDefaultLocaleUnknown) {
		t.Fatalf("expected ErrDefaultLocaleUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsDuplicateLocaleCodes(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.Locales = append(cfg.Site.Locales, runtimeconfig.LocaleConfig{
		Code:          "en",
		CanonicalBase: "https://academy.example.com/en2",
	})

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLocaleCodeDuplicate) {
		t.Fatalf("expected ErrLocaleCodeDuplicate, got %v", err)
	}
}

func TestConfigValidate_RejectsReservedLocaleCode(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.Locales = append(cfg.Site.Locales, runtimeconfig.LocaleConfig{
		Code:          "all",
		CanonicalBase: "https://academy.example.com/all",
	})

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLocaleCodeReserved) {
		t.Fatalf("expected ErrLocaleCodeReserved, got %v", err)
	}
}

func TestConfigValidate_RejectsRelativeCanonicalBase(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.Locales[1].CanonicalBase = "/hi"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCanonicalBaseInvalid) {
		t.Fatalf("expected ErrCanonicalBaseInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownFallback(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.Locales[1].Fallback = "de"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrFallbackUnknown) {
		t.Fatalf("expected ErrFallbackUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsSelfFallback(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.Locales[0].Fallback = "en"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrFallbackSelfReference) {
		t.Fatalf("expected ErrFallbackSelfReference, got %v", err)
	}
}

func TestConfigValidate_RejectsOutOfRangePriority(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.DefaultPriority = 1.4

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDefaultPriorityInvalid) {
		t.Fatalf("expected ErrDefaultPriorityInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownFrequency(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.DefaultChangeFrequency = "fortnightly"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDefaultFrequencyInvalid) {
		t.Fatalf("expected ErrDefaultFrequencyInvalid, got %v", err)
	}
}

func TestConfigValidate_WatcherRequiresPath(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Watcher.Enabled = true
	cfg.Watcher.Path = "  "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrWatcherPathRequired) {
		t.Fatalf("expected ErrWatcherPathRequired, got %v", err)
	}
}

func TestConfigValidate_FeedSourceRequiresEndpoint(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Sources.Feed.Enabled = true
	cfg.Sources.Feed.Endpoint = ""

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrFeedEndpointRequired) {
		t.Fatalf("expected ErrFeedEndpointRequired, got %v", err)
	}

	cfg.Sources.Feed.Endpoint = "routes.json"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrFeedEndpointInvalid) {
		t.Fatalf("expected ErrFeedEndpointInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestStaticPathsFor_MergesSharedAndLocalePaths(t *testing.T) {
	cfg := multiLocaleConfig()
	cfg.Site.StaticPaths = []string{"", "about"}
	cfg.Site.LocaleStaticPaths = map[string][]string{
		"en": {"careers"},
	}

	en := cfg.Site.StaticPathsFor("en")
	if len(en) != 3 || en[2] != "careers" {
		t.Fatalf("expected shared+locale paths for en, got %v", en)
	}

	hi := cfg.Site.StaticPathsFor("hi")
	if len(hi) != 2 {
		t.Fatalf("expected shared paths only for hi, got %v", hi)
	}
}
