package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-sitemap/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	if fields == nil {
		fields = map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "sitemap.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	// Ensure WithContext/WithFields do not panic.
	ctx := context.Background()
	logger = logger.WithContext(ctx)
	logger = logger.(interfaces.FieldsLogger).WithFields(map[string]any{"foo": "bar"})
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, registryModule)

	if len(provider.requested) != 1 || provider.requested[0] != registryModule {
		t.Fatalf("expected module %s, got %v", registryModule, provider.requested)
	}

	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}

	if got, ok := rec.fields[0]["module"]; !ok || got != registryModule {
		t.Fatalf("expected module field %s, got %v", registryModule, rec.fields[0]["module"])
	}

	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
	if rec.fields[0]["module"] != rootModule {
		t.Fatalf("expected module field %s, got %v", rootModule, rec.fields[0]["module"])
	}
}

func TestRevalidateLoggerRequestsRevalidateModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = RevalidateLogger(provider)
	if len(provider.requested) == 0 || provider.requested[0] != revalidateModule {
		t.Fatalf("expected revalidate module request, got %v", provider.requested)
	}
}

func TestWatcherLoggerRequestsWatcherModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = WatcherLogger(provider)
	if len(provider.requested) == 0 || provider.requested[0] != watcherModule {
		t.Fatalf("expected watcher module request, got %v", provider.requested)
	}
}

func TestContextFieldsMergeAndCopy(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "r-1"})
	ctx = ContextWithFields(ctx, map[string]any{"locale": "en", "request_id": "r-2"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "r-2" || fields["locale"] != "en" {
		t.Fatalf("unexpected merged fields: %v", fields)
	}

	fields["locale"] = "de"
	if again := ContextFields(ctx); again["locale"] != "en" {
		t.Fatalf("expected stored fields to be isolated from caller mutation, got %v", again)
	}
}

func TestWithRouteContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	_ = WithRouteContext(rec, "en", "", "markdown")

	if len(rec.fields) != 1 {
		t.Fatalf("expected fields to be applied once, got %d", len(rec.fields))
	}
	fields := rec.fields[0]
	if fields[fieldLocale] != "en" || fields[fieldSource] != "markdown" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if _, ok := fields[fieldPath]; ok {
		t.Fatalf("expected empty path to be skipped")
	}
}
