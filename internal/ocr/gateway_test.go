package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeBackend struct {
	name      string
	text      string
	err       error
	healthErr error
	checkable bool
	calls     int
	checks    int
}

func (f *fakeBackend) Service() string { return f.name }

func (f *fakeBackend) ExtractText(ctx context.Context, imagePath string) (*ExtractionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ExtractionResult{Text: f.text, Confidence: 0.9, Service: f.name}, nil
}

type checkableBackend struct {
	fakeBackend
}

func (c *checkableBackend) CheckHealth(ctx context.Context) error {
	c.checks++
	return c.healthErr
}

func newGatewayForTest(local, remote TextExtractor, cfg GatewayConfig) *Gateway {
	g := NewGateway(local, remote, cfg)
	g.sleep = func(time.Duration) {}
	return g
}

func TestGateway_PrimarySucceeds(t *testing.T) {
	remote := &checkableBackend{fakeBackend: fakeBackend{name: ServiceVision, text: "page text"}}
	local := &fakeBackend{name: ServiceTesseract, text: "local text"}
	g := newGatewayForTest(local, remote, DefaultGatewayConfig())

	result, err := g.ExtractText(context.Background(), "page-1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Service != ServiceVision || result.Text != "page text" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if remote.checks != 1 {
		t.Errorf("expected health check before use, got %d checks", remote.checks)
	}
	if local.calls != 0 {
		t.Errorf("fallback should not have been called, got %d calls", local.calls)
	}
}

func TestGateway_UnhealthyRemoteSkipsToFallback(t *testing.T) {
	remote := &checkableBackend{fakeBackend: fakeBackend{
		name:      ServiceVision,
		healthErr: NewOCRError("CheckHealth", ErrBackendUnhealthy, "probe failed"),
	}}
	local := &fakeBackend{name: ServiceTesseract, text: "local text"}
	g := newGatewayForTest(local, remote, DefaultGatewayConfig())

	result, err := g.ExtractText(context.Background(), "page-1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Service != ServiceTesseract {
		t.Fatalf("expected fallback service name, got %q", result.Service)
	}
	if remote.calls != 0 {
		t.Errorf("unhealthy remote must not be called, got %d calls", remote.calls)
	}
}

func TestGateway_RetriesPrimaryThenFallsBack(t *testing.T) {
	remote := &checkableBackend{fakeBackend: fakeBackend{
		name: ServiceVision,
		err:  NewOCRError("ExtractText", ErrExtractionFailed, "boom"),
	}}
	local := &fakeBackend{name: ServiceTesseract, text: "local text"}
	g := newGatewayForTest(local, remote, DefaultGatewayConfig())

	result, err := g.ExtractText(context.Background(), "page-1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remote.calls != 2 {
		t.Errorf("expected 2 primary attempts, got %d", remote.calls)
	}
	if result.Service != ServiceTesseract {
		t.Errorf("expected fallback result, got %q", result.Service)
	}
}

func TestGateway_BothBackendsExhausted(t *testing.T) {
	remote := &checkableBackend{fakeBackend: fakeBackend{
		name: ServiceVision,
		err:  errors.New("vision down"),
	}}
	local := &fakeBackend{name: ServiceTesseract, err: errors.New("tesseract missing")}
	g := newGatewayForTest(local, remote, DefaultGatewayConfig())

	_, err := g.ExtractText(context.Background(), "page-1.png")
	if err == nil {
		t.Fatal("expected error when both backends fail")
	}
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Errorf("expected ErrOCRUnavailable, got %v", err)
	}
	for _, fragment := range []string{"vision down", "tesseract missing"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error should carry %q: %v", fragment, err)
		}
	}
}

func TestGateway_LocalPrimary(t *testing.T) {
	remote := &checkableBackend{fakeBackend: fakeBackend{name: ServiceVision, text: "remote"}}
	local := &fakeBackend{name: ServiceTesseract, text: "local"}
	cfg := DefaultGatewayConfig()
	cfg.Primary = BackendLocal
	g := newGatewayForTest(local, remote, cfg)

	result, err := g.ExtractText(context.Background(), "page-1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Service != ServiceTesseract {
		t.Errorf("expected local primary, got %q", result.Service)
	}
	if remote.calls != 0 || remote.checks != 0 {
		t.Errorf("remote should be untouched, calls=%d checks=%d", remote.calls, remote.checks)
	}
}

func TestGateway_NoFallbackConfigured(t *testing.T) {
	remote := &checkableBackend{fakeBackend: fakeBackend{
		name: ServiceVision,
		err:  errors.New("vision down"),
	}}
	g := newGatewayForTest(nil, remote, DefaultGatewayConfig())

	_, err := g.ExtractText(context.Background(), "page-1.png")
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Fatalf("expected ErrOCRUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "no fallback configured") {
		t.Errorf("error should note missing fallback: %v", err)
	}
}

func TestGateway_GetServiceStatus(t *testing.T) {
	remote := &checkableBackend{fakeBackend: fakeBackend{name: ServiceVision}}
	local := &fakeBackend{name: ServiceTesseract}
	g := newGatewayForTest(local, remote, DefaultGatewayConfig())

	status := g.GetServiceStatus(context.Background())
	if status.Primary != BackendRemote || status.Fallback != BackendLocal {
		t.Errorf("unexpected roles: %+v", status)
	}
	if !status.RemoteHealthy || !status.LocalAvailable {
		t.Errorf("expected healthy backends: %+v", status)
	}
	if status.RemoteService != ServiceVision {
		t.Errorf("unexpected remote service: %q", status.RemoteService)
	}

	remote.healthErr = ErrBackendUnhealthy
	status = g.GetServiceStatus(context.Background())
	if status.RemoteHealthy {
		t.Error("expected unhealthy remote to be reported")
	}
}
