package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"examtools/internal/logger"
)

// GatewayConfig configures the gateway's retry and fallback policy.
type GatewayConfig struct {
	// Primary selects the backend tried first: BackendRemote (default) or
	// BackendLocal.
	Primary string

	// MaxRetries is the number of attempts on the primary backend.
	MaxRetries int

	// RetryDelay is the fixed delay between primary attempts.
	RetryDelay time.Duration

	// CallTimeout bounds each individual extraction call.
	CallTimeout time.Duration
}

// DefaultGatewayConfig returns the standard policy: remote primary, two
// attempts with a one second delay, 30s per call.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Primary:     BackendRemote,
		MaxRetries:  2,
		RetryDelay:  time.Second,
		CallTimeout: 30 * time.Second,
	}
}

// Gateway selects between the local and remote OCR backends. The remote
// backend is health-checked before every use since its reachability can
// change between calls; when the primary is exhausted or unhealthy a single
// attempt is made on the fallback.
//
// Backends are stateless capability providers, so a Gateway is safe for
// concurrent use across requests.
type Gateway struct {
	local  TextExtractor
	remote TextExtractor
	config GatewayConfig
	log    zerolog.Logger
	sleep  func(time.Duration)
}

// NewGateway creates a gateway over the given backends. Either backend may
// be nil, in which case only the other is used.
func NewGateway(local, remote TextExtractor, config GatewayConfig) *Gateway {
	if config.Primary == "" {
		config.Primary = BackendRemote
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 30 * time.Second
	}
	return &Gateway{
		local:  local,
		remote: remote,
		config: config,
		log:    logger.WithComponent("ocr-gateway"),
		sleep:  time.Sleep,
	}
}

// ExtractText applies the gateway policy to a single page image.
func (g *Gateway) ExtractText(ctx context.Context, imagePath string) (*ExtractionResult, error) {
	const op = "ExtractText"

	primary, fallback := g.resolveBackends()
	if primary == nil {
		return nil, NewOCRError(op, ErrOCRUnavailable, "no OCR backend configured")
	}

	var primaryErr error
	if healthErr := g.checkHealth(ctx, primary); healthErr != nil {
		// An unhealthy primary skips straight to the fallback without
		// consuming the retry budget.
		primaryErr = healthErr
		g.log.Warn().
			Str("backend", primary.Service()).
			Err(healthErr).
			Msg("Primary backend unhealthy, skipping to fallback")
	} else {
		for attempt := 1; attempt <= g.config.MaxRetries; attempt++ {
			result, err := g.callBackend(ctx, primary, imagePath)
			if err == nil {
				return result, nil
			}
			primaryErr = err
			g.log.Warn().
				Str("backend", primary.Service()).
				Int("attempt", attempt).
				Int("max_retries", g.config.MaxRetries).
				Err(err).
				Msg("OCR attempt failed")
			if attempt < g.config.MaxRetries {
				g.sleep(g.config.RetryDelay)
			}
		}
	}

	if fallback == nil {
		return nil, NewOCRError(op, ErrOCRUnavailable,
			fmt.Sprintf("%s: %v; no fallback configured", primary.Service(), primaryErr))
	}

	var fallbackErr error
	if healthErr := g.checkHealth(ctx, fallback); healthErr != nil {
		fallbackErr = healthErr
	} else {
		g.log.Info().
			Str("backend", fallback.Service()).
			Msg("Falling back to secondary OCR backend")
		result, err := g.callBackend(ctx, fallback, imagePath)
		if err == nil {
			return result, nil
		}
		fallbackErr = err
	}

	return nil, NewOCRError(op, ErrOCRUnavailable,
		fmt.Sprintf("%s: %v; %s: %v", primary.Service(), primaryErr, fallback.Service(), fallbackErr))
}

// GetServiceStatus reports the configured backends and their availability.
func (g *Gateway) GetServiceStatus(ctx context.Context) ServiceStatus {
	status := ServiceStatus{Primary: g.config.Primary}

	if g.remote != nil {
		status.RemoteService = g.remote.Service()
		status.RemoteHealthy = g.checkHealth(ctx, g.remote) == nil
	}
	if g.local != nil {
		status.LocalAvailable = true
		if a, ok := g.local.(interface{ Available() bool }); ok {
			status.LocalAvailable = a.Available()
		}
	}

	_, fallback := g.resolveBackends()
	if fallback != nil {
		if g.config.Primary == BackendRemote {
			status.Fallback = BackendLocal
		} else {
			status.Fallback = BackendRemote
		}
	}
	return status
}

// resolveBackends maps the configured primary role onto the backends.
func (g *Gateway) resolveBackends() (primary, fallback TextExtractor) {
	if g.config.Primary == BackendLocal {
		primary, fallback = g.local, g.remote
	} else {
		primary, fallback = g.remote, g.local
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	return primary, fallback
}

// checkHealth probes backends that expose a health check; backends without
// one (the local engine) are always considered healthy.
func (g *Gateway) checkHealth(ctx context.Context, backend TextExtractor) error {
	checker, ok := backend.(HealthChecker)
	if !ok {
		return nil
	}
	return checker.CheckHealth(ctx)
}

// callBackend runs one extraction attempt under the per-call timeout.
func (g *Gateway) callBackend(ctx context.Context, backend TextExtractor, imagePath string) (*ExtractionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.config.CallTimeout)
	defer cancel()
	return backend.ExtractText(callCtx, imagePath)
}
