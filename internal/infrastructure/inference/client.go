// Package inference is the HTTP client for the external inference service.
// The model runs elsewhere; this client posts a formatted prompt plus the
// encoded image and decodes the extraction result. Calls are rate limited,
// retried on transient failures, and guarded by a circuit breaker so a dead
// service fails fast during a batch run.
package inference

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fieldlens/backend/internal/domain/prompt"
	"github.com/fieldlens/backend/internal/infrastructure/monitoring"
	"github.com/fieldlens/backend/internal/infrastructure/resilience"
	"github.com/fieldlens/backend/internal/logging"
)

// Config configures the client.
type Config struct {
	Endpoint          string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	Logger            *logging.Logger
	Metrics           *monitoring.Metrics
}

// Client calls the inference service. It implements batch.Runner.
type Client struct {
	resty    *resty.Client
	endpoint string
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// request is the wire format the service accepts.
type request struct {
	Prompt    string `json:"prompt"`
	ImageB64  string `json:"image_b64"`
	ImageMIME string `json:"image_mime"`
}

// response is the wire format the service returns.
type response struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"`
	Raw        string         `json:"raw,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ServiceError reports a non-2xx response from the inference service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("inference service returned %d: %s", e.StatusCode, e.Message)
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "fieldlens/1.0").
		SetTransport(retryClient.StandardClient().Transport)

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	log := cfg.Logger.Named("inference")
	breaker := resilience.New("inference", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		resty:    restyClient,
		endpoint: cfg.Endpoint,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  breaker,
		log:      log,
		metrics:  cfg.Metrics,
	}
}

// Infer sends one formatted prompt to the service.
func (c *Client) Infer(ctx context.Context, req prompt.FormattedPrompt) (prompt.ExtractionResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return prompt.ExtractionResult{}, err
	}

	image, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return prompt.ExtractionResult{}, fmt.Errorf("failed to read image: %w", err)
	}

	body := request{
		Prompt:    req.Text,
		ImageB64:  base64.StdEncoding.EncodeToString(image),
		ImageMIME: req.MIME,
	}

	var (
		decoded response
		start   = time.Now()
	)
	err = c.breaker.Do(func() error {
		// SetResult only decodes 2xx bodies; error bodies land in errBody.
		var errBody response
		resp, err := c.resty.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&decoded).
			SetError(&errBody).
			Post(c.endpoint)
		if err != nil {
			return err
		}
		if resp.IsError() {
			msg := errBody.Error
			if msg == "" {
				msg = resp.Status()
			}
			return &ServiceError{StatusCode: resp.StatusCode(), Message: msg}
		}
		return nil
	})

	elapsed := time.Since(start)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.ObserveInference(status, elapsed)
	}
	if err != nil {
		return prompt.ExtractionResult{}, err
	}

	return prompt.ExtractionResult{
		Fields:     decoded.Fields,
		Confidence: decoded.Confidence,
		Raw:        decoded.Raw,
	}, nil
}
