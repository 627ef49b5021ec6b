package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/imageio"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// HTTPRecognizerOptions configures the handwriting model server client
type HTTPRecognizerOptions struct {
	BaseURL string
	GPU     bool
	// RPS limits requests per second; zero disables the limit.
	RPS     float64
	Timeout time.Duration
}

// HTTPRecognizer is a RegionRecognizer backed by a model server exposing
//
//	GET  /health     -> 200 when the model is loaded
//	POST /recognize  -> {"text": "..."} for a PNG body
type HTTPRecognizer struct {
	opts    HTTPRecognizerOptions
	client  *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

type recognizeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// NewHTTPRecognizer creates the client. A nil client gets one with opts.Timeout.
func NewHTTPRecognizer(opts HTTPRecognizerOptions, client *http.Client, log *logger.Logger) *HTTPRecognizer {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRecognizerTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = logger.Discard()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(1, int(opts.RPS)))
	}
	return &HTTPRecognizer{opts: opts, client: client, limiter: limiter, logger: log}
}

// Ping checks that the model server is up
func (r *HTTPRecognizer) Ping(ctx context.Context) error {
	if r.opts.BaseURL == "" {
		return utils.NewUnavailableError("handwriting recognizer URL is not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.BaseURL+"/health", nil)
	if err != nil {
		return utils.NewValidationError("invalid handwriting recognizer URL", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return utils.NewUnavailableError("handwriting recognizer is not reachable", err).WithContext("url", r.opts.BaseURL)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return utils.NewUnavailableError(fmt.Sprintf("handwriting recognizer health check returned %d", resp.StatusCode), nil).
			WithContext("url", r.opts.BaseURL)
	}
	return nil
}

// RecognizeRegion sends one cropped region to the model server
func (r *HTTPRecognizer) RecognizeRegion(ctx context.Context, region image.Image) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeTimeout, "rate limiter wait cancelled")
	}

	body, err := imageio.EncodePNG(region)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.BaseURL+"/recognize", bytes.NewReader(body))
	if err != nil {
		return "", utils.NewValidationError("invalid handwriting recognizer URL", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("X-Device", torchDevice(r.opts.GPU))

	resp, err := r.client.Do(req)
	if err != nil {
		return "", utils.NewError(utils.ErrorTypeNetwork, "handwriting recognizer request failed", err).AsRecoverable()
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", utils.NewError(utils.ErrorTypeNetwork, "failed to read handwriting recognizer response", err).AsRecoverable()
	}
	if resp.StatusCode != http.StatusOK {
		appErr := utils.NewOCRError(fmt.Sprintf("handwriting recognizer returned %d", resp.StatusCode), nil).
			WithContext("body", strings.TrimSpace(string(data)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			appErr.AsRecoverable()
		}
		return "", appErr
	}

	var out recognizeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", utils.NewConversionError("error parsing handwriting recognizer response", err)
	}
	if out.Error != "" {
		return "", utils.NewOCRError(out.Error, nil)
	}
	return strings.TrimSpace(out.Text), nil
}

// Close releases idle connections
func (r *HTTPRecognizer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
