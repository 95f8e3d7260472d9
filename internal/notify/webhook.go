package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/saharat-dev/backend-merchant/internal/events"
	"github.com/saharat-dev/backend-merchant/internal/resilience"
)

// Deliverer posts domain events to the configured webhook target. Failures
// return an error so asynq retries with its backoff; a missing or invalid
// target is permanent and skips retry. When a breaker is configured, repeated
// endpoint failures short-circuit delivery attempts until the cool-off passes.
type Deliverer struct {
	Client    *http.Client
	Breaker   *resilience.Breaker
	TargetURL string
	Secret    string
	Log       zerolog.Logger
}

// HandleTask implements the asynq handler for TaskWebhookDeliver.
func (d *Deliverer) HandleTask(ctx context.Context, task *asynq.Task) error {
	var ev events.Event
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		return fmt.Errorf("decode event: %v: %w", err, asynq.SkipRetry)
	}
	status, err := d.Deliver(ctx, ev)
	if err != nil {
		d.Log.Warn().Err(err).Str("topic", ev.Topic).Str("event_id", ev.ID).
			Msg("webhook delivery failed")
		return err
	}
	d.Log.Info().Int("status", status).Str("topic", ev.Topic).Str("event_id", ev.ID).
		Msg("webhook delivered")
	return nil
}

// Deliver performs one signed POST of the event envelope.
func (d *Deliverer) Deliver(ctx context.Context, ev events.Event) (int, error) {
	if err := validateURL(d.TargetURL); err != nil {
		return 0, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	envelope := struct {
		EventID    string          `json:"eventId"`
		Topic      string          `json:"topic"`
		Data       json.RawMessage `json:"data"`
		OccurredAt time.Time       `json:"occurredAt"`
	}{
		EventID:    ev.ID,
		Topic:      ev.Topic,
		Data:       ev.Payload,
		OccurredAt: occurred,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return 0, fmt.Errorf("encode envelope: %v: %w", err, asynq.SkipRetry)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.TargetURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	ts := time.Now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "backend-merchant-webhooks/1.0")
	req.Header.Set("X-Event-ID", ev.ID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Signature", ComputeSignature(d.Secret, ts, ev.ID, body))

	client := d.Client
	if client == nil {
		client = HTTPClient(5 * time.Second)
	}
	var resp *http.Response
	if d.Breaker != nil {
		rc := resilience.HTTPClient{Client: client, Breaker: d.Breaker, MaxAttempts: 1}
		resp, err = rc.Do(ctx, req)
	} else {
		resp, err = client.Do(req)
	}
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// ComputeSignature calculates the webhook signature for the provided payload.
// The format is HMAC-SHA256 over "<ts>.<eventID>.<body>" using the shared
// secret.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// HTTPClient returns a client configured for webhook delivery with tracing.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(&http.Transport{}),
	}
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("webhook url must be http or https")
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("http webhook only allowed for localhost")
		}
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	return nil
}
