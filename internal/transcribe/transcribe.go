// Package transcribe submits finished recordings to a remote speech-to-text
// service and writes the returned segments as a timestamped transcript.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Segment is one timestamped span of transcribed text, in service order.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// response is the service's verbose_json payload.
type response struct {
	Task     string    `json:"task"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
	Text     string    `json:"text"`
}

// RemoteError reports a failed transcription call. Retryable errors (network
// faults, rate limits, server errors) may be retried a bounded number of
// times; anything else fails the call immediately.
type RemoteError struct {
	Status    int
	Retryable bool
	Err       error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transcription service returned %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transcription request failed: %v", e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

type Options struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client calls the remote service over HTTP with bearer auth.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpc      *http.Client
	maxRetries uint64
	log        zerolog.Logger
}

func NewClient(opts Options, log zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpc:      &http.Client{Timeout: timeout},
		maxRetries: uint64(retries),
		log:        log,
	}
}

// Transcribe uploads the audio file and returns the service's segments.
// Retryable failures are retried with exponential backoff up to the
// configured bound; the audio file is never touched either way.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	if c.endpoint == "" {
		return nil, errors.New("transcription endpoint not configured")
	}

	var segments []Segment
	attempt := 0
	op := func() error {
		attempt++
		segs, err := c.request(ctx, audioPath)
		if err != nil {
			var re *RemoteError
			if errors.As(err, &re) && !re.Retryable {
				return backoff.Permanent(err)
			}
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("Transcription attempt failed")
			return err
		}
		segments = segs
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return segments, nil
}

func (c *Client) request(ctx context.Context, audioPath string) ([]Segment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	if c.model != "" {
		form.WriteField("model", c.model)
	}
	form.WriteField("response_format", "verbose_json")
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &RemoteError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Status: resp.StatusCode, Retryable: true, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, &RemoteError{
			Status:    resp.StatusCode,
			Retryable: retryable,
			Err:       fmt.Errorf("%s", strings.TrimSpace(string(data))),
		}
	}

	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &RemoteError{Status: resp.StatusCode, Retryable: false, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(r.Segments) == 0 && strings.TrimSpace(r.Text) != "" {
		// Some deployments return plain text only; keep it as one segment.
		return []Segment{{Start: 0, End: r.Duration, Text: strings.TrimSpace(r.Text)}}, nil
	}
	return r.Segments, nil
}
