package flux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeti-set-go/asset-pipeline/config"
	"github.com/yeti-set-go/asset-pipeline/internal/entity"
)

// Regional API endpoints.
var baseURLs = map[string]string{
	"global": "https://api.bfl.ai",
	"eu":     "https://api.eu.bfl.ai",
	"us":     "https://api.us.bfl.ai",
}

const (
	initialPollBackoff = 2 * time.Second
	maxPollBackoff     = 15 * time.Second
	backoffMultiplier  = 1.2

	retryJitterMin = 5 * time.Second
	retryJitterMax = 15 * time.Second
)

// Client drives the generation API: submits jobs under a per-model-class
// rate budget and polls them to completion.
type Client struct {
	apiKey          string
	baseURL         string
	safetyTolerance int

	pollTimeout       time.Duration
	maxSubmitAttempts int

	standardGate *requestGate
	maxGate      *requestGate

	httpClient *http.Client

	// overridable in tests
	sleep func(time.Duration)
	now   func() time.Time
}

func NewClient(cfg config.FluxConfig) *Client {
	baseURL, ok := baseURLs[cfg.Region]
	if !ok {
		baseURL = baseURLs["global"]
	}

	return &Client{
		apiKey:            cfg.APIKey,
		baseURL:           baseURL,
		safetyTolerance:   cfg.SafetyTolerance,
		pollTimeout:       cfg.PollTimeout,
		maxSubmitAttempts: cfg.MaxSubmitAttempts,
		standardGate:      newRequestGate(cfg.MaxConcurrent),
		maxGate:           newRequestGate(cfg.MaxConcurrentKontextMax),
		httpClient:        &http.Client{Timeout: 60 * time.Second},
		sleep:             time.Sleep,
		now:               time.Now,
	}
}

type submitRequest struct {
	Prompt          string `json:"prompt"`
	AspectRatio     string `json:"aspect_ratio"`
	SafetyTolerance int    `json:"safety_tolerance"`
	OutputFormat    string `json:"output_format"`
	InputImage      string `json:"input_image,omitempty"`
}

type submitResponse struct {
	ID         string `json:"id"`
	PollingURL string `json:"polling_url"`
}

type pollResponse struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Result   *struct {
		Sample string `json:"sample"`
	} `json:"result"`
	Details json.RawMessage `json:"details"`
}

// Submit sends a generation request and returns a handle for polling.
// The request holds one slot of the model class budget for its duration;
// the slot is released on every exit path. A 429 from the service is
// retried with randomized jitter up to maxSubmitAttempts times, a 402
// fails immediately, any other failure fails immediately.
func (c *Client) Submit(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio string, referenceImage string) (entity.JobHandle, error) {
	release, err := c.gateFor(model).Acquire(ctx)
	if err != nil {
		return entity.JobHandle{}, err
	}
	defer release()

	for attempt := 1; attempt <= c.maxSubmitAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return entity.JobHandle{}, err
		}

		handle, retryable, err := c.submitOnce(ctx, prompt, model, aspectRatio, referenceImage)
		if err == nil {
			return handle, nil
		}
		if !retryable {
			return entity.JobHandle{}, err
		}

		wait := retryJitterMin + time.Duration(rand.Float64()*float64(retryJitterMax-retryJitterMin))
		logrus.Warnf("Rate limited by API, waiting %s before retry %d/%d", wait.Round(time.Millisecond), attempt, c.maxSubmitAttempts)
		c.sleep(wait)
	}

	return entity.JobHandle{}, fmt.Errorf("%w: gave up after %d attempts", entity.ErrRateLimited, c.maxSubmitAttempts)
}

func (c *Client) submitOnce(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio string, referenceImage string) (entity.JobHandle, bool, error) {
	body := submitRequest{
		Prompt:          prompt,
		AspectRatio:     aspectRatio,
		SafetyTolerance: c.safetyTolerance,
		OutputFormat:    "png",
	}
	if referenceImage != "" && model.IsKontext() {
		body.InputImage = referenceImage
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return entity.JobHandle{}, false, fmt.Errorf("%w: %v", entity.ErrSubmission, err)
	}

	endpoint := fmt.Sprintf("%s/v1/%s", c.baseURL, model)
	logrus.Infof("Submitting request to %s", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return entity.JobHandle{}, false, fmt.Errorf("%w: %v", entity.ErrSubmission, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.JobHandle{}, false, fmt.Errorf("%w: %v", entity.ErrSubmission, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result submitResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return entity.JobHandle{}, false, fmt.Errorf("%w: decoding response: %v", entity.ErrSubmission, err)
		}

		logrus.Infof("Task submitted successfully. ID: %s", result.ID)

		pollingURL := result.PollingURL
		if pollingURL == "" {
			pollingURL = fmt.Sprintf("%s/v1/get_result?id=%s", c.baseURL, result.ID)
		}
		logrus.Infof("Polling URL: %s", pollingURL)

		return entity.JobHandle{ID: result.ID, PollingURL: pollingURL}, false, nil

	case http.StatusTooManyRequests:
		return entity.JobHandle{}, true, entity.ErrRateLimited

	case http.StatusPaymentRequired:
		logrus.Error("Insufficient credits")
		return entity.JobHandle{}, false, entity.ErrInsufficientCredits

	default:
		text, _ := io.ReadAll(resp.Body)
		logrus.Errorf("API Error: %d - %s", resp.StatusCode, text)
		return entity.JobHandle{}, false, fmt.Errorf("%w: status %d: %s", entity.ErrSubmission, resp.StatusCode, text)
	}
}

// Poll queries the job status with increasing backoff until the job reaches
// a terminal state or the poll timeout elapses, then downloads the result.
// The result URL is short-lived (about ten minutes), so the download happens
// immediately on Ready.
func (c *Client) Poll(ctx context.Context, handle entity.JobHandle) ([]byte, error) {
	start := c.now()
	wait := initialPollBackoff

	for c.now().Sub(start) < c.pollTimeout {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, err := c.fetchStatus(ctx, handle)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case entity.JobStatusReady:
			if status.Result == nil || status.Result.Sample == "" {
				return nil, fmt.Errorf("%w: ready response without result URL", entity.ErrPolling)
			}
			return c.download(ctx, status.Result.Sample)

		case entity.JobStatusError, entity.JobStatusModerated:
			logrus.Errorf("Generation failed: %s", status.Status)
			if len(status.Details) > 0 {
				logrus.Errorf("Details: %s", status.Details)
				return nil, fmt.Errorf("%w: %s: %s", entity.ErrGenerationRejected, status.Status, status.Details)
			}
			return nil, fmt.Errorf("%w: %s", entity.ErrGenerationRejected, status.Status)

		case entity.JobStatusPending:
			logrus.Infof("Generation in progress... %.0f%% (waited %ds)", status.Progress, int(c.now().Sub(start).Seconds()))
			c.sleep(wait)
			wait = nextBackoff(wait)

		default:
			return nil, fmt.Errorf("%w: unexpected status %q", entity.ErrPolling, status.Status)
		}
	}

	logrus.Errorf("Generation timed out after %s", c.pollTimeout)
	return nil, fmt.Errorf("%w: after %s", entity.ErrTimeout, c.pollTimeout)
}

func (c *Client) fetchStatus(ctx context.Context, handle entity.JobHandle) (*pollResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, handle.PollingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrPolling, err)
	}
	req.Header.Set("x-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrPolling, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		logrus.Errorf("Polling error: %d - %s", resp.StatusCode, text)
		return nil, fmt.Errorf("%w: status %d: %s", entity.ErrPolling, resp.StatusCode, text)
	}

	var status pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", entity.ErrPolling, err)
	}
	return &status, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDownload, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Errorf("Failed to download image: %d", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", entity.ErrDownload, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// GenerateImage runs the full submit-then-poll sequence for one image.
func (c *Client) GenerateImage(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio string, referenceImage string) ([]byte, error) {
	handle, err := c.Submit(ctx, prompt, model, aspectRatio, referenceImage)
	if err != nil {
		return nil, err
	}
	return c.Poll(ctx, handle)
}

func nextBackoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * backoffMultiplier)
	if next > maxPollBackoff {
		next = maxPollBackoff
	}
	return next
}
