// Package openai implements image generation via the OpenAI Images API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"colorbook-backend/internal/imagegen"
)

const (
	apiURL = "https://api.openai.com/v1/images/generations"
)

// Client implements imagegen.Client using OpenAI.
type Client struct {
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient constructs a new OpenAI image client.
func NewClient(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 180 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_IMAGE_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}, nil
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate runs one generation call. Provider-level failures come back as an
// unsuccessful Result so the pipeline can retry within its budget;
// cancellation propagates as an error.
func (c *Client) Generate(ctx context.Context, req imagegen.Request) (imagegen.Result, error) {
	if err := req.Params.Validate(); err != nil {
		return imagegen.Result{}, err
	}
	if req.Params.Provider != imagegen.ProviderOpenAI {
		return imagegen.Result{}, fmt.Errorf("openai client got provider %q", req.Params.Provider)
	}

	prompt := buildPrompt(req)
	started := c.now()

	body := imageRequest{
		Model:   req.Params.OpenAI.Model,
		Prompt:  prompt,
		N:       1,
		Size:    sizeFor(req.AspectRatio, req.ResolutionTier),
		Quality: req.Params.OpenAI.Quality,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return imagegen.Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return imagegen.Result{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return imagegen.Result{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return failed(prompt, started, c.now(), "image request timeout"), nil
		}
		return failed(prompt, started, c.now(), err.Error()), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(prompt, started, c.now(), err.Error()), nil
	}

	var parsed imageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return failed(prompt, started, c.now(), "image response parse failed"), nil
	}
	if parsed.Error != nil {
		return failed(prompt, started, c.now(), fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type)), nil
	}
	if len(parsed.Data) == 0 || (parsed.Data[0].URL == "" && parsed.Data[0].B64JSON == "") {
		return failed(prompt, started, c.now(), "image response missing data"), nil
	}

	imageURL := parsed.Data[0].URL
	if imageURL == "" {
		imageURL = "data:image/png;base64," + parsed.Data[0].B64JSON
	}

	return imagegen.Result{
		Success:    true,
		ImageURL:   imageURL,
		PromptUsed: prompt,
		DurationMs: durationMs(started, c.now()),
	}, nil
}

// buildPrompt folds the negative prompt into the request text since the
// Images API takes a single prompt.
func buildPrompt(req imagegen.Request) string {
	prompt := strings.TrimSpace(req.PositivePrompt)
	if negative := strings.TrimSpace(req.NegativePrompt); negative != "" {
		prompt += "\n\nStrictly avoid: " + negative + "."
	}
	return prompt
}

func sizeFor(aspectRatio, resolutionTier string) string {
	large := resolutionTier == "print"
	switch aspectRatio {
	case "landscape":
		if large {
			return "1792x1024"
		}
		return "1536x1024"
	case "square":
		return "1024x1024"
	default: // portrait
		if large {
			return "1024x1792"
		}
		return "1024x1536"
	}
}

func failed(prompt string, started, finished time.Time, message string) imagegen.Result {
	return imagegen.Result{
		Success:    false,
		Error:      message,
		PromptUsed: prompt,
		DurationMs: durationMs(started, finished),
	}
}

func durationMs(started, finished time.Time) float64 {
	return float64(finished.Sub(started).Microseconds()) / 1000.0
}

var _ imagegen.Client = (*Client)(nil)
