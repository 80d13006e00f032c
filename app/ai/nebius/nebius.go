// package to connect to the Nebius Studio API (OpenAI compatible)
package nebius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"researchchat/m/v2/app/config"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	log "github.com/sirupsen/logrus"
)

const (
	TIMEOUT = 60 * time.Second
	MODEL   = "stability-ai/sdxl"
)

// API is a type for the Nebius Studio image generation API
type API struct {
	authToken string
	endpoint  string
	client    *http.Client
	statsd    *statsd.Client
}

// NewAPI creates new Nebius API
func NewAPI(cfg *config.Config) *API {
	return &API{
		authToken: cfg.NebiusAPIKey,
		endpoint:  cfg.NebiusAPIEndpoint,
		client: &http.Client{
			Timeout: TIMEOUT,
		},
		statsd: cfg.DataDogClient,
	}
}

// GenerateImage renders the prompt and returns a PNG data URI.
func (a *API) GenerateImage(ctx context.Context, prompt string) (string, error) {
	timeNow := time.Now()

	request := models.NebiusImageRequest{
		Model:             MODEL,
		Prompt:            prompt,
		ResponseFormat:    "b64_json",
		ResponseExtension: "png",
		Width:             1024,
		Height:            1024,
		NumInferenceSteps: 30,
		NegativePrompt:    "",
		Seed:              -1,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/images/generations", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.authToken)

	status := 0
	defer func() {
		a.statsd.Timing("nebius.generate_image.latency", time.Since(timeNow), []string{fmt.Sprintf("status:%d", status), "model:" + MODEL}, 1)
	}()

	resp, err := a.client.Do(req)
	if err != nil {
		log.Errorf("GenerateImage: request failed: %v", err)
		return "", &lib.UpstreamError{Provider: "nebius", Message: "request to Nebius Studio API failed"}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		message := "Something went wrong with the Nebius Studio API"
		var errorResponse models.NebiusErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResponse); err == nil && errorResponse.Error.Message != "" {
			message = errorResponse.Error.Message
		}
		return "", &lib.UpstreamError{Provider: "nebius", StatusCode: resp.StatusCode, Message: message}
	}

	var response models.NebiusImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", &lib.UpstreamError{Provider: "nebius", Message: "unexpected Nebius Studio API response"}
	}
	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return "", &lib.UpstreamError{Provider: "nebius", Message: "Nebius Studio API returned no image"}
	}

	return "data:image/png;base64," + response.Data[0].B64JSON, nil
}

// IsAvailable checks whether the Nebius API key is configured
func (a *API) IsAvailable(ctx context.Context) bool {
	if a.authToken == "" {
		log.Errorf("PING: Nebius API key is not set")
		return false
	}
	return true
}
