// package to connect to the Gemini API
package gemini

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
	MODEL   = "gemini-1.5-flash"
)

// API is a type for the Gemini API
type API struct {
	apiKey   string
	endpoint string
	client   *http.Client
	statsd   *statsd.Client
}

// NewAPI creates new Gemini API
func NewAPI(cfg *config.Config) *API {
	return &API{
		apiKey:   cfg.GeminiAPIKey,
		endpoint: cfg.GeminiAPIEndpoint,
		client: &http.Client{
			Timeout: TIMEOUT,
		},
		statsd: cfg.DataDogClient,
	}
}

// GenerateContent sends the history plus the newest turn's parts and returns
// the completion text.
func (a *API) GenerateContent(ctx context.Context, history []models.GeminiContent, parts []models.GeminiPart) (string, error) {
	timeNow := time.Now()

	contents := make([]models.GeminiContent, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, models.GeminiContent{Role: "user", Parts: parts})

	request := models.GeminiRequest{
		SystemInstruction: &models.GeminiContent{
			Parts: []models.GeminiPart{models.TextPart(config.AI_INSTRUCTIONS)},
		},
		Contents: contents,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.endpoint, MODEL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	status := 0
	defer func() {
		a.statsd.Timing("gemini.generate_content.latency", time.Since(timeNow), []string{fmt.Sprintf("status:%d", status), "model:" + MODEL}, 1)
	}()

	resp, err := a.client.Do(req)
	if err != nil {
		log.Errorf("GenerateContent: request failed: %v", err)
		return "", &lib.UpstreamError{Provider: "gemini", Message: "request to Gemini API failed"}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		message := "Something went wrong with the Gemini API"
		var errorResponse models.GeminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResponse); err == nil && errorResponse.Error.Message != "" {
			message = errorResponse.Error.Message
		}
		return "", &lib.UpstreamError{Provider: "gemini", StatusCode: resp.StatusCode, Message: message}
	}

	var response models.GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", &lib.UpstreamError{Provider: "gemini", Message: "unexpected Gemini API response"}
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", &lib.UpstreamError{Provider: "gemini", Message: "Gemini API returned no candidates"}
	}

	text := ""
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != nil {
			text += *part.Text
		}
	}
	return text, nil
}

// IsAvailable checks whether the Gemini API is reachable
func (a *API) IsAvailable(ctx context.Context) bool {
	if a.apiKey == "" {
		log.Errorf("PING: Gemini API key is not set")
		return false
	}

	_, err := a.GenerateContent(ctx, nil, []models.GeminiPart{models.TextPart("Reply only \"OK\"")})
	if err != nil {
		log.Errorf("PING: Gemini API error: %+v", err)
		return false
	}
	return true
}
