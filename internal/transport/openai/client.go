package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/searchbot/internal/domain"
)

// API flavors accepted in Config.APIType.
const (
	APITypeAzure  = "azure"
	APITypeOpenAI = "openai"
)

// DefaultAzureAPIVersion is the data-plane version used for Azure deployments.
const DefaultAzureAPIVersion = "2024-02-01"

// Config holds the connection settings shared by the embedder and the generator.
type Config struct {
	APIType    string // azure (default) or openai
	Endpoint   string
	APIKey     string
	Deployment string // Azure deployment name, or model name for openai
	APIVersion string
}

func (c *Config) validate(component string) error {
	return domain.RequireSettings(component,
		"endpoint", c.Endpoint,
		"api_key", c.APIKey,
		"deployment", c.Deployment,
	)
}

// newClient builds a go-openai client. For Azure, every model name maps to the configured deployment.
func newClient(cfg *Config) *openai.Client {
	if cfg.APIType == APITypeOpenAI {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		clientCfg.BaseURL = cfg.Endpoint
		return openai.NewClientWithConfig(clientCfg)
	}

	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	clientCfg.APIVersion = DefaultAzureAPIVersion
	if cfg.APIVersion != "" {
		clientCfg.APIVersion = cfg.APIVersion
	}
	deployment := cfg.Deployment
	clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	return openai.NewClientWithConfig(clientCfg)
}

// parseAPIError extracts a human-readable error from the API response and wraps it with sentinel.
func parseAPIError(err, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("API error %d: %s: %w", reqErr.HTTPStatusCode, detail, sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("request failed: %v: %w", err, sentinel)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
