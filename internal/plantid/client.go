// Package plantid implements the client for the external plant-identification
// service. It covers photo classification, knowledge-base lookups by species
// name, and the conversation endpoint used for healing-properties questions.
package plantid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/verdantlab/papabois/internal/config"
)

// Sentinel errors surfaced to the user as formatted error replies.
var (
	ErrNoClassification = errors.New("no classification results available")
	ErrNoMatches        = errors.New("no plant matches found")
	ErrNoKBEntity       = errors.New("no knowledge base entity found")
)

// KnowledgeBase looks up common names and a description for a species name.
// Implemented by Client and by the LRU-cached decorator.
type KnowledgeBase interface {
	LookupSpecies(ctx context.Context, name string) (*KBDetail, error)
}

// Client talks to the identification service over HTTP. No retries or
// backoff: upstream failures are surfaced to the caller unchanged.
type Client struct {
	baseURL    string
	apiKey     string
	askModel   string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates an identification service client from configuration.
func New(cfg config.PlantIDConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		askModel: cfg.AskModel,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log.With("component", "plantid_client"),
	}
}

// Identify classifies the plant photo at imagePath and returns the ranked
// species suggestions. The file is validated before any network call: a
// missing or unreadable file never reaches the service.
func (c *Client) Identify(ctx context.Context, imagePath string) (*Identification, error) {
	info, err := os.Stat(imagePath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("image file not found: %s", imagePath)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	c.log.InfoContext(ctx, "Submitting image for identification", "path", imagePath, "size_bytes", len(data))

	reqBody := identifyRequest{
		Images:        []string{base64.StdEncoding.EncodeToString(data)},
		SimilarImages: true,
		Datetime:      time.Now().UTC().Format(time.RFC3339),
	}

	endpoint := c.baseURL + "/identification?" + url.Values{
		"details":  {"common_names,taxonomy,description"},
		"language": {"en"},
	}.Encode()

	var resp identifyResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, reqBody, &resp); err != nil {
		return nil, err
	}

	if resp.Result == nil || resp.Result.Classification == nil {
		return nil, ErrNoClassification
	}
	if len(resp.Result.Classification.Suggestions) == 0 {
		return nil, ErrNoMatches
	}

	ident := &Identification{AccessToken: resp.AccessToken}
	for _, s := range resp.Result.Classification.Suggestions {
		ident.Suggestions = append(ident.Suggestions, Suggestion{
			Name:        s.Name,
			Probability: s.Probability,
		})
	}

	c.log.InfoContext(ctx, "Identification completed",
		"suggestions", len(ident.Suggestions),
		"top_name", ident.Suggestions[0].Name,
		"top_probability", ident.Suggestions[0].Probability)

	return ident, nil
}

// LookupSpecies resolves a species name to its knowledge-base entry:
// a name search (limit 1) followed by a detail fetch for the matched entity.
func (c *Client) LookupSpecies(ctx context.Context, name string) (*KBDetail, error) {
	endpoint := c.baseURL + "/kb/plants/name_search?" + url.Values{
		"q":        {name},
		"language": {"en"},
		"limit":    {"1"},
	}.Encode()

	var search searchResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &search); err != nil {
		return nil, err
	}
	if len(search.Entities) == 0 {
		return nil, ErrNoKBEntity
	}

	detailEndpoint := c.baseURL + "/kb/plants/" + url.PathEscape(search.Entities[0].AccessToken) + "?" + url.Values{
		"details":  {"common_names,description"},
		"language": {"en"},
	}.Encode()

	var detail kbDetailResponse
	if err := c.doJSON(ctx, http.MethodGet, detailEndpoint, nil, &detail); err != nil {
		return nil, err
	}

	return &KBDetail{
		CommonNames: detail.CommonNames,
		Description: detail.Description.Value,
	}, nil
}

// AskQuestion sends one question to the conversation endpoint of an existing
// identification and returns the service's answer text.
func (c *Client) AskQuestion(ctx context.Context, identificationToken, question string) (string, error) {
	endpoint := c.baseURL + "/identification/" + url.PathEscape(identificationToken) + "/conversation"

	var resp askResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, askRequest{Question: question, Model: c.askModel}, &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", fmt.Errorf("conversation endpoint returned no messages")
	}

	// The last message is the service's answer.
	return resp.Messages[len(resp.Messages)-1].Content, nil
}

// doJSON performs one request with the API key header, checks the status
// code, and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identification service request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identification service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
