package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultBaseURL is the production classification API endpoint.
const DefaultBaseURL = "https://api.cochl.ai/v1"

// analysisTimeout bounds the wait on the provider. The task store imposes no
// timeout of its own.
const analysisTimeout = 60 * time.Second

// Client implements Classifier against the cloud classification API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a classification API client. baseURL may be empty to use
// the production endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: analysisTimeout,
		},
	}
}

type analyzeResponse struct {
	Detections []Detection `json:"detections"`
}

// AnalyzeFile uploads the file and returns the provider's detections in the
// order the provider reported them. Detections missing an event ID get a
// generated one so every downstream result row is addressable.
func (c *Client) AnalyzeFile(ctx context.Context, data []byte, fileName string) ([]Detection, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("classify: create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("classify: write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("classify: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &buf)
	if err != nil {
		return nil, fmt.Errorf("classify: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("classify: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify: api error %d: %s", resp.StatusCode, string(respBody))
	}

	var out analyzeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("classify: unmarshal response: %w", err)
	}

	detections := out.Detections
	for i := range detections {
		if detections[i].EventID == "" {
			detections[i].EventID = "evt_" + ulid.Make().String()
		}
	}
	return detections, nil
}
