package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/trip-to-travel/config"
)

// AIClient talks to the scoring, captioning and drafting endpoints of the AI service.
// Any transport error, non-2xx status or undecodable body is returned as an error.
type AIClient interface {
	ScoreImportance(ctx context.Context, images []ImageRef, purposes []string) ([]ImportanceScore, error)
	Caption(ctx context.Context, images []ImageRef) ([]ImageCaption, error)
	Draft(ctx context.Context, items []DraftItem) ([]ImageDraft, error)
}

// ImageRef identifies one photo and a URL the AI service can fetch it from
type ImageRef struct {
	ImageID  uint   `json:"image_id"`
	ImageURL string `json:"image_url"`
}

type ImportanceScore struct {
	ImageID    uint    `json:"image_id"`
	Importance float64 `json:"importance"`
}

type ImageCaption struct {
	ImageID uint   `json:"image_id"`
	Caption string `json:"caption"`
}

// DraftItem carries every signal gathered for one photo
type DraftItem struct {
	ImageID    uint     `json:"image_id"`
	ImageURL   string   `json:"image_url"`
	Audience   string   `json:"who"`
	Style      *string  `json:"style"`
	How        *string  `json:"how"`
	Emotions   []string `json:"emotions"`
	CapturedAt *string  `json:"captured_at"`
	Place      *string  `json:"place"`
	Caption    *string  `json:"caption"`
}

type ImageDraft struct {
	ImageID uint   `json:"image_id"`
	Draft   string `json:"draft"`
}

type scoreRequest struct {
	ImageList []ImageRef `json:"image_list"`
	Purposes  []string   `json:"purposes"`
}

type captionRequest struct {
	ImageList []ImageRef `json:"image_list"`
}

type draftRequest struct {
	ImageList []DraftItem `json:"image_list"`
}

// HTTPAIClient implements AIClient over JSON POST requests
type HTTPAIClient struct {
	config *config.AIConfig
	client *http.Client
}

// NewHTTPAIClient creates a new AI client instance
func NewHTTPAIClient(cfg *config.AIConfig) AIClient {
	return &HTTPAIClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *HTTPAIClient) ScoreImportance(ctx context.Context, images []ImageRef, purposes []string) ([]ImportanceScore, error) {
	if purposes == nil {
		purposes = []string{}
	}
	var out []ImportanceScore
	err := c.post(ctx, "score", c.config.ScorePath, scoreRequest{ImageList: images, Purposes: purposes}, &out)
	return out, err
}

func (c *HTTPAIClient) Caption(ctx context.Context, images []ImageRef) ([]ImageCaption, error) {
	var out []ImageCaption
	err := c.post(ctx, "caption", c.config.CaptionPath, captionRequest{ImageList: images}, &out)
	return out, err
}

func (c *HTTPAIClient) Draft(ctx context.Context, items []DraftItem) ([]ImageDraft, error) {
	var out []ImageDraft
	err := c.post(ctx, "draft", c.config.DraftPath, draftRequest{ImageList: items}, &out)
	return out, err
}

// post sends body and decodes a JSON list into out. A list wrapped as {"results": [...]} is accepted too.
func (c *HTTPAIClient) post(ctx context.Context, operation, path string, body any, out any) (err error) {
	start := time.Now()
	defer func() { observeCall(collaboratorAI, operation, start, err) }()

	requestBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s request failed with status %d: %s", operation, resp.StatusCode, truncate(string(raw), 256))
	}
	return decodeResultList(raw, out)
}

func decodeResultList(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return fmt.Errorf("failed to decode AI response: %w", err)
		}
		if len(wrapped.Results) == 0 {
			return errors.New("failed to decode AI response: missing results")
		}
		trimmed = wrapped.Results
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to decode AI response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MockAIClient implements AIClient for testing and local runs.
// Images missing from a map are left out of the response.
type MockAIClient struct {
	mu sync.Mutex

	Scores   map[uint]float64
	Captions map[uint]string
	Drafts   map[uint]string

	ScoreErr   error
	CaptionErr error
	DraftErr   error

	// DefaultResults makes the mock answer for every image not in the maps
	DefaultResults bool

	ScoreCalls   [][]ImageRef
	CaptionCalls [][]ImageRef
	DraftCalls   [][]DraftItem
}

// NewMockAIClient creates a mock that answers every request with generated results
func NewMockAIClient() *MockAIClient {
	return &MockAIClient{
		Scores:         make(map[uint]float64),
		Captions:       make(map[uint]string),
		Drafts:         make(map[uint]string),
		DefaultResults: true,
	}
}

func (m *MockAIClient) ScoreImportance(ctx context.Context, images []ImageRef, purposes []string) ([]ImportanceScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScoreCalls = append(m.ScoreCalls, images)
	if m.ScoreErr != nil {
		return nil, m.ScoreErr
	}
	out := make([]ImportanceScore, 0, len(images))
	for _, img := range images {
		if score, ok := m.Scores[img.ImageID]; ok {
			out = append(out, ImportanceScore{ImageID: img.ImageID, Importance: score})
		} else if m.DefaultResults {
			out = append(out, ImportanceScore{ImageID: img.ImageID, Importance: 1 / float64(img.ImageID+1)})
		}
	}
	return out, nil
}

func (m *MockAIClient) Caption(ctx context.Context, images []ImageRef) ([]ImageCaption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CaptionCalls = append(m.CaptionCalls, images)
	if m.CaptionErr != nil {
		return nil, m.CaptionErr
	}
	out := make([]ImageCaption, 0, len(images))
	for _, img := range images {
		if caption, ok := m.Captions[img.ImageID]; ok {
			out = append(out, ImageCaption{ImageID: img.ImageID, Caption: caption})
		} else if m.DefaultResults {
			out = append(out, ImageCaption{ImageID: img.ImageID, Caption: fmt.Sprintf("Photo %d", img.ImageID)})
		}
	}
	return out, nil
}

func (m *MockAIClient) Draft(ctx context.Context, items []DraftItem) ([]ImageDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DraftCalls = append(m.DraftCalls, items)
	if m.DraftErr != nil {
		return nil, m.DraftErr
	}
	out := make([]ImageDraft, 0, len(items))
	for _, item := range items {
		if draft, ok := m.Drafts[item.ImageID]; ok {
			out = append(out, ImageDraft{ImageID: item.ImageID, Draft: draft})
		} else if m.DefaultResults {
			out = append(out, ImageDraft{ImageID: item.ImageID, Draft: fmt.Sprintf("A day with %s.", item.Audience)})
		}
	}
	return out, nil
}
