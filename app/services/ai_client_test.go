package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/trip-to-travel/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAIClient(t *testing.T, handler http.HandlerFunc) AIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPAIClient(&config.AIConfig{
		BaseURL:     server.URL + "/",
		APIKey:      "secret",
		ScorePath:   "/score",
		CaptionPath: "caption",
		DraftPath:   "/draft",
		Timeout:     5 * time.Second,
	})
}

func TestHTTPAIClient_ScoreImportance(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/score", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		var req scoreRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.ImageList, 2)
		assert.Equal(t, []string{"leisure"}, req.Purposes)

		_, _ = w.Write([]byte(`[{"image_id":1,"importance":0.3},{"image_id":2,"importance":0.8}]`))
	})

	scores, err := client.ScoreImportance(context.Background(), []ImageRef{
		{ImageID: 1, ImageURL: "memory://b/1.jpg"},
		{ImageID: 2, ImageURL: "memory://b/2.jpg"},
	}, []string{"leisure"})
	require.NoError(t, err)
	assert.Equal(t, []ImportanceScore{{ImageID: 1, Importance: 0.3}, {ImageID: 2, Importance: 0.8}}, scores)
}

func TestHTTPAIClient_ScoreImportanceSendsEmptyPurposes(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.JSONEq(t, `[]`, string(raw["purposes"]))
		_, _ = w.Write([]byte(`[]`))
	})

	scores, err := client.ScoreImportance(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestHTTPAIClient_CaptionWrappedResults(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/caption", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[{"image_id":7,"caption":"A quiet harbour"}]}`))
	})

	captions, err := client.Caption(context.Background(), []ImageRef{{ImageID: 7}})
	require.NoError(t, err)
	assert.Equal(t, []ImageCaption{{ImageID: 7, Caption: "A quiet harbour"}}, captions)
}

func TestHTTPAIClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "object without results", status: http.StatusOK, body: `{"items":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Draft(context.Background(), []DraftItem{{ImageID: 1}})
			assert.Error(t, err)
		})
	}
}

func TestHTTPAIClient_DraftPayload(t *testing.T) {
	client := newTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ImageList []map[string]any `json:"image_list"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !assert.Len(t, req.ImageList, 1) {
			return
		}
		item := req.ImageList[0]
		assert.Equal(t, "friends", item["who"])
		assert.Nil(t, item["place"])
		assert.Equal(t, []any{"joy"}, item["emotions"])
		_, _ = w.Write([]byte(`[{"image_id":3,"draft":"We laughed all day."}]`))
	})

	drafts, err := client.Draft(context.Background(), []DraftItem{{ImageID: 3, Audience: "friends", Emotions: []string{"joy"}}})
	require.NoError(t, err)
	assert.Equal(t, []ImageDraft{{ImageID: 3, Draft: "We laughed all day."}}, drafts)
}

func TestMockAIClient(t *testing.T) {
	m := NewMockAIClient()
	m.Scores[2] = 0.9
	images := []ImageRef{{ImageID: 1}, {ImageID: 2}}

	scores, err := m.ScoreImportance(context.Background(), images, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, scores[0].Importance)
	assert.Equal(t, 0.9, scores[1].Importance)

	m.DefaultResults = false
	captions, err := m.Caption(context.Background(), images)
	require.NoError(t, err)
	assert.Empty(t, captions)
	assert.Len(t, m.CaptionCalls, 1)
}
