package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_MapsUsageAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "test-model-001",
			"choices": [{"message": {"role": "assistant", "content": "- Ratatouille\n- Cassoulet"}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 10, "total_tokens": 52}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "test-model", 5*time.Second)
	res, err := c.Generate(context.Background(), "propose deux plats")
	require.NoError(t, err)

	assert.Equal(t, "- Ratatouille\n- Cassoulet", res.OutputText)
	assert.Equal(t, "test-model-001", res.Model)
	assert.Equal(t, Usage{InputTokens: 42, OutputTokens: 10, TotalTokens: 52}, res.Usage)
}

func TestGenerate_SurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "test-model", 5*time.Second)
	_, err := c.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerate_HonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, "", "test-model", 30*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "hello")
	assert.Error(t, err)
}

func TestExtractProposalTitles(t *testing.T) {
	text := "Voici quelques idees pour la semaine :\n" +
		"- Ratatouille\n" +
		"* Cassoulet maison\n" +
		"1. Blanquette de veau\n" +
		"2) Soupe au pistou\n" +
		"\n" +
		"Bon appetit !"

	titles := ExtractProposalTitles(text)
	assert.Equal(t, []string{"Ratatouille", "Cassoulet maison", "Blanquette de veau", "Soupe au pistou"}, titles)
}

func TestExtractProposalTitles_EmptyInput(t *testing.T) {
	assert.Empty(t, ExtractProposalTitles(""))
	assert.Empty(t, ExtractProposalTitles("no bullets here"))
}
