package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion(t *testing.T) {
	var gotModel string
	var gotContent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		require.Len(t, req.Messages, 1)
		gotContent = req.Messages[0].Content

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"hook\":{}}"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "gpt-4o", nil)
	reply, err := client.ChatCompletion("find the moments")
	require.NoError(t, err)

	assert.Equal(t, `{"hook":{}}`, reply)
	assert.Equal(t, "gpt-4o", gotModel)
	assert.Equal(t, "find the moments", gotContent)
}

func TestChatCompletionNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "gpt-4o", nil)
	_, err := client.ChatCompletion("anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatCompletionThroughProxy(t *testing.T) {
	// A plain-HTTP proxy receives the absolute-form request, so the proxy
	// server can observe the intended upstream host.
	var proxiedHost string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxiedHost = r.Host
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer proxy.Close()

	proxyUrl, err := url.Parse(proxy.URL)
	require.NoError(t, err)

	client := NewClient("http://llm.internal/v1", "sk-test", "gpt-4o", proxyUrl)
	reply, err := client.ChatCompletion("anything")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, "llm.internal", proxiedHost)
}
