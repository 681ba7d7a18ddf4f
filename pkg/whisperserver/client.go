// Package whisperserver talks to a self-hosted whisper.cpp style HTTP server
// (POST /inference with a multipart file, SRT response).
package whisperserver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	http *resty.Client
}

func NewClient(baseUrl string) *Client {
	c := resty.New().
		SetBaseURL(baseUrl).
		SetTimeout(30 * time.Minute).
		SetRetryCount(2).
		SetRetryWaitTime(5 * time.Second)
	return &Client{http: c}
}

// TranscribeToSRT uploads the audio file and returns the SRT transcript body.
func (c *Client) TranscribeToSRT(ctx context.Context, audioPath string, language string) (string, error) {
	req := c.http.R().
		SetContext(ctx).
		SetFile("file", audioPath).
		SetFormData(map[string]string{
			"response_format": "srt",
		})
	if language != "" {
		req.SetFormData(map[string]string{"language": language})
	}

	resp, err := req.Post("/inference")
	if err != nil {
		return "", fmt.Errorf("whisper server request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("whisper server returned %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}
