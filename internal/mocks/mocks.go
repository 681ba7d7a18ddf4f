// Package mocks provides mock implementations of collaborator interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clipforge/internal/types"
)

// MockTranscriber is a mock implementation of types.Transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) TranscribeToSRT(ctx context.Context, audioPath string, language string) (string, error) {
	args := m.Called(ctx, audioPath, language)
	return args.String(0), args.Error(1)
}

// MockChatCompleter is a mock implementation of types.ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) ChatCompletion(prompt string) (string, error) {
	args := m.Called(prompt)
	return args.String(0), args.Error(1)
}

// MockRenderer is a mock implementation of types.Renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Probe(ctx context.Context, mediaPath string) (float64, error) {
	args := m.Called(ctx, mediaPath)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockRenderer) DetectSilence(ctx context.Context, mediaPath string, noiseDB, minDuration float64) ([]types.SilenceInterval, error) {
	args := m.Called(ctx, mediaPath, noiseDB, minDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SilenceInterval), args.Error(1)
}

func (m *MockRenderer) RemoveSilence(ctx context.Context, mediaPath, outputPath string, segments []types.SoundSegment) error {
	args := m.Called(ctx, mediaPath, outputPath, segments)
	return args.Error(0)
}

func (m *MockRenderer) ExtractAudio(ctx context.Context, mediaPath, outputPath string) error {
	args := m.Called(ctx, mediaPath, outputPath)
	return args.Error(0)
}

func (m *MockRenderer) RenderClip(ctx context.Context, mediaPath, outputPath string, start, end float64) error {
	args := m.Called(ctx, mediaPath, outputPath, start, end)
	return args.Error(0)
}
