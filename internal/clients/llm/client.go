// Package llm scores snippet text with a chat model. It plugs into the
// stance scorer chain as an optional backend; the keyword scorer stays the
// fallback whenever the model is unavailable or returns something unusable.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	// BackendName is the scorer chain name of the chat model backend.
	BackendName = "openai"
	// DefaultModel is used when no model name is configured.
	DefaultModel = "gpt-4o-mini"
)

// Generator is the part of an eino chat model the scorer needs.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config selects the OpenAI-compatible endpoint.
type Config struct {
	BaseURL string // Empty means the OpenAI default
	APIKey  string
	Model   string
}

// NewChatModel creates an OpenAI-compatible chat model.
func NewChatModel(ctx context.Context, cfg Config) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is required")
	}
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return cm, nil
}
