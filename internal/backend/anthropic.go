package backend

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// AnthropicBackend generates completions through the Anthropic Messages API,
// either directly or via AWS Bedrock.
type AnthropicBackend struct {
	client anthropic.Client
	model  anthropic.Model
	name   string
}

// AnthropicConfig configures an AnthropicBackend.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. Empty falls back to the
	// ANTHROPIC_API_KEY environment variable.
	APIKey string
	// Model is the model identifier.
	Model string
	// UseBedrock routes requests through AWS Bedrock instead of the API.
	UseBedrock bool
	// AWSRegion is the Bedrock region.
	AWSRegion string
	// AWSProfile is the optional AWS shared-config profile.
	AWSProfile string
}

// NewAnthropic creates a backend talking to the Anthropic API directly.
func NewAnthropic(cfg AnthropicConfig) (*AnthropicBackend, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic backend: no API key configured")
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &AnthropicBackend{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		name:   "anthropic",
	}, nil
}

// NewBedrock creates a backend routing Anthropic models through AWS Bedrock.
func NewBedrock(cfg AnthropicConfig) (*AnthropicBackend, error) {
	if cfg.AWSRegion == "" {
		return nil, fmt.Errorf("bedrock backend: no AWS region configured")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
	if cfg.AWSProfile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &AnthropicBackend{
		client: anthropic.NewClient(bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...)),
		model:  translateModelForBedrock(model),
		name:   "bedrock",
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	s := string(model)
	if strings.Contains(s, "anthropic.") {
		return model
	}
	return anthropic.Model("us.anthropic." + s + "-v1:0")
}

// Name identifies the backend.
func (b *AnthropicBackend) Name() string { return b.name }

// Generate sends one user message and concatenates the text blocks of the
// response.
func (b *AnthropicBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", b.name, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}
	return sb.String(), nil
}
