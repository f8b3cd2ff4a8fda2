package kernel

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
)

// AnthropicOptions configures the Anthropic-backed generator.
type AnthropicOptions struct {
	// APIKey is the Anthropic API key. If empty, ANTHROPIC_API_KEY is used.
	APIKey string
	// UseAWSBedrock routes calls through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// AnthropicGenerator implements Generator over the Anthropic SDK, with an
// optional Bedrock credential path.
type AnthropicGenerator struct {
	client       anthropic.Client
	cfg          Config
	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// NewAnthropicBuilder returns a Builder that materializes Anthropic-backed
// generators for the kernel manager.
func NewAnthropicBuilder(opts AnthropicOptions) Builder {
	return func(cfg Config) (Generator, error) {
		return NewAnthropicGenerator(cfg, opts)
	}
}

// NewAnthropicGenerator creates a generator for the given kernel config.
func NewAnthropicGenerator(cfg Config, opts AnthropicOptions) (*AnthropicGenerator, error) {
	var reqOpts []option.RequestOption

	if opts.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.AWSRegion))
		}
		if opts.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.AWSProfile))
		}

		reqOpts = append(reqOpts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := opts.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}

	return &AnthropicGenerator{
		client: anthropic.NewClient(reqOpts...),
		cfg:    cfg,
	}, nil
}

// Generate executes a single text completion with the kernel's decoding
// parameters.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: int64(g.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(g.cfg.Temperature)
	}
	if g.cfg.TopP > 0 && g.cfg.TopP < 1 {
		params.TopP = anthropic.Float(g.cfg.TopP)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic call: %w (%v)", middleware.ErrDependencyUnavailable, err)
	}

	g.inputTokens.Add(resp.Usage.InputTokens)
	g.outputTokens.Add(resp.Usage.OutputTokens)

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}
	return result.String(), nil
}

// TokensUsed returns the cumulative input and output token counts.
func (g *AnthropicGenerator) TokensUsed() (input, output int64) {
	return g.inputTokens.Load(), g.outputTokens.Load()
}
