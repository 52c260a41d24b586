package image

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"atlas/agents/internal/agent"
	"atlas/agents/internal/responses"
)

// Fixed image tool settings.
const (
	ToolQuality = "high"
	ToolModel   = "gpt-image-1"
	ToolSize    = "1536x1024"
)

const StyleGuidelines = `
You are a design-forward image generator. Follow these global style rules:
Create hyper-realistic images with a focus on detail and composition.
`

// ErrNoImage means the capability ran but produced no image payload.
var ErrNoImage = errors.New("image generation tool produced no output")

// Generator turns a plain-language request into a base64 encoded PNG.
type Generator interface {
	Generate(ctx context.Context, input string) (string, error)
}

func BuildAgent(controllerModel string) *agent.Agent {
	return &agent.Agent{
		Name:         "Image generator",
		Instructions: StyleGuidelines,
		Model:        controllerModel,
		Tools:        []responses.Tool{responses.ImageGenerationTool(ToolQuality, ToolModel, ToolSize)},
	}
}

// AgentGenerator lets a controller model craft the prompt and call the
// hosted image generation tool.
type AgentGenerator struct {
	runner *agent.Runner
	agent  *agent.Agent
}

func NewAgentGenerator(runner *agent.Runner, controllerModel string) *AgentGenerator {
	return &AgentGenerator{runner: runner, agent: BuildAgent(controllerModel)}
}

func (g *AgentGenerator) Generate(ctx context.Context, input string) (string, error) {
	res, err := g.runner.Run(ctx, g.agent, input, agent.RunConfig{WorkflowName: "Image generation"})
	if err != nil {
		return "", err
	}
	b64, ok := ExtractImage(res.NewItems)
	if !ok {
		return "", ErrNoImage
	}
	return b64, nil
}

// ExtractImage returns the result of the first image generation call in
// items that carries one.
func ExtractImage(items []responses.OutputItem) (string, bool) {
	for _, it := range items {
		if call := it.ImageGenerationCall; call != nil && call.Result != "" {
			return call.Result, true
		}
	}
	return "", false
}

// DirectGenerator skips the controller model and calls the images endpoint
// with the style guidelines prepended to the request.
type DirectGenerator struct {
	client     *openai.Client
	configured bool
}

func NewDirectGenerator(apiKey, baseURL string) *DirectGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &DirectGenerator{client: openai.NewClientWithConfig(cfg), configured: apiKey != ""}
}

func (g *DirectGenerator) Generate(ctx context.Context, input string) (string, error) {
	if !g.configured {
		return "", responses.ErrMissingAPIKey
	}
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:  strings.TrimSpace(StyleGuidelines) + "\n\n" + input,
		Model:   ToolModel,
		Quality: ToolQuality,
		Size:    ToolSize,
		N:       1,
	})
	if err != nil {
		return "", err
	}
	for _, d := range resp.Data {
		if d.B64JSON != "" {
			return d.B64JSON, nil
		}
	}
	return "", ErrNoImage
}
