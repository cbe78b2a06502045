// Package reasongen asks an OpenAI chat model for the main migration drivers
// of districts that have no curated list.
package reasongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lox/migrationforecast/internal/metrics"
)

const maxReasons = 3

const systemPrompt = `You are a demographer covering the Indian state of Uttarakhand.
Answer with a JSON array of exactly three short phrases (at most six words each)
naming the main drivers of migration for the district you are given. No prose.`

// Generator implements forecast.ReasonGenerator with the OpenAI chat API.
type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewGenerator reads OPENAI_API_KEY from the environment.
func NewGenerator(opts ...option.RequestOption) (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	return NewGeneratorWithKey(apiKey, opts...), nil
}

func NewGeneratorWithKey(apiKey string, opts ...option.RequestOption) *Generator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Generator{
		client: openai.NewClient(opts...),
		model:  openai.ChatModelGPT4oMini,
	}
}

func (g *Generator) GenerateReasons(ctx context.Context, district string) ([]string, error) {
	log.Printf("reasongen: generating drivers for %s", district)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("District: " + district),
		},
	})
	if err != nil {
		metrics.ReasonsGenerated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.ReasonsGenerated.WithLabelValues("empty").Inc()
		return nil, errors.New("no choices returned")
	}

	reasons := parseReasons(resp.Choices[0].Message.Content)
	if len(reasons) == 0 {
		metrics.ReasonsGenerated.WithLabelValues("empty").Inc()
		return nil, errors.New("no reasons in completion")
	}
	metrics.ReasonsGenerated.WithLabelValues("ok").Inc()
	return reasons, nil
}

// parseReasons accepts a JSON array, optionally inside a code fence, or one
// reason per line with list markers.
func parseReasons(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var items []string
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		items = strings.Split(content, "\n")
	}

	out := make([]string, 0, maxReasons)
	seen := map[string]bool{}
	for _, item := range items {
		item = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(item), "-*•0123456789.) "))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		if len(out) == maxReasons {
			break
		}
	}
	return out
}
