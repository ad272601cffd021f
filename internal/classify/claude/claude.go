package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/wastebuster/wastebuster/internal/classify"
)

// maxTokens leaves room for a few dozen "name | category" lines.
const maxTokens = 1024

type Classifier struct {
	client *anthropic.Client
	model  string
}

type Option func(*[]anthropic.ClientOption)

// WithBaseURL points the client at another Messages API host, such as a
// test server.
func WithBaseURL(url string) Option {
	return func(opts *[]anthropic.ClientOption) {
		*opts = append(*opts, anthropic.WithBaseURL(url))
	}
}

func New(apiKey, model string, opts ...Option) *Classifier {
	var clientOpts []anthropic.ClientOption
	for _, opt := range opts {
		opt(&clientOpts)
	}
	return &Classifier{
		client: anthropic.NewClient(apiKey, clientOpts...),
		model:  model,
	}
}

func (c *Classifier) Classify(ctx context.Context, r io.Reader, mimeType string) (*classify.Result, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.MessageContentSource{
					Type:      anthropic.MessagesContentSourceTypeBase64,
					MediaType: classify.NormaliseMIME(mimeType),
					Data:      base64.StdEncoding.EncodeToString(imageData),
				}),
				anthropic.NewTextMessageContent(classify.Prompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText {
			text.WriteString(block.GetText())
		}
	}

	raw := text.String()
	return &classify.Result{
		Items:       classify.ParseResponse(raw),
		RawResponse: raw,
	}, nil
}
