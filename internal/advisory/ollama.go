package advisory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaGenerator talks to a local Ollama server. Vision models (llava and
// friends) accept the photo through GenerateRequest.Images.
type OllamaGenerator struct {
	api   *api.Client
	model string
}

func NewOllama(baseURL, model string, httpClient *http.Client) (*OllamaGenerator, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaGenerator{api: api.NewClient(u, httpClient), model: model}, nil
}

func (o *OllamaGenerator) Name() string { return "ollama" }

func (o *OllamaGenerator) Generate(ctx context.Context, system, prompt string, images []Image) (string, error) {
	stream := false
	req := &api.GenerateRequest{Model: o.model, Prompt: prompt, System: system, Stream: &stream}
	for _, img := range images {
		req.Images = append(req.Images, api.ImageData(img.Data))
	}
	var sb strings.Builder
	err := o.api.Generate(ctx, req, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
