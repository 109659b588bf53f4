// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	log "github.com/sirupsen/logrus"
)

// OpenAIAnalyzer adapts an OpenAI-compatible chat backend to the Analyzer
// capability. It covers OpenAI itself plus any endpoint speaking the same
// wire format (configured via baseURL).
type OpenAIAnalyzer struct {
	id     string
	model  string
	client openai.Client
}

// NewOpenAIAnalyzer creates an analyzer backed by the OpenAI chat API.
// baseURL may be empty for the default endpoint.
func NewOpenAIAnalyzer(id, model, apiKey, baseURL string) (*OpenAIAnalyzer, error) {
	if id == "" {
		return nil, fmt.Errorf("openai analyzer: id is required")
	}
	if model == "" {
		return nil, fmt.Errorf("openai analyzer %s: model is required", id)
	}
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIAnalyzer{
		id:     id,
		model:  model,
		client: openai.NewClient(opts...),
	}, nil
}

func (a *OpenAIAnalyzer) ID() string { return a.id }

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, content string, recentContext []string) (*AnalysisResult, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(analysisPrompt(content, recentContext)),
		},
		MaxCompletionTokens: openai.Int(1024),
	})
	if err != nil {
		return nil, &CallError{ProviderID: a.id, Message: err.Error(), Retryable: true}
	}
	if len(resp.Choices) == 0 {
		return nil, &CallError{ProviderID: a.id, Message: "empty choices in response"}
	}

	result := ParseAnalysisJSON(resp.Choices[0].Message.Content)
	if !result.Usable() {
		log.Debugf("Provider %s returned non-JSON analysis, keeping raw text as insight", a.id)
		result.Insights = []string{resp.Choices[0].Message.Content}
	}
	return result, nil
}
