// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	log "github.com/sirupsen/logrus"
)

// AnthropicAnalyzer adapts the Anthropic Messages API to the Analyzer
// capability.
type AnthropicAnalyzer struct {
	id     string
	model  string
	client anthropic.Client
}

func NewAnthropicAnalyzer(id, model, apiKey string) (*AnthropicAnalyzer, error) {
	if id == "" {
		return nil, fmt.Errorf("anthropic analyzer: id is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic analyzer %s: model is required", id)
	}
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &AnthropicAnalyzer{
		id:     id,
		model:  model,
		client: anthropic.NewClient(opts...),
	}, nil
}

func (a *AnthropicAnalyzer) ID() string { return a.id }

func (a *AnthropicAnalyzer) Analyze(ctx context.Context, content string, recentContext []string) (*AnalysisResult, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(analysisPrompt(content, recentContext))),
		},
	})
	if err != nil {
		return nil, &CallError{ProviderID: a.id, Message: err.Error(), Retryable: true}
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, &CallError{ProviderID: a.id, Message: "no text content in response"}
	}

	result := ParseAnalysisJSON(text)
	if !result.Usable() {
		log.Debugf("Provider %s returned non-JSON analysis, keeping raw text as insight", a.id)
		result.Insights = []string{text}
	}
	return result, nil
}
