// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/go-a2a/a2a-agent"
)

// CardResolver fetches agent cards from an agent base URL.
type CardResolver struct {
	invoke        Invoker
	baseURL       string
	agentCardPath string
}

// NewCardResolver creates a CardResolver for the agent at baseURL. A nil httpClient means
// [http.DefaultClient].
func NewCardResolver(baseURL string, httpClient *http.Client) *CardResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CardResolver{
		invoke: func(_ context.Context, req *http.Request) (*http.Response, error) {
			return httpClient.Do(req)
		},
		baseURL:       strings.TrimRight(baseURL, "/"),
		agentCardPath: strings.TrimLeft(a2a.AgentCardWellKnownPath, "/"),
	}
}

// GetAgentCard fetches the agent card at relativeCardPath, relative to the base URL.
// An empty relativeCardPath fetches the well-known public card.
//
// Every failure, whether network, HTTP status, decoding or validation, wraps
// a2a.ErrCardUnavailable.
func (r *CardResolver) GetAgentCard(ctx context.Context, relativeCardPath string) (*a2a.AgentCard, error) {
	if relativeCardPath == "" {
		relativeCardPath = r.agentCardPath
	} else {
		relativeCardPath = strings.TrimLeft(relativeCardPath, "/")
	}
	targetURL := r.baseURL + "/" + relativeCardPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", a2a.ErrCardUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", a2a.ErrCardUnavailable, targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetch %s: %w", a2a.ErrCardUnavailable, targetURL, failedResponse(resp))
	}

	var card a2a.AgentCard
	if err := json.UnmarshalDecode(jsontext.NewDecoder(resp.Body), &card); err != nil {
		return nil, fmt.Errorf("%w: decode agent card: %w", a2a.ErrCardUnavailable, err)
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", a2a.ErrCardUnavailable, err)
	}
	return &card, nil
}
