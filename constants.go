// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

// A2A protocol path constants used for agent card resolution and JSON-RPC endpoints.
const (
	// AgentCardWellKnownPath is the standard path for retrieving an agent's public AgentCard.
	//
	// Example usage: https://agent.example.com/.well-known/agent.json
	AgentCardWellKnownPath = "/.well-known/agent.json"

	// AgentCardAlternatePath is the newer well-known path served alongside AgentCardWellKnownPath.
	AgentCardAlternatePath = "/.well-known/agent-card.json"

	// DefaultRPCURL is the default URL path for the A2A JSON-RPC endpoint.
	DefaultRPCURL = "/"

	// MetricsPath is the path the Prometheus metrics endpoint is served on when enabled.
	MetricsPath = "/metrics"
)
