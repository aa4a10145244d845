// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"fmt"
	"maps"
	"sync"
)

// User identifies the caller of a request.
type User interface {
	// IsAuthenticated returns true if the user is authenticated, false otherwise.
	IsAuthenticated() bool

	// UserName returns the username of the user, or an empty string when unauthenticated.
	UserName() string
}

// UnauthenticatedUser is the User of requests that carry no identity.
type UnauthenticatedUser struct{}

// IsAuthenticated always returns false for unauthenticated users.
func (UnauthenticatedUser) IsAuthenticated() bool { return false }

// UserName always returns an empty string for unauthenticated users.
func (UnauthenticatedUser) UserName() string { return "" }

// Well-known ServerCallContext state keys set by the HTTP transport.
const (
	StateRemoteAddr = "remote_addr"
	StateUserAgent  = "user_agent"
	StateMethod     = "method"
)

// ServerCallContext describes the transport call a request arrived on: the calling user and
// transport-specific state. It is safe for concurrent use.
type ServerCallContext struct {
	mu    sync.RWMutex
	user  User
	state map[string]any
}

// NewServerCallContext creates a new ServerCallContext for user with a copy of state.
// A nil user is replaced by UnauthenticatedUser.
func NewServerCallContext(user User, state map[string]any) *ServerCallContext {
	if user == nil {
		user = UnauthenticatedUser{}
	}
	scc := &ServerCallContext{
		user:  user,
		state: make(map[string]any, len(state)),
	}
	maps.Copy(scc.state, state)
	return scc
}

// User returns the user associated with this call context.
func (scc *ServerCallContext) User() User {
	scc.mu.RLock()
	defer scc.mu.RUnlock()
	return scc.user
}

// State returns a copy of the current state map.
func (scc *ServerCallContext) State() map[string]any {
	scc.mu.RLock()
	defer scc.mu.RUnlock()
	return maps.Clone(scc.state)
}

// SetState sets a value in the context state.
func (scc *ServerCallContext) SetState(key string, value any) {
	scc.mu.Lock()
	defer scc.mu.Unlock()
	scc.state[key] = value
}

// GetState retrieves a value from the context state.
func (scc *ServerCallContext) GetState(key string) (any, bool) {
	scc.mu.RLock()
	defer scc.mu.RUnlock()
	value, ok := scc.state[key]
	return value, ok
}

// String returns a string representation of the ServerCallContext for debugging.
func (scc *ServerCallContext) String() string {
	scc.mu.RLock()
	defer scc.mu.RUnlock()

	return fmt.Sprintf("ServerCallContext{user: %q, authenticated: %t, state_keys: %d}",
		scc.user.UserName(), scc.user.IsAuthenticated(), len(scc.state))
}
