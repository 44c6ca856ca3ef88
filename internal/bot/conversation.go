// Package bot – conversation state table
//
// This file implements the keyed state machine behind the dialogs: one
// explicit ConversationState plus optional context per user identity.
// Entering a new state always discards the previous context, so a stale
// half-finished dialog can never leak data into the next one.
package bot

import (
	"sync"

	"github.com/dmoran/go-movie-channel/internal/domain"
)

// conversation is one user's current dialog position.
type conversation struct {
	state domain.ConversationState
	ctx   domain.ConversationContext
}

// Conversations is the per-user dialog state table. Safe for concurrent use.
type Conversations struct {
	mu     sync.Mutex
	byUser map[int64]conversation
}

// NewConversations constructs an empty state table; every user starts Idle.
func NewConversations() *Conversations {
	return &Conversations{byUser: map[int64]conversation{}}
}

// Get returns the user's current state and its attached context.
func (c *Conversations) Get(userID int64) (domain.ConversationState, domain.ConversationContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.byUser[userID] // zero value is StateIdle with empty context
	return e.state, e.ctx
}

// Set transitions the user into state, replacing any previous context with
// stateCtx.
func (c *Conversations) Set(userID int64, state domain.ConversationState, stateCtx domain.ConversationContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state == domain.StateIdle {
		delete(c.byUser, userID)
		return
	}
	c.byUser[userID] = conversation{state: state, ctx: stateCtx}
}

// Clear returns the user to Idle, discarding any context.
func (c *Conversations) Clear(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byUser, userID)
}
