// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/localgpt/internal/model"
	"github.com/jeranaias/localgpt/internal/session"
)

// Generator produces a reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result reports what one send appended.
type Result struct {
	// ConversationID is the conversation that was active when the send began.
	ConversationID string

	User  model.Message
	Reply model.Message

	// Err is the generation failure rendered into Reply, if any.
	Err error
}

// Failed reports whether the reply carries an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Controller sends user messages. Only one send may be in flight per
// process; there is no queue and no cancellation.
type Controller struct {
	store *session.Store
	gen   Generator
	busy  atomic.Bool
}

// NewController creates a controller over store and gen.
func NewController(store *session.Store, gen Generator) *Controller {
	return &Controller{store: store, gen: gen}
}

// Busy reports whether a reply is being generated.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// SendUserMessage appends text to the active conversation, generates a
// reply and appends it to the same conversation, even if the active
// conversation changes meanwhile. Generation failures become an assistant
// message and are reported in Result.Err; the returned error is only
// ErrEmptyMessage or ErrBusy.
func (c *Controller) SendUserMessage(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyMessage
	}
	if !c.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer c.busy.Store(false)

	convID := c.store.ActiveID()
	res := Result{
		ConversationID: convID,
		User:           model.NewUserMessage(text),
	}
	c.store.AppendMessage(convID, res.User)

	reply, err := c.gen.Generate(ctx, text)
	if err != nil {
		log.Warn().Err(err).Str("conversation", convID).Msg("generation failed")
		res.Err = err
		reply = DescribeError(err)
	}
	res.Reply = model.NewAssistantMessage(reply)

	if !c.store.AppendMessage(convID, res.Reply) {
		log.Warn().Str("conversation", convID).Msg("conversation removed before reply arrived")
	}
	return res, nil
}
