// Package chat coordinates one question at a time between the user, the
// analytics service and the conversation log.
package chat

import (
	"context"
	"log"
	"strings"
	"sync"

	"northwind-chat/internal/store"
	"northwind-chat/internal/viz"
)

// DefaultApology is shown for any failed turn; error details only go to the log.
const DefaultApology = "Sorry, I encountered an error processing your request. Please try again."

// Service sends one question and returns the raw reply body.
type Service interface {
	Ask(ctx context.Context, message string) ([]byte, error)
}

// Conversation is the part of the log the coordinator mutates.
type Conversation interface {
	Append(store.Message) store.Message
	Awaiting() bool
	SetAwaiting(bool)
	Clear()
}

type Option func(*Coordinator)

func WithApology(text string) Option {
	return func(c *Coordinator) {
		if strings.TrimSpace(text) != "" {
			c.apology = text
		}
	}
}

// Coordinator is the only writer of the conversation. It moves
// Idle -> Awaiting -> Idle and never has more than one call outstanding.
type Coordinator struct {
	svc     Service
	conv    Conversation
	apology string

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewCoordinator(svc Service, conv Conversation, opts ...Option) *Coordinator {
	c := &Coordinator{svc: svc, conv: conv, apology: DefaultApology}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit records the question and starts the remote call. It returns false,
// doing nothing, for blank input or while a call is outstanding; callers clear
// their input buffer only when it returns true.
func (c *Coordinator) Submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conv.Awaiting() {
		log.Printf("[chat] ignoring submit while awaiting a reply")
		return false
	}
	c.conv.Append(store.Message{Origin: store.OriginUser, Text: text})
	c.conv.SetAwaiting(true)
	c.wg.Add(1)
	go c.resolve(text)
	return true
}

// Wait blocks until the outstanding call, if any, has been recorded.
func (c *Coordinator) Wait() { c.wg.Wait() }

// Clear empties the conversation. It refuses while a call is outstanding.
func (c *Coordinator) Clear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conv.Awaiting() {
		return false
	}
	c.conv.Clear()
	return true
}

func (c *Coordinator) resolve(text string) {
	defer c.wg.Done()
	defer c.conv.SetAwaiting(false)
	c.conv.Append(c.reply(text))
}

func (c *Coordinator) reply(text string) (msg store.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[chat] reply panic: %v", r)
			msg = c.failure()
		}
	}()
	body, err := c.svc.Ask(context.Background(), text)
	if err != nil {
		log.Printf("[chat] request failed: %v", err)
		return c.failure()
	}
	resp, err := viz.ParseResponse(body)
	if err != nil {
		log.Printf("[chat] unusable reply: %v", err)
		return c.failure()
	}
	d := viz.Normalize(resp)
	if d != nil && d.Unrenderable {
		log.Printf("[chat] visualization %q could not be rendered; showing text only", resp.VisualizationType())
	}
	return store.Message{Origin: store.OriginAssistant, Text: resp.Text(), Payload: d}
}

func (c *Coordinator) failure() store.Message {
	return store.Message{Origin: store.OriginAssistant, Text: c.apology, Failed: true}
}
