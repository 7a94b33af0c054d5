// Package widget holds the client-side chat state: an ordered, append-only message
// list and the single in-flight request guard.
package widget

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyInput is returned when the submitted text is blank.
	ErrEmptyInput = errors.New("input is empty")
	// ErrBusy is returned while a previous submission is still awaiting its reply.
	ErrBusy = errors.New("a reply is still pending")
	// ErrEmptyAttachment is returned when neither a name nor data was given.
	ErrEmptyAttachment = errors.New("attachment is empty")
)

// Texts the widget produces locally.
const (
	OpeningLine  = "Hi there! 👋 I'm your AI assistant for the Global Cleantech Directory. I can help you discover sustainable technologies, find the right cleantech solutions, and connect with innovative companies."
	FallbackText = "I'm sorry, I'm having trouble connecting to the server. Please try again later."
)

// Role tags a message variant.
type Role string

const (
	RoleWelcome Role = "welcome"
	RoleUser    Role = "user"
	RoleBot     Role = "bot"
)

// Attachment carries either an inline image or just the name of a non-image file.
type Attachment struct {
	ImageDataURI string `json:"imageDataUri,omitempty"`
	FileName     string `json:"fileName,omitempty"`
}

// Message is one entry of the widget's list. Messages are never mutated once appended.
type Message struct {
	ID         int         `json:"id"`
	Role       Role        `json:"role"`
	Text       string      `json:"text,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// State is the request lifecycle of a widget.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Category is a quick-pick topic shown under the welcome entry.
type Category struct {
	Icon  string
	Label string
}

// Categories offered by the welcome entry.
var Categories = []Category{
	{Icon: "🔆", Label: "Solar Solutions"},
	{Icon: "💧", Label: "Water Tech"},
	{Icon: "🏗️", Label: "Green Infrastructure"},
	{Icon: "📋", Label: "List Company"},
}

// Sender delivers one message to a responder and returns its reply.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Widget is the state of one chat widget instance. It is safe for concurrent use.
type Widget struct {
	mu       sync.Mutex
	sender   Sender
	messages []Message
	nextID   int
	state    State
	now      func() time.Time
}

// Option customises a Widget.
type Option func(*Widget)

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Widget) {
		w.now = now
	}
}

// New creates a widget seeded with the welcome entry and the opening bot line.
func New(sender Sender, opts ...Option) *Widget {
	w := &Widget{
		sender: sender,
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.appendLocked(Message{Role: RoleWelcome})
	w.appendLocked(Message{Role: RoleBot, Text: OpeningLine})
	return w
}

// Pending tracks a submission until its bot reply is appended.
type Pending struct {
	user  Message
	done  chan struct{}
	reply Message
}

// User returns the optimistically appended user message.
func (p *Pending) User() Message {
	return p.user
}

// Done is closed once the reply has been appended.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the reply is appended and returns it.
func (p *Pending) Wait() Message {
	<-p.done
	return p.reply
}

// Submit appends the user message and issues exactly one call to the sender in the
// background. Blank input and submissions while a reply is pending leave the widget
// untouched.
func (w *Widget) Submit(ctx context.Context, input string) (*Pending, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	w.mu.Lock()
	if w.state == StateAwaitingResponse {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	user := w.appendLocked(Message{Role: RoleUser, Text: input})
	w.state = StateAwaitingResponse
	w.mu.Unlock()

	p := &Pending{user: user, done: make(chan struct{})}
	go w.resolve(ctx, p, input)
	return p, nil
}

func (w *Widget) resolve(ctx context.Context, p *Pending, input string) {
	text, err := w.sender.Send(ctx, input)
	if err != nil {
		log.Warn().Err(err).Str("component", "widget").Msg("send failed, showing fallback")
		text = FallbackText
	}

	w.mu.Lock()
	p.reply = w.appendLocked(Message{Role: RoleBot, Text: text})
	w.state = StateIdle
	w.mu.Unlock()

	close(p.done)
}

// SelectCategory answers a quick-pick locally with a placeholder reply.
func (w *Widget) SelectCategory(label string) []Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	user := w.appendLocked(Message{Role: RoleUser, Text: label})
	bot := w.appendLocked(Message{Role: RoleBot, Text: fmt.Sprintf(`You selected "%s". (This is a placeholder response.)`, label)})
	return []Message{user, bot}
}

// Attach appends a user message carrying a file. Images are inlined as a data URI;
// other files keep only their name. Nothing is sent to the responder.
func (w *Widget) Attach(name string, data []byte) (Message, error) {
	if name == "" && len(data) == 0 {
		return Message{}, ErrEmptyAttachment
	}

	attachment := &Attachment{FileName: name}
	if len(data) > 0 {
		if contentType := http.DetectContentType(data); strings.HasPrefix(contentType, "image/") {
			attachment = &Attachment{
				ImageDataURI: "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendLocked(Message{Role: RoleUser, Attachment: attachment}), nil
}

// Messages returns a copy of the message list in append order.
func (w *Widget) Messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	copied := make([]Message, len(w.messages))
	copy(copied, w.messages)
	return copied
}

// State reports whether a reply is pending.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Widget) appendLocked(msg Message) Message {
	msg.ID = w.nextID
	w.nextID++
	msg.Timestamp = w.now()
	w.messages = append(w.messages, msg)
	return msg
}
