package rules

import (
	"context"
	"strings"
	"time"

	chatservice "github.com/zhouzirui/cleantech-assistant/backend/internal/service/chat"
)

// Canned replies served by the keyword responder.
const (
	GreetingReply  = "Hello! I'm your Cleantech Directory assistant. How can I help you today?"
	CleantechReply = "The Global Cleantech Directory helps connect businesses with sustainable technology solutions. We can help you find companies specializing in renewable energy, waste management, water treatment, and more."
	CompaniesReply = "We have a database of thousands of cleantech companies worldwide. Would you like to search by sector, location, or technology type?"
	DefaultReply   = "I'm a demo chatbot. In a real implementation, I would connect to a database of cleantech companies and provide specific information about sustainable solutions."
)

// Rule maps a set of keywords to a canned reply.
type Rule struct {
	Name     string
	Keywords []string
	Reply    string
}

// DefaultRules is ordered by priority; the first rule with a matching keyword wins.
var DefaultRules = []Rule{
	{Name: "greeting", Keywords: []string{"hello", "hi"}, Reply: GreetingReply},
	{Name: "cleantech", Keywords: []string{"cleantech"}, Reply: CleantechReply},
	{Name: "companies", Keywords: []string{"company", "companies"}, Reply: CompaniesReply},
}

// Responder answers with canned replies after a fixed delay.
type Responder struct {
	rules    []Rule
	fallback string
	delay    time.Duration
}

// Option customises a Responder.
type Option func(*Responder)

// WithDelay overrides the artificial latency. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(r *Responder) {
		r.delay = d
	}
}

// WithRules replaces the rule table and the fallback reply.
func WithRules(rules []Rule, fallback string) Option {
	return func(r *Responder) {
		r.rules = append([]Rule(nil), rules...)
		r.fallback = fallback
	}
}

// New returns a responder preloaded with DefaultRules and a 500ms delay.
func New(opts ...Option) *Responder {
	r := &Responder{
		rules:    DefaultRules,
		fallback: DefaultReply,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements chat.Responder.
func (r *Responder) Name() string {
	return "rules"
}

// Respond implements chat.Responder.
func (r *Responder) Respond(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", chatservice.ErrMessageRequired
	}

	reply := r.Match(message)

	if r.delay <= 0 {
		return reply, nil
	}

	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return reply, nil
	}
}

// Match returns the reply of the first rule whose keyword occurs in message.
func (r *Responder) Match(message string) string {
	normalized := strings.ToLower(message)
	for _, rule := range r.rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return rule.Reply
			}
		}
	}
	return r.fallback
}
