// Package prompt holds the summarizer prompt template.
//
// A template is plain text with two placeholders, {channel} and {chat_text}.
// Both must be present; Parse rejects anything else so a broken template is
// caught when the process starts or when a reload is attempted, never while a
// summary is being generated.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	ChannelPlaceholder  = "{channel}"
	ChatTextPlaceholder = "{chat_text}"
)

// ErrMissingPlaceholder is wrapped by Parse for each absent placeholder.
var ErrMissingPlaceholder = errors.New("prompt template missing placeholder")

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = "You're summarizing Twitch chat for me, the streamer. " +
	"Speak directly to me. Use 'you' or '{channel}'. " +
	"Group similar comments. Try to do half as many, or " +
	"less, sentences as chat messages, if possible. " +
	"Focus only on chat messages.\n\n" +
	"Chat log:\n{chat_text}"

// Template is a validated prompt template.
type Template struct {
	raw string
}

// Parse validates s and returns a Template.
func Parse(s string) (*Template, error) {
	var errs []error
	for _, p := range []string{ChannelPlaceholder, ChatTextPlaceholder} {
		if !strings.Contains(s, p) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingPlaceholder, p))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Template{raw: s}, nil
}

// MustParse is Parse that panics. Only for built-in templates.
func MustParse(s string) *Template {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes both placeholders. Placeholder text appearing inside the
// substituted values is left alone.
func (t *Template) Render(channel, chatText string) string {
	r := strings.NewReplacer(ChannelPlaceholder, channel, ChatTextPlaceholder, chatText)
	return r.Replace(t.raw)
}

func (t *Template) String() string { return t.raw }

// Source is the live template, swapped on reload. Safe for concurrent use.
type Source struct {
	mu sync.RWMutex
	t  *Template
}

// NewSource returns a Source serving t.
func NewSource(t *Template) *Source { return &Source{t: t} }

// Current returns the template in effect.
func (s *Source) Current() *Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t
}

// Set replaces the template in effect.
func (s *Source) Set(t *Template) {
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
}
