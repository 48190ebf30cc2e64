// Package translate sends a batch of sentences to a chat-completion model and
// returns the translated sentences in input order.
//
// The model is asked to join its translations with a single delimiter
// character; the reply is split on that character and each piece is trimmed.
// An optional per-sentence character limit is passed to the model and then
// checked afterwards, but only reported, never enforced.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/minios-linux/phrasekit/i18n"
)

// Delimiter separates translated sentences in the model reply.
const Delimiter = "@"

const (
	// DefaultTone is used when a request leaves Tone empty.
	DefaultTone = "formal"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"
)

var (
	// ErrInvalidArgument is returned before any model call when the request
	// is malformed (no sentences, negative length limit).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTranslationFailed is returned when the model call fails. The
	// returned error also wraps the underlying cause.
	ErrTranslationFailed = errors.New("failed to translate sentences")
)

// ChatCompleter is a chat-completion service: it receives a system message
// and a user message and returns the text of the reply.
type ChatCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)
}

// Request describes one batch translation.
type Request struct {
	// Sentences to translate, in order. Must not be empty.
	Sentences []string
	// TargetLanguage is free-form ("Spanish", "Brazilian Portuguese").
	TargetLanguage string
	// Tone is free-form ("formal", "informal"). Empty means DefaultTone.
	Tone string
	// MaxLength asks the model to keep each translation within this many
	// characters. Zero means no limit.
	MaxLength int
}

// Translator turns Requests into model calls. It holds no per-call state and
// is safe for concurrent use if its ChatCompleter is.
type Translator struct {
	chat         ChatCompleter
	model        string
	systemPrompt string
	logger       *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithModel sets the model identifier passed to the ChatCompleter.
func WithModel(model string) Option {
	return func(t *Translator) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLogger sets the logger used for notes and failures.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithSystemPrompt replaces the built-in system prompt. The placeholder
// {{delimiter}} is replaced with Delimiter.
func WithSystemPrompt(prompt string) Option {
	return func(t *Translator) {
		if prompt != "" {
			t.systemPrompt = prompt
		}
	}
}

// New returns a Translator that sends requests through chat.
func New(chat ChatCompleter, opts ...Option) *Translator {
	t := &Translator{
		chat:         chat,
		model:        DefaultModel,
		systemPrompt: DefaultSystemPrompt,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate is a shortcut for New(chat).Translate with a one-off Request.
func Translate(ctx context.Context, chat ChatCompleter, sentences []string, targetLanguage, tone string, maxLength int) ([]string, error) {
	return New(chat).Translate(ctx, Request{
		Sentences:      sentences,
		TargetLanguage: targetLanguage,
		Tone:           tone,
		MaxLength:      maxLength,
	})
}

// Translate sends req to the model in a single call and returns one
// translation per reply segment. The result is not checked against the
// number of input sentences beyond a logged warning.
func (t *Translator) Translate(ctx context.Context, req Request) ([]string, error) {
	if len(req.Sentences) == 0 {
		return nil, fmt.Errorf("%w: the input must be a non-empty list of sentences", ErrInvalidArgument)
	}
	if req.MaxLength < 0 {
		return nil, fmt.Errorf("%w: max length must be positive, got %d", ErrInvalidArgument, req.MaxLength)
	}
	if t.chat == nil {
		return nil, fmt.Errorf("%w: no chat-completion client configured", ErrInvalidArgument)
	}

	log := t.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("target_language", req.TargetLanguage),
	)

	systemPrompt := t.resolvedSystemPrompt()
	userPrompt := buildUserPrompt(req)

	log.Debug("sending translation request",
		zap.String("model", t.model),
		zap.Int("sentences", len(req.Sentences)),
	)

	text, err := t.chat.Complete(ctx, systemPrompt, userPrompt, t.model)
	if err != nil {
		log.Error("error translating sentences", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTranslationFailed, err)
	}

	translations := splitTranslations(text)

	if len(translations) != len(req.Sentences) {
		log.Warn("translation count mismatch",
			zap.Int("expected", len(req.Sentences)),
			zap.Int("got", len(translations)),
		)
	}

	if req.MaxLength > 0 {
		if n := countTooLong(translations, req.MaxLength); n > 0 {
			log.Info(overLimitNote(n, req.MaxLength),
				zap.Int("over_limit", n),
				zap.Int("max_length", req.MaxLength),
			)
		}
	}

	return translations, nil
}

func (t *Translator) resolvedSystemPrompt() string {
	return strings.ReplaceAll(t.systemPrompt, "{{delimiter}}", Delimiter)
}

// splitTranslations splits the reply on Delimiter and trims each piece.
func splitTranslations(text string) []string {
	parts := strings.Split(text, Delimiter)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// charCount returns the length of s in characters, counting composed
// (NFC) runes so that "ó" is one character however the model encoded it.
func charCount(s string) int {
	return len([]rune(norm.NFC.String(s)))
}

// countTooLong returns how many translations exceed maxLength characters.
func countTooLong(translations []string, maxLength int) int {
	n := 0
	for _, s := range translations {
		if charCount(s) > maxLength {
			n++
		}
	}
	return n
}

func overLimitNote(n, maxLength int) string {
	format := i18n.N(
		"Note: %d sentence is over the character limit of %d.",
		"Note: %d sentences are over the character limit of %d.",
		n,
	)
	return fmt.Sprintf(format, n, maxLength)
}
