package tutor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/tutorgen/llm"
	"github.com/richinex/tutorgen/model"
)

// ErrEmptyTopic is returned when a chat command carries no text.
var ErrEmptyTopic = errors.New("topic is empty")

// Reply is the outcome of one handled command.
type Reply struct {
	// Text is shown to the user: the answer, or a save confirmation.
	Text string
	// Turn is set for chat replies; the caller appends it to its history.
	// Save replies leave it nil.
	Turn *model.Turn
}

// Tutor dispatches commands to the chat-completion client or the persister.
// It holds no conversation state; history is passed in on every call.
type Tutor struct {
	client       *llm.Client
	persister    *Persister
	systemPrompt string
	userName     string
	logger       *zap.SugaredLogger
}

// New creates a tutor with the default system prompt and a no-op logger.
func New(client *llm.Client, persister *Persister) *Tutor {
	return &Tutor{
		client:       client,
		persister:    persister,
		systemPrompt: DefaultSystemPrompt,
		logger:       zap.NewNop().Sugar(),
	}
}

// SystemPrompt replaces the instructor prompt. Empty keeps the default.
func (t *Tutor) SystemPrompt(prompt string) *Tutor {
	if prompt != "" {
		t.systemPrompt = prompt
	}
	return t
}

// UserName tags user messages with a participant name.
func (t *Tutor) UserName(name string) *Tutor {
	t.userName = name
	return t
}

// Logger sets the logger.
func (t *Tutor) Logger(logger *zap.SugaredLogger) *Tutor {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// Handle runs one command against the caller's history.
func (t *Tutor) Handle(ctx context.Context, cmd Command, history model.History) (Reply, error) {
	switch c := cmd.(type) {
	case Save:
		msg, err := t.Save(history)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: msg}, nil
	case Chat:
		answer, err := t.Ask(ctx, c.Text)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: answer, Turn: &model.Turn{Question: c.Text, Answer: answer}}, nil
	default:
		return Reply{}, fmt.Errorf("unknown command type %T", cmd)
	}
}

// Save persists the last turn of history.
func (t *Tutor) Save(history model.History) (string, error) {
	msg, err := t.persister.Persist(history)
	if err != nil {
		t.logger.Errorw("Save failed", "error", err)
		return "", err
	}

	last, _ := history.Last()
	t.logger.Infow("Response saved", "path", t.persister.Path(Stem(last.Question)))
	return msg, nil
}

// Ask sends one topic to the model and returns the generated answer.
func (t *Tutor) Ask(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}

	start := time.Now()
	answer, usage, err := t.client.ChatWithUsage(ctx, BuildMessages(t.systemPrompt, t.userName, topic))
	if err != nil {
		t.logger.Errorw("Chat request failed", "duration", time.Since(start).String(), "error", err)
		return "", err
	}

	t.logRequest(topic, start, usage)
	return answer, nil
}

// StreamAsk behaves like Ask but copies the answer to w as it is generated.
// The full answer is returned once the stream ends.
func (t *Tutor) StreamAsk(ctx context.Context, topic string, w io.Writer) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}

	start := time.Now()
	answer, usage, err := t.client.StreamText(ctx, BuildMessages(t.systemPrompt, t.userName, topic), func(chunk string) error {
		_, err := io.WriteString(w, chunk)
		return err
	})
	if err != nil {
		t.logger.Errorw("Streaming request failed", "duration", time.Since(start).String(), "error", err)
		return "", err
	}

	t.logRequest(topic, start, usage)
	return answer, nil
}

func (t *Tutor) logRequest(topic string, start time.Time, usage *llm.TokenUsage) {
	provider := t.client.Provider()
	fields := []interface{}{
		"provider", provider.Name(),
		"model", provider.Model(),
		"topic", topic,
		"duration", time.Since(start).String(),
	}
	if usage != nil {
		fields = append(fields, "prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens)
	}
	t.logger.Debugw("Chat request completed", fields...)
}
