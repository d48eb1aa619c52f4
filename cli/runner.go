// Command execution for CLI commands.
//
// Information Hiding:
// - Provider, storage and logger setup hidden
// - Chat loop input handling hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richinex/tutorgen/config"
	"github.com/richinex/tutorgen/internal/logger"
	"github.com/richinex/tutorgen/llm"
	"github.com/richinex/tutorgen/model"
	"github.com/richinex/tutorgen/storage"
	"github.com/richinex/tutorgen/tutor"
)

// Options holds CLI execution options.
type Options struct {
	Provider  string
	OutputDir string
	Verbose   bool
	Stream    bool
	Raw       bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Verbose: false,
		Stream:  false,
		Raw:     false,
	}
}

// maxInputLine bounds a single line read by the chat loop.
const maxInputLine = 1024 * 1024

// session is one chat loop bound to a tutor and a history store.
type session struct {
	tutor       *tutor.Tutor
	store       storage.ConversationStorage
	id          string
	saveCommand string
	stream      bool
	renderer    *Renderer
	logger      *zap.SugaredLogger
}

// Chat starts an interactive chat session.
func Chat(ctx context.Context, sessionID, dbPath string, opts Options) error {
	env, err := setup(opts)
	if err != nil {
		return err
	}
	defer env.close()

	store, id, err := openStore(sessionID, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	s := &session{
		tutor:       env.tutor,
		store:       store,
		id:          id,
		saveCommand: env.settings.Tutor.SaveCommand,
		stream:      opts.Stream,
		renderer:    env.renderer,
		logger:      env.logger,
	}

	env.logger.Debugw("Chat session started",
		"session", id,
		"provider", env.settings.LLM.Provider,
		"model", env.settings.LLM.Model,
		"output_dir", env.settings.Tutor.OutputDir)

	return s.run(ctx, os.Stdin, os.Stdout, os.Stderr)
}

// Ask sends a single topic and writes the answer to w.
// With a session ID the exchange is appended to that stored session.
func Ask(ctx context.Context, w io.Writer, topic, sessionID, dbPath string, opts Options) error {
	env, err := setup(opts)
	if err != nil {
		return err
	}
	defer env.close()

	answer, err := env.tutor.Ask(ctx, topic)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, env.renderer.Render(answer))

	if sessionID == "" {
		return nil
	}

	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	return appendTurn(ctx, store, sessionID, model.Turn{Question: strings.TrimSpace(topic), Answer: answer})
}

// Save writes the last answer of a stored session to a .qmd file and
// reports the result on w. No provider is contacted.
func Save(ctx context.Context, w io.Writer, sessionID, dbPath string, opts Options) error {
	if sessionID == "" {
		return fmt.Errorf("--session is required for this command")
	}

	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	exists, err := store.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("session %q not found", sessionID)
	}

	history, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	msg, err := tutor.NewPersister(outputDir(opts, settings)).Persist(history)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, confirmStyle.Render(msg))
	return nil
}

// ListSessions prints the stored session IDs.
func ListSessions(ctx context.Context, dbPath string, w io.Writer) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	summaries, err := store.Summaries(ctx)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions stored.")
		return nil
	}

	for _, summary := range summaries {
		fmt.Fprintf(w, "%s\t%d turns\n", summary.ID, summary.Turns)
	}
	return nil
}

// run reads commands from in until EOF, exit/quit or cancellation.
// Cancellation is observed while waiting at the prompt, not only between
// commands. Failed commands are reported on errOut and the loop continues.
func (s *session) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	history, err := s.store.Load(ctx, s.id)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) > 0 {
		fmt.Fprintf(out, "Resuming session '%s' (%d turns)\n\n", s.id, len(history))
	}

	fmt.Fprintln(out, titleStyle.Render("Data science tutor"))
	fmt.Fprintf(out, "Ask about a topic. Type '%s' to save the last answer, 'exit' to quit.\n\n", s.saveCommand)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines, readErr := readLines(ctx, in)
	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-readErr
			}
			line = l
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		reply, err := s.handle(ctx, tutor.ParseCommand(input, s.saveCommand), history, out)
		if err != nil {
			fmt.Fprintf(errOut, "\n%s\n\n", errorStyle.Render(describeError(err, s.saveCommand)))
			continue
		}

		if reply.Turn == nil {
			continue
		}

		history = history.Append(*reply.Turn)
		if err := s.store.Save(ctx, s.id, history); err != nil {
			fmt.Fprintf(errOut, "Warning: failed to save history: %v\n", err)
		}
	}
}

// readLines scans in on its own goroutine so the prompt can be abandoned on
// cancellation. lines is closed at EOF or read failure, after which readErr
// yields the scanner error (nil at EOF). A read blocked on in outlives ctx
// until in returns.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return lines, readErr
}

// handle executes one command and prints its reply.
func (s *session) handle(ctx context.Context, cmd tutor.Command, history model.History, out io.Writer) (tutor.Reply, error) {
	if chat, ok := cmd.(tutor.Chat); ok && s.stream {
		fmt.Fprintln(out)
		answer, err := s.tutor.StreamAsk(ctx, chat.Text, out)
		if err != nil {
			return tutor.Reply{}, err
		}
		fmt.Fprint(out, "\n\n")
		return tutor.Reply{Text: answer, Turn: &model.Turn{Question: chat.Text, Answer: answer}}, nil
	}

	reply, err := s.tutor.Handle(ctx, cmd, history)
	if err != nil {
		return tutor.Reply{}, err
	}

	if reply.Turn == nil {
		fmt.Fprintf(out, "\n%s\n\n", confirmStyle.Render(reply.Text))
	} else {
		fmt.Fprintf(out, "\n%s\n\n", s.renderer.Render(reply.Text))
	}
	return reply, nil
}

func describeError(err error, saveCommand string) string {
	switch {
	case errors.Is(err, tutor.ErrEmptyHistory):
		return fmt.Sprintf("Nothing to save yet. Ask a question before typing '%s'.", saveCommand)
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func appendTurn(ctx context.Context, store storage.ConversationStorage, sessionID string, turn model.Turn) error {
	history, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err := store.Save(ctx, sessionID, history.Append(turn)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// openStore returns SQLite storage for a named session, or an in-memory
// store under a fresh session ID.
func openStore(sessionID, dbPath string) (storage.ConversationStorage, string, error) {
	if sessionID == "" {
		return storage.NewInMemoryStorage(), uuid.NewString(), nil
	}

	s, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return s, sessionID, nil
}

// environment is the wiring shared by commands that talk to a provider.
type environment struct {
	settings config.Settings
	tutor    *tutor.Tutor
	renderer *Renderer
	logger   *zap.SugaredLogger
}

func (e *environment) close() {
	_ = e.logger.Sync()
}

func setup(opts Options) (*environment, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(opts.Verbose || settings.Tutor.Debug).Sugar()

	provider, err := createProvider(settings)
	if err != nil {
		return nil, err
	}

	renderer, err := NewRenderer(opts.Raw, defaultWrapWidth)
	if err != nil {
		return nil, err
	}

	t := tutor.New(llm.NewClient(provider), tutor.NewPersister(outputDir(opts, settings))).
		SystemPrompt(settings.Tutor.SystemPrompt).
		UserName(settings.Tutor.UserName).
		Logger(log)

	return &environment{
		settings: settings,
		tutor:    t,
		renderer: renderer,
		logger:   log,
	}, nil
}

// outputDir prefers the --output-dir flag over TUTOR_OUTPUT_DIR.
func outputDir(opts Options, settings config.Settings) string {
	if opts.OutputDir != "" {
		return opts.OutputDir
	}
	return settings.Tutor.OutputDir
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	return llm.NewProviderBuilder(providerType).
		Model(settings.LLM.Model).
		BaseURL(settings.LLM.BaseURL).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}
