// Command execution for CLI commands.
//
// Information Hiding:
// - Settings resolution and provider bootstrapping hidden
// - Storage lifecycle hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/richinex/llmbridge/config"
	"github.com/richinex/llmbridge/llm"
	"github.com/richinex/llmbridge/server"
	"github.com/richinex/llmbridge/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider   string
	Model      string
	ConfigPath string
	DBPath     string
	Verbose    bool

	Out io.Writer
	In  io.Reader
	Err io.Writer
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		ConfigPath: "llmbridge.yaml",
		Out:        os.Stdout,
		In:         os.Stdin,
		Err:        os.Stderr,
	}
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) in() io.Reader {
	if o.In == nil {
		return os.Stdin
	}
	return o.In
}

func (o Options) errOut() io.Writer {
	if o.Err == nil {
		return os.Stderr
	}
	return o.Err
}

func (o Options) logger() *slog.Logger {
	return NewLogger(o.errOut(), o.Verbose)
}

// NewLogger returns a text logger on w, at debug level when verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// createProvider builds and initializes the selected provider.
// Replaced in tests.
var createProvider = func(ctx context.Context, settings config.Settings, logger *slog.Logger) (llm.Provider, error) {
	pt := settings.LLM.Provider
	cfg := settings.ProviderConfig()

	if err := llm.ValidateConfig(pt, cfg); err != nil {
		return nil, err
	}
	p, err := llm.CreateProvider(pt, cfg, llm.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := p.Initialize(ctx, cfg.Credentials); err != nil {
		return nil, err
	}
	return p, nil
}

func resolve(opts Options) (config.Settings, error) {
	settings, err := config.Resolve(opts.ConfigPath, opts.Provider)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if opts.DBPath != "" {
		settings.Storage.Path = opts.DBPath
	}
	if opts.Model != "" {
		pt := settings.LLM.Provider
		model, err := llm.ResolveModel(pt, opts.Model)
		if err != nil {
			return config.Settings{}, err
		}
		cfg := settings.Providers[pt]
		cfg.Model = model
		settings.Providers[pt] = cfg
		settings.LLM.Model = model
	}
	return settings, nil
}

func newClient(ctx context.Context, opts Options, logger *slog.Logger) (*llm.Client, config.Settings, error) {
	settings, err := resolve(opts)
	if err != nil {
		return nil, config.Settings{}, err
	}
	p, err := createProvider(ctx, settings, logger)
	if err != nil {
		return nil, config.Settings{}, err
	}
	return llm.NewClient(p, settings.ChatOptions()), settings, nil
}

// Providers prints the provider catalog. With verbose it adds models,
// regions and Bedrock's credential guidance.
func Providers(opts Options) error {
	settings, err := resolve(opts)
	if err != nil {
		return err
	}
	configured := map[llm.ProviderType]bool{}
	for _, pt := range settings.Configured() {
		configured[pt] = true
	}

	out := opts.out()
	for _, d := range llm.AvailableProviders() {
		status := "not configured"
		if configured[d.ID] {
			status = "configured"
		}
		fmt.Fprintf(out, "%-10s %-28s %s\n", d.ID, d.Name, status)
		if !opts.Verbose {
			continue
		}
		fmt.Fprintf(out, "    %s\n", d.Description)
		fmt.Fprintf(out, "    models: %s\n", strings.Join(d.Models, ", "))
		if len(d.Regions) > 0 {
			fmt.Fprintf(out, "    regions: %s\n", strings.Join(d.Regions, ", "))
		}
		if d.ID == llm.ProviderBedrock {
			printAuthMethods(out, llm.NewBedrockProvider(settings.Providers[d.ID]))
		}
	}
	return nil
}

func printAuthMethods(out io.Writer, p *llm.BedrockProvider) {
	fmt.Fprintln(out, "    credentials:")
	for _, m := range p.AuthMethods() {
		marker := " "
		if m.Recommended {
			marker = "*"
		}
		fmt.Fprintf(out, "     %s %-20s %s\n", marker, m.Method, m.Description)
		if m.Warning != "" {
			fmt.Fprintf(out, "       warning: %s\n", m.Warning)
		}
	}
}

// Validate checks the selected provider's credentials offline and then
// with a connectivity probe.
func Validate(ctx context.Context, opts Options) error {
	settings, err := resolve(opts)
	if err != nil {
		return err
	}
	pt := settings.LLM.Provider
	if settings.ProviderConfig().Credentials.IsZero() {
		if _, err := config.CredentialsFor(pt.String()); err != nil {
			return fmt.Errorf("%s is not configured: %w", pt, err)
		}
	}
	p, err := createProvider(ctx, settings, opts.logger())
	if err != nil {
		return err
	}
	fmt.Fprintf(opts.out(), "%s: OK (model %s)\n", p.Name(), p.Model())
	return nil
}

// Chat sends prompt and prints the reply. With an empty prompt it starts an
// interactive session. A session ID persists history in SQLite.
func Chat(ctx context.Context, prompt, sessionID string, opts Options) error {
	logger := opts.logger()
	client, settings, err := newClient(ctx, opts, logger)
	if err != nil {
		return err
	}

	var (
		store   storage.ConversationStorage
		history []llm.ChatMessage
		resumed bool
	)
	if sessionID != "" {
		s, err := storage.OpenSqlite(settings.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()
		store = s

		if resumed, err = store.Exists(ctx, sessionID); err != nil {
			return err
		}
		if resumed {
			if history, err = store.Load(ctx, sessionID); err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
		}
		logger.Debug("session", "id", sessionID, "resumed", resumed, "messages", len(history))
	}

	t := turn{client: client, store: store, sessionID: sessionID, out: opts.out(), logger: logger}
	out := t.out
	if prompt != "" {
		_, err := t.exchange(ctx, history, prompt)
		return err
	}

	if resumed {
		fmt.Fprintf(out, "Resuming session '%s' (%d messages)\n\n", sessionID, len(history))
	}
	fmt.Fprintf(out, "Chat with %s (%s). Type 'exit' to quit.\n\n", client.Provider().Name(), client.Provider().Model())

	scanner := bufio.NewScanner(opts.in())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		updated, err := t.exchange(ctx, history, input)
		if err != nil {
			fmt.Fprintf(opts.errOut(), "\nError: %v\n\n", err)
			continue
		}
		history = updated
	}

	return scanner.Err()
}

// turn carries what each chat exchange needs. store is nil without a session.
type turn struct {
	client    *llm.Client
	store     storage.ConversationStorage
	sessionID string
	out       io.Writer
	logger    *slog.Logger
}

// exchange runs one turn and returns the extended history.
func (t turn) exchange(ctx context.Context, history []llm.ChatMessage, input string) ([]llm.ChatMessage, error) {
	messages := append(append([]llm.ChatMessage{}, history...), llm.UserMessage(input))

	reply, usage, err := t.client.ChatWithUsage(ctx, messages, llm.ChatOptions{})
	if err != nil {
		return history, err
	}
	fmt.Fprintf(t.out, "%s\n", reply)
	t.logger.Debug("chat usage", "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)

	messages = append(messages, llm.AssistantMessage(reply))
	if t.store != nil {
		if err := t.store.Save(ctx, t.sessionID, messages); err != nil {
			t.logger.Warn("failed to save history", "session", t.sessionID, "error", err)
		}
	}
	return messages, nil
}

// Memo extracts a memo from the file at path ("-" for stdin), stores it and
// prints it. Content already processed by the provider is printed from
// storage unless refresh is set.
func Memo(ctx context.Context, path, sourceURL string, refresh bool, opts Options) error {
	content, err := readInput(path, opts.in())
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("no content to process")
	}

	client, settings, err := newClient(ctx, opts, opts.logger())
	if err != nil {
		return err
	}

	store, err := storage.OpenSqlite(settings.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	p := client.Provider()
	hash := storage.ContentHash(content)
	if !refresh {
		existing, err := store.FindMemo(ctx, p.Name(), hash)
		if err != nil {
			return err
		}
		if existing != nil {
			fmt.Fprintln(opts.out(), "(stored memo; use --refresh to reprocess)")
			printMemo(opts.out(), *existing)
			return nil
		}
	}

	memo, err := client.Memo(ctx, content, llm.ChatOptions{})
	if err != nil {
		return err
	}

	record := storage.NewMemoRecord(p.Name(), p.Model(), sourceURL, memo)
	record.ContentHash = hash
	if err := store.SaveMemo(ctx, record); err != nil {
		return fmt.Errorf("failed to save memo: %w", err)
	}

	printMemo(opts.out(), record)
	return nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// Memos lists stored memos, newest first.
func Memos(ctx context.Context, limit int, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListMemos(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list memos: %w", err)
	}

	out := opts.out()
	if len(records) == 0 {
		fmt.Fprintln(out, "No memos stored.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s  %s  [%s]  %s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.ID, r.Memo.SelectedTag, truncateString(r.Memo.Title, maxTitleLen))
	}
	return nil
}

const maxTitleLen = 60

// Sessions lists stored chat sessions, most recently updated first.
func Sessions(ctx context.Context, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}

	out := opts.out()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions stored.")
		return nil
	}
	for _, sess := range sessions {
		fmt.Fprintf(out, "%s  %4d messages  %s\n",
			sess.UpdatedAt.Local().Format(time.DateTime), sess.Messages, sess.ID)
	}
	return nil
}

// DeleteSession removes a stored chat session.
func DeleteSession(ctx context.Context, sessionID string, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("session %q not found", sessionID)
	}
	fmt.Fprintf(opts.out(), "Deleted session '%s'\n", sessionID)
	return nil
}

// DeleteMemo removes a stored memo.
func DeleteMemo(ctx context.Context, id string, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.DeleteMemo(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("memo %q not found", id)
	}
	fmt.Fprintf(opts.out(), "Deleted memo %s\n", id)
	return nil
}

func openStore(opts Options) (*storage.SqliteStorage, error) {
	settings, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenSqlite(settings.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func printMemo(out io.Writer, r storage.MemoRecord) {
	fmt.Fprintf(out, "ID:       %s\n", r.ID)
	fmt.Fprintf(out, "Title:    %s\n", r.Memo.Title)
	fmt.Fprintf(out, "Tag:      %s\n", r.Memo.SelectedTag)
	fmt.Fprintf(out, "Words:    %d\n", r.WordCount)
	if r.SourceURL != "" {
		fmt.Fprintf(out, "Source:   %s\n", r.SourceURL)
	}
	fmt.Fprintf(out, "\n%s\n\n%s\n", r.Memo.Summary, r.Memo.Narrative)
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Serve initializes every configured provider and serves the HTTP API
// until interrupted.
func Serve(ctx context.Context, opts Options) error {
	settings, err := resolve(opts)
	if err != nil {
		return err
	}
	logger := opts.logger()

	registry := server.NewRegistry(server.DefaultFactory(llm.WithLogger(logger)))
	if err := registry.InitializeAll(ctx, settings.Providers, logger); err != nil {
		logger.Warn("some providers failed to initialize", "error", err)
	}
	if len(registry.Live()) == 0 {
		return errors.New("no provider could be initialized; check credentials")
	}

	store, err := storage.OpenSqlite(settings.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	srv := server.NewServer(registry, store, server.Options{
		DefaultProvider: settings.LLM.Provider,
		ChatDefaults:    llm.ChatOptions{MaxTokens: settings.LLM.MaxTokens, Temperature: llm.Float(settings.LLM.Temperature)},
		Logger:          logger,
	}, server.Config{
		Addr:         settings.Server.Addr,
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
		IdleTimeout:  server.DefaultConfig().IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		store.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
