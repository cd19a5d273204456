package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinex/llmbridge/config"
	"github.com/richinex/llmbridge/llm"
	"github.com/richinex/llmbridge/storage"
)

type stubProvider struct {
	reply    string
	memo     llm.MemoResult
	requests [][]llm.ChatMessage
}

func (s *stubProvider) Name() string  { return "openai" }
func (s *stubProvider) Model() string { return llm.ModelOpenAIGPT4o }

func (s *stubProvider) Initialize(ctx context.Context, creds llm.Credentials) error { return nil }
func (s *stubProvider) Initialized() bool                                           { return true }

func (s *stubProvider) Chat(ctx context.Context, messages []llm.ChatMessage, opts llm.ChatOptions) (llm.ChatResult, error) {
	s.requests = append(s.requests, messages)
	return llm.ChatResult{Success: true, Reply: s.reply}, nil
}

func (s *stubProvider) ProcessMemo(ctx context.Context, content string, opts llm.ChatOptions) (llm.MemoResult, error) {
	return s.memo, nil
}

func (s *stubProvider) CalculateTokens(text string) int      { return 0 }
func (s *stubProvider) AvailableModels() []string            { return nil }
func (s *stubProvider) ProviderInfo() llm.ProviderDescriptor { return llm.ProviderDescriptor{} }
func (s *stubProvider) ValidateConfig(cfg llm.Config) bool   { return true }

// withStub swaps createProvider for the duration of the test.
func withStub(t *testing.T, stub *stubProvider) {
	t.Helper()
	orig := createProvider
	createProvider = func(ctx context.Context, settings config.Settings, logger *slog.Logger) (llm.Provider, error) {
		return stub, nil
	}
	t.Cleanup(func() { createProvider = orig })
}

func testOptions(t *testing.T) (Options, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	return Options{
		Provider:   "openai",
		ConfigPath: filepath.Join(dir, "absent.yaml"),
		DBPath:     filepath.Join(dir, "test.db"),
		Out:        out,
		In:         strings.NewReader(""),
		Err:        &bytes.Buffer{},
	}, out
}

func TestProviders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	opts, out := testOptions(t)
	if err := Providers(opts); err != nil {
		t.Fatalf("Providers() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out.String())
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "openai") && !strings.Contains(line, "not configured") {
			return
		}
	}
	t.Errorf("openai should be configured:\n%s", out.String())
}

func TestProvidersVerbose(t *testing.T) {
	opts, out := testOptions(t)
	opts.Verbose = true

	if err := Providers(opts); err != nil {
		t.Fatalf("Providers() error = %v", err)
	}
	for _, want := range []string{"models:", "regions:", "cognito-identity", "warning:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("verbose output missing %q", want)
		}
	}
}

func TestChatSingleShotWithSession(t *testing.T) {
	stub := &stubProvider{reply: "hi there"}
	withStub(t, stub)
	opts, out := testOptions(t)
	ctx := context.Background()

	if err := Chat(ctx, "hello", "s1", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(out.String(), "hi there") {
		t.Errorf("reply not printed: %q", out.String())
	}

	if err := Chat(ctx, "again", "s1", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(stub.requests[1]) != 3 {
		t.Errorf("expected resumed history of 3 messages, got %d", len(stub.requests[1]))
	}

	store, err := storage.OpenSqlite(opts.DBPath)
	if err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	defer store.Close()
	history, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(history) != 4 {
		t.Errorf("expected 4 stored messages, got %d", len(history))
	}
}

func TestChatInteractive(t *testing.T) {
	stub := &stubProvider{reply: "pong"}
	withStub(t, stub)
	opts, out := testOptions(t)
	opts.In = strings.NewReader("ping\n\nping again\nexit\nignored\n")

	if err := Chat(context.Background(), "", "", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(stub.requests) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(stub.requests))
	}
	if len(stub.requests[1]) != 3 {
		t.Errorf("expected in-memory history to carry over, got %d messages", len(stub.requests[1]))
	}
	if strings.Count(out.String(), "pong") != 2 {
		t.Errorf("unexpected output %q", out.String())
	}
	if _, err := os.Stat(opts.DBPath); !os.IsNotExist(err) {
		t.Error("database should not be created without a session")
	}
}

func TestMemoAndMemos(t *testing.T) {
	stub := &stubProvider{memo: llm.MemoResult{
		Title:       "Release notes",
		Summary:     "What shipped.",
		Narrative:   "Several fixes landed.",
		SelectedTag: llm.TagNews,
	}}
	withStub(t, stub)
	opts, out := testOptions(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<h1>Release notes</h1>"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Memo(ctx, path, "https://example.com/notes", false, opts); err != nil {
		t.Fatalf("Memo() error = %v", err)
	}
	for _, want := range []string{"Release notes", "news", "https://example.com/notes"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("memo output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := Memos(ctx, 10, opts); err != nil {
		t.Fatalf("Memos() error = %v", err)
	}
	if !strings.Contains(out.String(), "[news]") {
		t.Errorf("memo not listed:\n%s", out.String())
	}
}

func TestMemoFromStdin(t *testing.T) {
	withStub(t, &stubProvider{memo: llm.MemoResult{Title: "stdin", SelectedTag: llm.TagOther}})
	opts, out := testOptions(t)
	opts.In = strings.NewReader("plain text body")

	if err := Memo(context.Background(), "-", "", false, opts); err != nil {
		t.Fatalf("Memo() error = %v", err)
	}
	if !strings.Contains(out.String(), "stdin") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestMemoEmptyInput(t *testing.T) {
	withStub(t, &stubProvider{})
	opts, _ := testOptions(t)
	opts.In = strings.NewReader("   \n")

	if err := Memo(context.Background(), "-", "", false, opts); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestMemosEmpty(t *testing.T) {
	opts, out := testOptions(t)

	if err := Memos(context.Background(), 5, opts); err != nil {
		t.Fatalf("Memos() error = %v", err)
	}
	if !strings.Contains(out.String(), "No memos") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestValidateReportsProviderError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "not-an-openai-key")
	opts, _ := testOptions(t)

	err := Validate(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error for malformed key")
	}
	if e, ok := llm.AsError(err); !ok || e.Kind != llm.KindAuth {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateString("héllo wörld", 5); got != "héllo..." {
		t.Errorf("got %q", got)
	}
}

func TestResolveModelFlag(t *testing.T) {
	opts, _ := testOptions(t)
	opts.Provider = "anthropic"
	opts.Model = "claude-3-5-h"

	settings, err := resolve(opts)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if settings.LLM.Model != llm.ModelAnthropicClaudeHaiku35 || settings.ProviderConfig().Model != llm.ModelAnthropicClaudeHaiku35 {
		t.Errorf("model not resolved: %q / %q", settings.LLM.Model, settings.ProviderConfig().Model)
	}

	opts.Model = "claude-3"
	if _, err := resolve(opts); err == nil {
		t.Error("expected error for ambiguous model prefix")
	}
}

func TestMemoReusesStoredMemo(t *testing.T) {
	stub := &stubProvider{memo: llm.MemoResult{Title: "Original", SelectedTag: llm.TagBlog}}
	withStub(t, stub)
	opts, out := testOptions(t)
	ctx := context.Background()

	opts.In = strings.NewReader("<p>the same post</p>")
	if err := Memo(ctx, "-", "", false, opts); err != nil {
		t.Fatalf("Memo() error = %v", err)
	}

	stub.memo.Title = "Reprocessed"
	out.Reset()
	opts.In = strings.NewReader("<p>the same post</p>")
	if err := Memo(ctx, "-", "", false, opts); err != nil {
		t.Fatalf("Memo() error = %v", err)
	}
	if !strings.Contains(out.String(), "stored memo") || !strings.Contains(out.String(), "Original") {
		t.Errorf("expected stored memo, got:\n%s", out.String())
	}

	out.Reset()
	opts.In = strings.NewReader("<p>the same post</p>")
	if err := Memo(ctx, "-", "", true, opts); err != nil {
		t.Fatalf("Memo() error = %v", err)
	}
	if !strings.Contains(out.String(), "Reprocessed") {
		t.Errorf("expected refresh to reprocess, got:\n%s", out.String())
	}
}

func TestChatLogsUsageAtDebug(t *testing.T) {
	withStub(t, &stubProvider{reply: "ok"})
	opts, _ := testOptions(t)
	logs := &bytes.Buffer{}
	opts.Err = logs
	opts.Verbose = true

	if err := Chat(context.Background(), "hello", "", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(logs.String(), "chat usage") {
		t.Errorf("usage not logged with --verbose:\n%s", logs.String())
	}

	logs.Reset()
	opts.Verbose = false
	if err := Chat(context.Background(), "hello", "", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if strings.Contains(logs.String(), "chat usage") {
		t.Errorf("usage logged without --verbose:\n%s", logs.String())
	}
}

func TestSessionsAndDeleteSession(t *testing.T) {
	withStub(t, &stubProvider{reply: "noted"})
	opts, out := testOptions(t)
	ctx := context.Background()

	if err := Sessions(ctx, opts); err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if !strings.Contains(out.String(), "No sessions") {
		t.Errorf("unexpected output %q", out.String())
	}

	if err := Chat(ctx, "remember this", "notes", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	out.Reset()
	if err := Sessions(ctx, opts); err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if !strings.Contains(out.String(), "notes") || !strings.Contains(out.String(), "2 messages") {
		t.Errorf("session not listed:\n%s", out.String())
	}

	out.Reset()
	opts.In = strings.NewReader("exit\n")
	if err := Chat(ctx, "", "notes", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(out.String(), "Resuming session 'notes' (2 messages)") {
		t.Errorf("expected resume banner:\n%s", out.String())
	}

	if err := DeleteSession(ctx, "notes", opts); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if err := DeleteSession(ctx, "notes", opts); err == nil {
		t.Error("expected error deleting a missing session")
	}

	out.Reset()
	opts.In = strings.NewReader("exit\n")
	if err := Chat(ctx, "", "fresh", opts); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if strings.Contains(out.String(), "Resuming") {
		t.Errorf("new session reported as resumed:\n%s", out.String())
	}
}

func TestDeleteMemo(t *testing.T) {
	withStub(t, &stubProvider{memo: llm.MemoResult{Title: "Short lived", SelectedTag: llm.TagOther}})
	opts, out := testOptions(t)
	ctx := context.Background()
	opts.In = strings.NewReader("some text")

	if err := Memo(ctx, "-", "", false, opts); err != nil {
		t.Fatalf("Memo() error = %v", err)
	}
	var id string
	for _, line := range strings.Split(out.String(), "\n") {
		if rest, ok := strings.CutPrefix(line, "ID:"); ok {
			id = strings.TrimSpace(rest)
		}
	}
	if id == "" {
		t.Fatalf("no memo ID printed:\n%s", out.String())
	}

	if err := DeleteMemo(ctx, id, opts); err != nil {
		t.Fatalf("DeleteMemo() error = %v", err)
	}
	if err := DeleteMemo(ctx, id, opts); err == nil {
		t.Error("expected error deleting a missing memo")
	}

	out.Reset()
	if err := Memos(ctx, 10, opts); err != nil {
		t.Fatalf("Memos() error = %v", err)
	}
	if !strings.Contains(out.String(), "No memos") {
		t.Errorf("memo still listed:\n%s", out.String())
	}
}

func TestValidateNamesMissingCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	opts, _ := testOptions(t)

	err := Validate(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error should name the variable: %v", err)
	}
}
