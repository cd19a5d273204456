package llm

import (
	"context"
	"testing"
)

func TestClientAppliesDefaults(t *testing.T) {
	stub := &stubOpenAI{reply: "pong"}
	p := newStubbedOpenAI(stub)
	ctx := context.Background()
	if err := p.Initialize(ctx, validCredentials(ProviderOpenAI)); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	client := NewClient(p, ChatOptions{MaxTokens: 512, Temperature: Float(0.1)})

	reply, err := client.Chat(ctx, []ChatMessage{UserMessage("ping")})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "pong" {
		t.Errorf("reply = %q", reply)
	}
	if stub.requests[0].MaxTokens != 512 || stub.requests[0].Temperature != float32(0.1) {
		t.Errorf("defaults not applied: %+v", stub.requests[0])
	}

	_, usage, err := client.ChatWithUsage(ctx, []ChatMessage{UserMessage("ping")}, ChatOptions{MaxTokens: 64})
	if err != nil {
		t.Fatalf("ChatWithUsage() error = %v", err)
	}
	if usage.TotalTokens != 10 {
		t.Errorf("usage = %+v", usage)
	}
	if stub.requests[1].MaxTokens != 64 || stub.requests[1].Temperature != float32(0.1) {
		t.Errorf("per-call options not merged: %+v", stub.requests[1])
	}

	if client.Provider() != Provider(p) {
		t.Error("Provider() returned a different provider")
	}
}

func TestClientMemoKeepsMemoTemperature(t *testing.T) {
	stub := &stubOpenAI{reply: `{"title":"T","summary":"S","narrative":"N","structuredData":{},"selectedTag":"news"}`}
	p := newStubbedOpenAI(stub)
	ctx := context.Background()
	if err := p.Initialize(ctx, validCredentials(ProviderOpenAI)); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	client := NewClient(p, ChatOptions{MaxTokens: 256, Temperature: Float(0.9)})
	memo, err := client.Memo(ctx, "<p>news</p>", ChatOptions{})
	if err != nil {
		t.Fatalf("Memo() error = %v", err)
	}
	if memo.SelectedTag != TagNews {
		t.Errorf("SelectedTag = %q", memo.SelectedTag)
	}
	req := stub.requests[len(stub.requests)-1]
	if req.MaxTokens != 256 || req.Temperature != float32(memoTemperature) {
		t.Errorf("memo options = max %d temp %v", req.MaxTokens, req.Temperature)
	}
}
