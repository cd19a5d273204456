package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/richinex/llmbridge/llm"
	"github.com/richinex/llmbridge/storage"
)

const (
	defaultMemoLimit = 20
	maxMemoLimit     = 100
)

// Handler serves the provider, chat and memo endpoints.
type Handler struct {
	registry        *Registry
	store           storage.Store
	defaultProvider llm.ProviderType
	defaults        llm.ChatOptions
	logger          *slog.Logger
}

// NewHandler creates a handler backed by registry and store.
func NewHandler(registry *Registry, store storage.Store, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaults := opts.ChatDefaults
	defaults.Model = ""
	return &Handler{
		registry:        registry,
		store:           store,
		defaultProvider: opts.DefaultProvider,
		defaults:        defaults,
		logger:          logger,
	}
}

// ChatRequest is the body of POST /api/v1/chat. SessionID, when set,
// prepends the stored history and appends the exchange to it.
type ChatRequest struct {
	Provider  string            `json:"provider"`
	Messages  []llm.ChatMessage `json:"messages"`
	Options   llm.ChatOptions   `json:"options"`
	SessionID string            `json:"sessionId,omitempty"`
}

// MemoRequest is the body of POST /api/v1/memos. Content the provider has
// already processed is answered from storage unless Refresh is set.
type MemoRequest struct {
	Provider  string          `json:"provider"`
	Content   string          `json:"content"`
	SourceURL string          `json:"sourceUrl"`
	Options   llm.ChatOptions `json:"options"`
	Refresh   bool            `json:"refresh,omitempty"`
}

// ProvidersResponse is the body of GET /api/v1/providers.
type ProvidersResponse struct {
	Providers []llm.ProviderDescriptor `json:"providers"`
	Live      []llm.ProviderType       `json:"live"`
	Default   llm.ProviderType         `json:"default,omitempty"`
}

// MemoListResponse is the body of GET /api/v1/memos.
type MemoListResponse struct {
	Memos []storage.MemoRecord `json:"memos"`
}

// SessionListResponse is the body of GET /api/v1/sessions.
type SessionListResponse struct {
	Sessions []storage.SessionInfo `json:"sessions"`
}

// SessionResponse is the body of GET /api/v1/sessions/{id}.
type SessionResponse struct {
	ID       string            `json:"id"`
	Messages []llm.ChatMessage `json:"messages"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProviders returns the static catalog and which providers are live.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProvidersResponse{
		Providers: llm.AvailableProviders(),
		Live:      h.registry.Live(),
		Default:   h.defaultProvider,
	})
}

// ValidateProvider checks a caller-supplied config against the vendor.
func (h *Handler) ValidateProvider(w http.ResponseWriter, r *http.Request) {
	var cfg llm.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.registry.Validate(r.Context(), chi.URLParam(r, "id"), cfg); err != nil {
		writeProviderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chat runs one exchange against a live provider.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	client, err := h.client(req.Provider)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	ctx := r.Context()
	messages := req.Messages
	if req.SessionID != "" {
		history, err := h.store.Load(ctx, req.SessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load session")
			return
		}
		messages = append(history, req.Messages...)
	}

	reply, usage, err := client.ChatWithUsage(ctx, messages, req.Options)
	if err != nil {
		h.logger.Debug("chat failed", "provider", client.Provider().Name(), "error", err)
		writeProviderError(w, err)
		return
	}

	if req.SessionID != "" {
		messages = append(messages, llm.AssistantMessage(reply))
		if err := h.store.Save(ctx, req.SessionID, messages); err != nil {
			h.logger.Warn("failed to save session", "session", req.SessionID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, llm.ChatResult{Success: true, Reply: reply, Usage: usage})
}

// CreateMemo extracts a memo from the submitted content and stores it.
// A stored memo for the same content is returned with 200 instead.
func (h *Handler) CreateMemo(w http.ResponseWriter, r *http.Request) {
	var req MemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	client, err := h.client(req.Provider)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	ctx := r.Context()
	p := client.Provider()
	hash := storage.ContentHash(req.Content)
	if !req.Refresh {
		existing, err := h.store.FindMemo(ctx, p.Name(), hash)
		if err != nil {
			h.logger.Warn("memo lookup failed", "error", err)
		} else if existing != nil {
			writeJSON(w, http.StatusOK, existing)
			return
		}
	}

	memo, err := client.Memo(ctx, req.Content, req.Options)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	model := req.Options.Model
	if model == "" {
		model = p.Model()
	}
	record := storage.NewMemoRecord(p.Name(), model, req.SourceURL, memo)
	record.ContentHash = hash
	if err := h.store.SaveMemo(ctx, record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save memo")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// ListMemos returns stored memos, newest first.
func (h *Handler) ListMemos(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListMemos(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list memos")
		return
	}
	writeJSON(w, http.StatusOK, MemoListResponse{Memos: records})
}

// GetMemo returns one stored memo.
func (h *Handler) GetMemo(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetMemo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load memo")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "memo not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// DeleteMemo removes one stored memo.
func (h *Handler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.DeleteMemo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete memo")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "memo not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions returns stored chat sessions, most recently updated first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions})
}

// GetSession returns the stored history of one session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	exists, err := h.store.Exists(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	history, err := h.store.Load(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, Messages: history})
}

// DeleteSession removes one stored session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// client resolves id (or the default provider) to a client carrying the
// server's chat defaults.
func (h *Handler) client(id string) (*llm.Client, error) {
	if id == "" {
		id = h.defaultProvider.String()
	}
	p, err := h.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(p, h.defaults), nil
}

// parseLimit reads ?limit=, clamped to (0, maxMemoLimit].
func parseLimit(r *http.Request) int {
	limit := defaultMemoLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = min(n, maxMemoLimit)
	}
	return limit
}
