package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// RecordedRequest is one call the mock server received.
type RecordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// MockDiscordServer creates a test server that mocks Discord REST API responses.
// Handlers are keyed by "METHOD /path"; unmatched requests get 404 Unknown.
type MockDiscordServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewMockDiscordServer creates a new mock Discord API server
func NewMockDiscordServer(t *testing.T) *MockDiscordServer {
	t.Helper()
	m := &MockDiscordServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		handler, ok := m.Handlers[r.Method+" "+r.URL.Path]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"code": 0, "message": "404: Not Found"})
	}))
	t.Cleanup(m.Close)
	return m
}

// APIPath returns the server path discordgo uses for an endpoint suffix such as
// "guilds/1/invites".
func APIPath(suffix string) string {
	return "/api/v" + discordgo.APIVersion + "/" + suffix
}

// Session returns a discordgo session whose REST calls are routed to the mock.
func (m *MockDiscordServer) Session(t *testing.T) *discordgo.Session {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("discordgo.New: %v", err)
	}
	target, _ := url.Parse(m.URL)
	s.Client = &http.Client{Transport: rewriteTransport{target: target}}
	s.MaxRestRetries = 0
	return s
}

type rewriteTransport struct{ target *url.URL }

func (rt rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

// Handle registers a handler for method and API path suffix.
func (m *MockDiscordServer) Handle(method, suffix string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers[method+" "+APIPath(suffix)] = h
}

// JSON registers a fixed JSON response.
func (m *MockDiscordServer) JSON(method, suffix string, status int, body any) {
	m.Handle(method, suffix, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

// NoContent registers a 204 response, the reply to permission edits.
func (m *MockDiscordServer) NoContent(method, suffix string) {
	m.Handle(method, suffix, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// APIError registers a Discord JSON error such as 10003 Unknown Channel.
func (m *MockDiscordServer) APIError(method, suffix string, status, code int, msg string) {
	m.JSON(method, suffix, status, map[string]any{"code": code, "message": msg})
}

// Calls returns the recorded requests for method and API path suffix.
func (m *MockDiscordServer) Calls(method, suffix string) []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := APIPath(suffix)
	var out []RecordedRequest
	for _, r := range m.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // test mock response
}
