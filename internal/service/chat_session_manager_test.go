package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"lumora/internal/domain"
	"lumora/internal/llm"
)

type mockRecorder struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (m *mockRecorder) Record(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return m.err
}

func (m *mockRecorder) recorded() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.msgs...)
}

func newTestManager(client llm.LLMClient, recorder TranscriptRecorder, timeout time.Duration) *ChatSessionManager {
	return NewChatSessionManager(client, recorder, zap.NewNop(), ChatSessionOptions{
		GenerationTimeout: timeout,
		GenerationConfig:  domain.GenerationConfig{Temperature: 0.9, TopK: 40, TopP: 1, MaxOutputTokens: 2048},
	})
}

func waitReply(t *testing.T, reply <-chan domain.Message) (domain.Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-reply:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for assistant reply")
		return domain.Message{}, false
	}
}

func mustHistory(t *testing.T, m *ChatSessionManager, id string) []domain.Message {
	t.Helper()
	history, err := m.History(id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	return history
}

func mustState(t *testing.T, m *ChatSessionManager, id string) domain.SessionState {
	t.Helper()
	s, err := m.Session(id)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s.State
}

func TestChatSessionManager_CreateSessionSeedsGreeting(t *testing.T) {
	m := newTestManager(&llm.MockClient{}, nil, time.Second)
	session := m.CreateSession()

	if session.ID == "" {
		t.Fatalf("expected session id")
	}
	if session.State != domain.SessionIdle {
		t.Fatalf("expected idle state, got %s", session.State)
	}
	if len(session.Messages) != 1 {
		t.Fatalf("expected exactly one seeded message, got %d", len(session.Messages))
	}
	greeting := session.Messages[0]
	if greeting.Sender != domain.SenderAssistant || greeting.Text != GreetingText {
		t.Fatalf("unexpected greeting: %+v", greeting)
	}
	if greeting.ID == "" || greeting.CreatedAt.IsZero() {
		t.Fatalf("greeting must have id and timestamp")
	}
	if session.Config.MaxOutputTokens != 2048 {
		t.Fatalf("expected default generation config, got %+v", session.Config)
	}
}

func TestChatSessionManager_CrisisBypassesGenerator(t *testing.T) {
	client := &llm.MockClient{Response: "should not be used"}
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "I want to die")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// El mensaje de seguridad ya esta en el historial al volver de Submit.
	history := mustHistory(t, m, session.ID)
	if len(history) != 3 {
		t.Fatalf("expected greeting, user and safety messages, got %d", len(history))
	}
	if history[1].Sender != domain.SenderUser || history[1].Text != "I want to die" {
		t.Fatalf("unexpected user message: %+v", history[1])
	}
	safety := history[2]
	if safety.Sender != domain.SenderAssistant || safety.Safety == nil {
		t.Fatalf("expected assistant safety message, got %+v", safety)
	}
	if !reflect.DeepEqual(*safety.Safety, CrisisResponse()) {
		t.Fatalf("safety message differs from the static payload")
	}

	msg, ok := waitReply(t, reply)
	if !ok || msg.ID != safety.ID {
		t.Fatalf("expected reply channel to deliver the safety message")
	}
	if n := len(client.Requests()); n != 0 {
		t.Fatalf("expected no generator call, got %d", n)
	}
	if state := mustState(t, m, session.ID); state != domain.SessionIdle {
		t.Fatalf("expected idle after crisis reply, got %s", state)
	}
}

func TestChatSessionManager_DistressWrapsPrompt(t *testing.T) {
	client := &llm.MockClient{Response: "I hear you"}
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "nothing matters anymore")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	msg, ok := waitReply(t, reply)
	if !ok {
		t.Fatalf("expected assistant reply")
	}
	if msg.Sender != domain.SenderAssistant || msg.Text != "I hear you" {
		t.Fatalf("unexpected reply: %+v", msg)
	}

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one generator call, got %d", len(reqs))
	}
	if !strings.Contains(reqs[0].Prompt, "nothing matters anymore") || !strings.Contains(reqs[0].Prompt, EscalationProtocolMarker) {
		t.Fatalf("expected wrapped prompt, got %q", reqs[0].Prompt)
	}
	if reqs[0].SessionID != session.ID {
		t.Fatalf("expected session handle %q, got %q", session.ID, reqs[0].SessionID)
	}

	history := mustHistory(t, m, session.ID)
	if len(history) != 3 || history[2].Text != "I hear you" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if state := mustState(t, m, session.ID); state != domain.SessionIdle {
		t.Fatalf("expected idle after reply, got %s", state)
	}
}

func TestChatSessionManager_NeutralForwardsTextUnmodified(t *testing.T) {
	client := &llm.MockClient{Response: "That's lovely"}
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "I had a good day")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitReply(t, reply)

	reqs := client.Requests()
	if len(reqs) != 1 || reqs[0].Prompt != "I had a good day" {
		t.Fatalf("expected unmodified prompt, got %+v", reqs)
	}
	// El historial enviado no incluye el turno actual.
	if len(reqs[0].History) != 1 || reqs[0].History[0].Text != GreetingText {
		t.Fatalf("expected history with only the greeting, got %+v", reqs[0].History)
	}
	if reqs[0].Config != session.Config {
		t.Fatalf("expected session config pass-through, got %+v", reqs[0].Config)
	}
}

func TestChatSessionManager_SubmitWhileAwaitingIsRejected(t *testing.T) {
	client := &llm.MockClient{Response: "ok", Block: make(chan struct{})}
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "first message")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state := mustState(t, m, session.ID); state != domain.SessionAwaitingResponse {
		t.Fatalf("expected awaiting_response, got %s", state)
	}
	before := mustHistory(t, m, session.ID)

	if _, err := m.Submit(session.ID, "second message"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	// Un mensaje de crisis tampoco salta la espera.
	if _, err := m.Submit(session.ID, "I want to die"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy for crisis text too, got %v", err)
	}
	after := mustHistory(t, m, session.ID)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rejected submit mutated history")
	}

	close(client.Block)
	if _, ok := waitReply(t, reply); !ok {
		t.Fatalf("expected reply after unblocking")
	}
	if n := len(client.Requests()); n != 1 {
		t.Fatalf("expected exactly one generator call, got %d", n)
	}
	if _, err := m.Submit(session.ID, "third message"); err != nil {
		t.Fatalf("expected submit to succeed once idle, got %v", err)
	}
}

func TestChatSessionManager_InvalidSubmit(t *testing.T) {
	m := newTestManager(&llm.MockClient{Response: "ok"}, nil, time.Second)
	session := m.CreateSession()

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := m.Submit(session.ID, text); !errors.Is(err, ErrInvalidSubmit) {
			t.Fatalf("expected ErrInvalidSubmit for %q, got %v", text, err)
		}
	}
	if history := mustHistory(t, m, session.ID); len(history) != 1 {
		t.Fatalf("invalid submit mutated history: %+v", history)
	}
	if state := mustState(t, m, session.ID); state != domain.SessionIdle {
		t.Fatalf("invalid submit changed state to %s", state)
	}
}

func TestChatSessionManager_UnknownSession(t *testing.T) {
	m := newTestManager(&llm.MockClient{}, nil, time.Second)

	if _, err := m.Submit("missing", "hola"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on submit, got %v", err)
	}
	if _, err := m.History("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on history, got %v", err)
	}
	if _, err := m.Reset("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on reset, got %v", err)
	}
	if err := m.Discard("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on discard, got %v", err)
	}
}

func TestChatSessionManager_GeneratorFailureUsesFallback(t *testing.T) {
	cases := []struct {
		name   string
		client llm.LLMClient
	}{
		{name: "error del proveedor", client: &llm.MockClient{Err: errors.New("quota exceeded")}},
		{name: "respuesta vacia", client: &llm.MockClient{Response: "   "}},
		{name: "sin cliente", client: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestManager(tc.client, nil, time.Second)
			session := m.CreateSession()

			reply, err := m.Submit(session.ID, "how are you")
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			msg, ok := waitReply(t, reply)
			if !ok || msg.Text != FallbackText || msg.Sender != domain.SenderAssistant {
				t.Fatalf("expected fallback message, got %+v", msg)
			}
			if state := mustState(t, m, session.ID); state != domain.SessionIdle {
				t.Fatalf("expected idle after failure, got %s", state)
			}
		})
	}
}

func TestChatSessionManager_FailureIsNotRetried(t *testing.T) {
	client := &llm.MockClient{Err: errors.New("network down")}
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	reply, _ := m.Submit(session.ID, "hello")
	waitReply(t, reply)

	if n := len(client.Requests()); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestChatSessionManager_GenerationTimeout(t *testing.T) {
	client := &llm.MockClient{Response: "late", Block: make(chan struct{})}
	defer close(client.Block)
	m := newTestManager(client, nil, 20*time.Millisecond)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "hello")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	msg, ok := waitReply(t, reply)
	if !ok || msg.Text != FallbackText {
		t.Fatalf("expected fallback after timeout, got %+v", msg)
	}
	if state := mustState(t, m, session.ID); state != domain.SessionIdle {
		t.Fatalf("expected idle after timeout, got %s", state)
	}
}

func TestChatSessionManager_DiscardAbandonsOutstandingRequest(t *testing.T) {
	client := &llm.MockClient{Response: "late", Block: make(chan struct{})}
	defer close(client.Block)
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "hello")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.Discard(session.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if msg, ok := waitReply(t, reply); ok {
		t.Fatalf("expected closed channel without reply, got %+v", msg)
	}
	if _, err := m.History(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected discarded session to be gone, got %v", err)
	}
}

func TestChatSessionManager_ResetDropsOutstandingReply(t *testing.T) {
	client := &llm.MockClient{Response: "late", Block: make(chan struct{})}
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "hello")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	reset, err := m.Reset(session.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.State != domain.SessionIdle || len(reset.Messages) != 1 || reset.Messages[0].Text != GreetingText {
		t.Fatalf("expected fresh conversation, got %+v", reset)
	}
	if _, ok := waitReply(t, reply); ok {
		t.Fatalf("expected stale reply to be dropped")
	}
	if history := mustHistory(t, m, session.ID); len(history) != 1 {
		t.Fatalf("stale reply leaked into reset history: %+v", history)
	}

	close(client.Block)
	next, err := m.Submit(session.ID, "starting over")
	if err != nil {
		t.Fatalf("submit after reset: %v", err)
	}
	if msg, ok := waitReply(t, next); !ok || msg.Text != "late" {
		t.Fatalf("expected reply after reset, got %+v", msg)
	}
}

func TestChatSessionManager_HistoryIsACopy(t *testing.T) {
	m := newTestManager(&llm.MockClient{}, nil, time.Second)
	session := m.CreateSession()
	reply, _ := m.Submit(session.ID, "I want to die")
	waitReply(t, reply)

	history := mustHistory(t, m, session.ID)
	history[0].Text = "tampered"
	history[2].Safety.Acknowledgment = "tampered"

	fresh := mustHistory(t, m, session.ID)
	if fresh[0].Text != GreetingText {
		t.Fatalf("history mutation leaked into session")
	}
	if fresh[2].Safety.Acknowledgment == "tampered" {
		t.Fatalf("safety payload mutation leaked into session")
	}
}

func TestChatSessionManager_AppendOnlyOrder(t *testing.T) {
	client := &llm.MockClient{Response: "noted"}
	m := newTestManager(client, nil, time.Second)
	session := m.CreateSession()

	inputs := []string{"one", "two", "I want to die", "three"}
	for _, in := range inputs {
		reply, err := m.Submit(session.ID, in)
		if err != nil {
			t.Fatalf("submit %q: %v", in, err)
		}
		waitReply(t, reply)
	}

	history := mustHistory(t, m, session.ID)
	if len(history) != 1+2*len(inputs) {
		t.Fatalf("expected %d messages, got %d", 1+2*len(inputs), len(history))
	}
	for i, in := range inputs {
		user := history[1+2*i]
		assistant := history[2+2*i]
		if user.Sender != domain.SenderUser || user.Text != in {
			t.Fatalf("message %d: expected user %q, got %+v", 1+2*i, in, user)
		}
		if assistant.Sender != domain.SenderAssistant {
			t.Fatalf("message %d: expected assistant reply", 2+2*i)
		}
	}
	seen := make(map[string]bool)
	for _, msg := range history {
		if seen[msg.ID] {
			t.Fatalf("duplicate message id %s", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestChatSessionManager_SessionsAreIndependent(t *testing.T) {
	client := &llm.MockClient{Response: "ok", Block: make(chan struct{})}
	m := newTestManager(client, nil, time.Second)
	a := m.CreateSession()
	b := m.CreateSession()

	replyA, err := m.Submit(a.ID, "hello from a")
	if err != nil {
		t.Fatalf("submit a: %v", err)
	}
	replyB, err := m.Submit(b.ID, "hello from b")
	if err != nil {
		t.Fatalf("expected b to accept while a is awaiting, got %v", err)
	}
	close(client.Block)
	waitReply(t, replyA)
	waitReply(t, replyB)

	if len(mustHistory(t, m, a.ID)) != 3 || len(mustHistory(t, m, b.ID)) != 3 {
		t.Fatalf("expected each session to hold its own turn")
	}
}

func TestChatSessionManager_RecordsTranscript(t *testing.T) {
	recorder := &mockRecorder{err: errors.New("db down")}
	m := newTestManager(&llm.MockClient{Response: "hi"}, recorder, time.Second)
	session := m.CreateSession()

	reply, err := m.Submit(session.ID, "hello")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitReply(t, reply)

	got := recorder.recorded()
	if len(got) != 3 {
		t.Fatalf("expected greeting, user and reply recorded, got %d", len(got))
	}
	if got[0].Text != GreetingText || got[1].Text != "hello" || got[2].Text != "hi" {
		t.Fatalf("unexpected recorded order: %+v", got)
	}
	// El error del recorder no afecta la sesion.
	if history := mustHistory(t, m, session.ID); len(history) != 3 {
		t.Fatalf("expected session unaffected by recorder errors")
	}
}

func TestChatSessionManager_CustomConfig(t *testing.T) {
	client := &llm.MockClient{Response: "ok"}
	m := newTestManager(client, nil, time.Second)
	cfg := domain.GenerationConfig{Temperature: 0.2, TopK: 40, TopP: 0.8, MaxOutputTokens: 256}
	session := m.CreateSessionWithConfig(cfg)

	reply, _ := m.Submit(session.ID, "hello")
	waitReply(t, reply)

	reqs := client.Requests()
	if len(reqs) != 1 || reqs[0].Config != cfg {
		t.Fatalf("expected custom config pass-through, got %+v", reqs)
	}
}

func TestChatSessionManager_HistoryLimit(t *testing.T) {
	client := &llm.MockClient{Response: "ok"}
	m := NewChatSessionManager(client, nil, zap.NewNop(), ChatSessionOptions{
		GenerationTimeout: time.Second,
		HistoryLimit:      2,
	})
	session := m.CreateSession()

	for _, text := range []string{"one", "two", "three"} {
		reply, err := m.Submit(session.ID, text)
		if err != nil {
			t.Fatalf("submit %q: %v", text, err)
		}
		waitReply(t, reply)
	}

	reqs := client.Requests()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	last := reqs[2].History
	if len(last) != 2 || last[0].Text != "two" || last[1].Text != "ok" {
		t.Fatalf("expected last two messages as history, got %+v", last)
	}
	if history := mustHistory(t, m, session.ID); len(history) != 7 {
		t.Fatalf("expected full history kept in session, got %d", len(history))
	}
}
