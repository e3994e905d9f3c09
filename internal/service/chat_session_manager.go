package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumora/internal/domain"
	"lumora/internal/llm"
	"lumora/internal/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSubmit   = errors.New("submit text is empty")
	ErrSessionBusy     = errors.New("session is awaiting a response")
)

const (
	// GreetingText es el primer mensaje de toda sesion nueva.
	GreetingText = "Hi there! I'm here to listen and support you. How are you feeling today? What's on your mind?"
	// FallbackText reemplaza cualquier error del servicio de generacion.
	FallbackText = "I'm sorry, I'm having trouble responding right now. Please try again in a moment. If you need support right away, reach out to someone you trust or a local crisis line."

	defaultGenerationTimeout = 30 * time.Second
	recordTimeout            = 2 * time.Second
)

// TranscriptRecorder recibe cada mensaje que se agrega a una sesion.
// Es best-effort: un error se loguea y no afecta a la conversacion.
type TranscriptRecorder interface {
	Record(ctx context.Context, msg domain.Message) error
}

// ChatSessionOptions ajusta el comportamiento del manager.
type ChatSessionOptions struct {
	// GenerationTimeout acota cada llamada al generador; al vencer se toma el camino de fallback.
	GenerationTimeout time.Duration
	// GenerationConfig es la configuracion por defecto de las sesiones nuevas.
	GenerationConfig domain.GenerationConfig
	// HistoryLimit acota cuantos mensajes previos viajan al generador. 0 envia todo el historial.
	HistoryLimit int
}

// ChatSessionManager mantiene el historial ordenado y el turno de cada conversacion.
type ChatSessionManager struct {
	llmClient llm.LLMClient
	builder   EscalationPromptBuilder
	recorder  TranscriptRecorder
	logger    *zap.Logger
	timeout   time.Duration
	config    domain.GenerationConfig
	window    int
	now       func() time.Time
	newID     func() string

	mu       sync.RWMutex
	sessions map[string]*chatSession
}

// chatSession guarda el estado mutable de una conversacion. El mutex solo protege memoria;
// el unico pedido en vuelo lo garantiza state.
type chatSession struct {
	mu        sync.Mutex
	id        string
	state     domain.SessionState
	config    domain.GenerationConfig
	messages  []domain.Message
	createdAt time.Time
	// epoch cambia en Reset y Discard; una respuesta de un epoch viejo se descarta.
	epoch  uint64
	ctx    context.Context
	cancel context.CancelFunc
}

func NewChatSessionManager(llmClient llm.LLMClient, recorder TranscriptRecorder, logger *zap.Logger, opts ChatSessionOptions) *ChatSessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = defaultGenerationTimeout
	}
	return &ChatSessionManager{
		llmClient: llmClient,
		recorder:  recorder,
		logger:    logger,
		timeout:   opts.GenerationTimeout,
		config:    opts.GenerationConfig,
		window:    opts.HistoryLimit,
		now:       time.Now,
		newID:     newMessageID,
		sessions:  make(map[string]*chatSession),
	}
}

// CreateSession abre una conversacion con la configuracion por defecto.
func (m *ChatSessionManager) CreateSession() domain.ChatSession {
	return m.CreateSessionWithConfig(m.config)
}

// CreateSessionWithConfig abre una conversacion sembrada con el saludo del asistente.
func (m *ChatSessionManager) CreateSessionWithConfig(cfg domain.GenerationConfig) domain.ChatSession {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	sess := &chatSession{
		id:        id,
		state:     domain.SessionIdle,
		config:    cfg,
		createdAt: m.now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
	}
	greeting := m.newMessage(id, domain.SenderAssistant, GreetingText, nil)
	sess.messages = []domain.Message{greeting}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	metrics.SessionOpened()

	m.record(greeting)
	m.logger.Info("chat session created", zap.String("session_id", id))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot()
}

// Submit agrega el mensaje del usuario y dispara la respuesta del asistente.
// El canal devuelto recibe el mensaje del asistente cuando existe y luego se cierra; se cierra
// sin valor si la sesion se descarta o reinicia antes. Los rechazos no modifican la sesion.
func (m *ChatSessionManager) Submit(sessionID, text string) (<-chan domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		metrics.SubmitRejected("empty")
		return nil, ErrInvalidSubmit
	}
	sess, ok := m.lookup(sessionID)
	if !ok {
		metrics.SubmitRejected("not_found")
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.state == domain.SessionAwaitingResponse {
		sess.mu.Unlock()
		metrics.SubmitRejected("busy")
		return nil, ErrSessionBusy
	}

	history := append([]domain.Message(nil), recentMessages(sess.messages, m.window)...)
	userMsg := m.newMessage(sess.id, domain.SenderUser, text, nil)
	sess.messages = append(sess.messages, userMsg)

	classification := ClassifyMessage(text)
	metrics.ObserveClassification(string(classification))
	action := m.builder.Build(text, classification)

	reply := make(chan domain.Message, 1)

	if action.Kind == ActionRespondDirectly {
		safetyMsg := m.newMessage(sess.id, domain.SenderAssistant, action.Safety.PlainText(), action.Safety)
		sess.messages = append(sess.messages, safetyMsg)
		sess.mu.Unlock()

		m.logger.Warn("crisis classification, safety response sent", zap.String("session_id", sess.id))
		m.record(userMsg)
		m.record(safetyMsg)
		reply <- safetyMsg
		close(reply)
		return reply, nil
	}

	sess.state = domain.SessionAwaitingResponse
	genCtx, cancel := context.WithTimeout(sess.ctx, m.timeout)
	epoch := sess.epoch
	req := llm.GenerationRequest{
		SessionID: sess.id,
		Prompt:    action.Prompt,
		History:   history,
		Config:    sess.config,
	}
	sess.mu.Unlock()

	m.logger.Info("generation requested",
		zap.String("session_id", sess.id),
		zap.String("classification", string(classification)),
	)
	m.record(userMsg)

	go m.generate(genCtx, cancel, sess, epoch, req, reply)
	return reply, nil
}

func (m *ChatSessionManager) generate(ctx context.Context, cancel context.CancelFunc, sess *chatSession, epoch uint64, req llm.GenerationRequest, reply chan<- domain.Message) {
	defer cancel()
	defer close(reply)

	start := time.Now()
	text, err := m.callGenerator(ctx, req)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		m.logger.Warn("generation failed, using fallback",
			zap.String("session_id", req.SessionID),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		text = FallbackText
	}
	metrics.ObserveGeneration(outcome, time.Since(start))

	msg := m.newMessage(req.SessionID, domain.SenderAssistant, text, nil)

	sess.mu.Lock()
	if sess.epoch != epoch {
		sess.mu.Unlock()
		m.logger.Info("generation result dropped for discarded conversation", zap.String("session_id", req.SessionID))
		return
	}
	sess.messages = append(sess.messages, msg)
	sess.state = domain.SessionIdle
	sess.mu.Unlock()

	m.record(msg)
	reply <- msg
}

func (m *ChatSessionManager) callGenerator(ctx context.Context, req llm.GenerationRequest) (string, error) {
	if m.llmClient == nil {
		return "", errors.New("llm client not configured")
	}
	text, err := m.llmClient.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text = cleanGeneratedReply(text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// History devuelve una copia del historial en orden de conversacion.
func (m *ChatSessionManager) History(sessionID string) ([]domain.Message, error) {
	sess, ok := m.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return copyMessages(sess.messages), nil
}

// Session devuelve una vista de la sesion, incluyendo su estado de turno.
func (m *ChatSessionManager) Session(sessionID string) (domain.ChatSession, error) {
	sess, ok := m.lookup(sessionID)
	if !ok {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Reset reinicia la conversacion: abandona el pedido en vuelo y vuelve a sembrar el saludo.
func (m *ChatSessionManager) Reset(sessionID string) (domain.ChatSession, error) {
	sess, ok := m.lookup(sessionID)
	if !ok {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	greeting := m.newMessage(sess.id, domain.SenderAssistant, GreetingText, nil)

	sess.mu.Lock()
	sess.cancel()
	sess.ctx, sess.cancel = context.WithCancel(context.Background())
	sess.epoch++
	sess.state = domain.SessionIdle
	sess.messages = []domain.Message{greeting}
	snap := sess.snapshot()
	sess.mu.Unlock()

	m.record(greeting)
	m.logger.Info("chat session reset", zap.String("session_id", sess.id))
	return snap, nil
}

// Discard elimina la sesion y cancela cualquier pedido en vuelo; su resultado se ignora.
func (m *ChatSessionManager) Discard(sessionID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	sess.epoch++
	sess.cancel()
	sess.mu.Unlock()

	metrics.SessionClosed()
	m.logger.Info("chat session discarded", zap.String("session_id", sessionID))
	return nil
}

func (m *ChatSessionManager) lookup(sessionID string) (*chatSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[strings.TrimSpace(sessionID)]
	return sess, ok
}

func (m *ChatSessionManager) newMessage(sessionID string, sender domain.Sender, text string, safety *domain.SafetyResponse) domain.Message {
	return domain.Message{
		ID:        m.newID(),
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		Safety:    safety,
		CreatedAt: m.now().UTC(),
	}
}

func (m *ChatSessionManager) record(msg domain.Message) {
	if m.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := m.recorder.Record(ctx, msg); err != nil {
		m.logger.Warn("transcript record failed",
			zap.String("session_id", msg.SessionID),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

// snapshot requiere sess.mu tomado.
func (s *chatSession) snapshot() domain.ChatSession {
	return domain.ChatSession{
		ID:        s.id,
		State:     s.state,
		Config:    s.config,
		Messages:  copyMessages(s.messages),
		CreatedAt: s.createdAt,
	}
}

func copyMessages(in []domain.Message) []domain.Message {
	out := make([]domain.Message, len(in))
	copy(out, in)
	for i := range out {
		if out[i].Safety != nil {
			safety := out[i].Safety.Clone()
			out[i].Safety = &safety
		}
	}
	return out
}

// newMessageID usa UUIDv7 para que los IDs crezcan con el tiempo.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
