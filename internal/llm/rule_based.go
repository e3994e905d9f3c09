package llm

import (
	"context"
	"math/rand"
	"strings"
	"sync"
)

// topicResponse asocia palabras clave con una respuesta empatica fija.
type topicResponse struct {
	keywords []string
	response string
}

var topicResponses = []topicResponse{
	{
		keywords: []string{"sad", "depressed", "down"},
		response: "I hear that you're feeling sad right now, and I want you to know that your feelings are completely valid. It's okay to feel this way. Would you like to try a grounding exercise together, or would you prefer to talk about what's making you feel down?",
	},
	{
		keywords: []string{"anxious", "worried", "stress"},
		response: "Anxiety can feel overwhelming, but you're not alone in this. One technique that might help is the 4-7-8 breathing method: breathe in for 4 counts, hold for 7, then exhale for 8. Would you like to try this together, or tell me more about what's causing your anxiety?",
	},
	{
		keywords: []string{"happy", "good", "great"},
		response: "I'm so glad to hear you're feeling positive! It's wonderful when we can recognize and celebrate these good moments. What's contributing to your happiness today? Sharing positive experiences can help us remember them during tougher times.",
	},
	{
		keywords: []string{"tired", "exhausted", "sleep"},
		response: "Feeling tired can really affect our mood and wellbeing. Are you getting enough rest? Sometimes when we're emotionally drained, it shows up as physical tiredness too. Would you like to talk about what might be contributing to your fatigue?",
	},
	{
		keywords: []string{"help", "support"},
		response: "I'm here to support you in whatever way I can. Whether you need someone to listen, want to explore coping strategies, or just need a safe space to express your thoughts - I'm here. What kind of support would feel most helpful right now?",
	},
}

var defaultResponses = []string{
	"Thank you for sharing that with me. Your feelings and experiences matter. Can you tell me more about what you're going through?",
	"I appreciate you opening up. It takes courage to share our thoughts and feelings. How has this been affecting you?",
	"I'm here to listen without judgment. Your experiences are valid, and I want to understand better. What would be most helpful for you right now?",
	"That sounds like a lot to handle. You're doing well by reaching out and talking about it. How are you taking care of yourself through this?",
	"I hear you. Sometimes just putting our thoughts into words can be helpful. What emotions are coming up for you as you think about this?",
}

// RuleBasedClient es la variante sin IA: responde por palabras clave y, si nada coincide,
// elige una respuesta por defecto con la fuente aleatoria inyectada.
type RuleBasedClient struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRuleBasedClient(rnd *rand.Rand) *RuleBasedClient {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &RuleBasedClient{rnd: rnd}
}

// Generate nunca falla salvo que ctx ya este cancelado.
// Con una nota de escalamiento delante, solo se mira el texto del usuario que viene despues.
func (c *RuleBasedClient) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := req.Prompt
	if idx := strings.LastIndex(text, userMessageMarker); idx >= 0 {
		text = text[idx+len(userMessageMarker):]
	}
	lower := strings.ToLower(text)
	for _, topic := range topicResponses {
		for _, kw := range topic.keywords {
			if strings.Contains(lower, kw) {
				return topic.response, nil
			}
		}
	}

	c.mu.Lock()
	idx := c.rnd.Intn(len(defaultResponses))
	c.mu.Unlock()
	return defaultResponses[idx], nil
}

// userMessageMarker coincide con el cierre de la nota de escalamiento que arma el servicio.
const userMessageMarker = "User message:\n"
