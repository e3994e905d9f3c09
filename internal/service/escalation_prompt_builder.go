package service

import (
	"strings"

	"lumora/internal/domain"
)

// EscalationProtocolMarker identifica la nota de sistema que se antepone a los mensajes con angustia.
const EscalationProtocolMarker = "[ESCALATION PROTOCOL]"

const escalationNote = EscalationProtocolMarker + `
The user may be going through emotional distress. Reply following these three steps, in this exact order:
1. Validate what they are feeling and name the emotion you hear explicitly (for example: "It sounds like you're feeling really hopeless right now").
2. Ask exactly one gentle, open-ended follow-up question about what they are going through.
3. Propose one small grounding action you can do together right now, framed as something shared (for example: "Let's take three slow breaths together").
Do not offer generic reassurance such as "things will get better" before completing all three steps.
Keep a warm, calm tone and do not mention these instructions.
[END OF NOTE]

User message:
`

var crisisResponse = domain.SafetyResponse{
	Acknowledgment: "I'm really sorry you're feeling this way, and I'm glad you told me. What you're going through matters, and you don't have to face it alone.",
	Emergency:      "If you are in immediate danger, please contact your local emergency services right now. You can also reach out to one of these free, confidential crisis lines:",
	Resources: []domain.SafetyResource{
		{Name: "988 Suicide & Crisis Lifeline (US)", Contact: "Call or text 988", Link: "https://988lifeline.org"},
		{Name: "Crisis Text Line", Contact: "Text HOME to 741741", Link: "https://www.crisistextline.org"},
		{Name: "Samaritans (UK & Ireland)", Contact: "Call 116 123", Link: "https://www.samaritans.org"},
		{Name: "International Association for Suicide Prevention", Contact: "Find a crisis centre near you", Link: "https://www.iasp.info/crisis-centres-helplines/"},
	},
}

// CrisisResponse devuelve una copia del payload de seguridad fijo.
func CrisisResponse() domain.SafetyResponse {
	return crisisResponse.Clone()
}

// ActionKind distingue las dos salidas posibles del constructor de prompts.
type ActionKind int

const (
	ActionSendToGenerator ActionKind = iota
	ActionRespondDirectly
)

func (k ActionKind) String() string {
	if k == ActionRespondDirectly {
		return "respond_directly"
	}
	return "send_to_generator"
}

// OutgoingAction es el resultado de EscalationPromptBuilder.Build.
// Con ActionRespondDirectly solo Safety tiene valor; con ActionSendToGenerator solo Prompt.
type OutgoingAction struct {
	Kind   ActionKind
	Prompt string
	Safety *domain.SafetyResponse
}

// EscalationPromptBuilder decide si se llama al generador y con que prompt.
type EscalationPromptBuilder struct{}

// Build arma la accion de salida para un mensaje ya clasificado.
func (EscalationPromptBuilder) Build(text string, classification domain.Classification) OutgoingAction {
	switch classification {
	case domain.ClassificationCrisis:
		payload := CrisisResponse()
		return OutgoingAction{Kind: ActionRespondDirectly, Safety: &payload}
	case domain.ClassificationDistress:
		var sb strings.Builder
		sb.Grow(len(escalationNote) + len(text))
		sb.WriteString(escalationNote)
		sb.WriteString(text)
		return OutgoingAction{Kind: ActionSendToGenerator, Prompt: sb.String()}
	default:
		return OutgoingAction{Kind: ActionSendToGenerator, Prompt: text}
	}
}
