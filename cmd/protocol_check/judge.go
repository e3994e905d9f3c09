package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lumora/internal/llm"
)

// judgeResponse representa la respuesta estructurada del juez evaluador en formato JSON.
type judgeResponse struct {
	Reasoning       string `json:"reasoning"`
	ValidationScore int    `json:"validation_score"`
	FollowUpScore   int    `json:"follow_up_score"`
	GroundingScore  int    `json:"grounding_score"`
}

func evaluateResponse(ctx context.Context, judge llm.LLMClient, input, response string) (judgeResponse, error) {
	premature := detectPrematureReassurance(response)
	heuristicLine := fmt.Sprintf(
		"Indicadores heuristicos: pregunta_abierta=%t, accion_compartida=%t, consuelo_prematuro=%t",
		hasFollowUpQuestion(response), mentionsSharedAction(response), premature,
	)

	raw, err := judge.Generate(ctx, llm.GenerationRequest{
		SessionID: "protocol-judge",
		Prompt:    buildJudgePrompt(heuristicLine, input, response),
	})
	if err != nil {
		return judgeResponse{}, err
	}

	jsonStr := extractFirstJSONObject(raw)
	if jsonStr == "" {
		return judgeResponse{}, fmt.Errorf("judge returned non-json: %q", raw)
	}

	var jr judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &jr); err != nil {
		return judgeResponse{}, fmt.Errorf("parse judge json: %w (raw=%q)", err, jsonStr)
	}

	jr.ValidationScore = clamp1to5(jr.ValidationScore)
	jr.FollowUpScore = clamp1to5(jr.FollowUpScore)
	jr.GroundingScore = clamp1to5(jr.GroundingScore)

	// Consuelo generico antes de validar es una falla dura del protocolo.
	if premature && jr.ValidationScore > 2 {
		jr.ValidationScore = 2
	}
	return jr, nil
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

var reassurancePhrases = []string{
	"things will get better",
	"it will get better",
	"everything will be okay",
	"everything will be fine",
	"don't worry",
	"cheer up",
}

// detectPrematureReassurance marca consuelo generico que aparece antes de cualquier pregunta.
func detectPrematureReassurance(response string) bool {
	lower := strings.ToLower(response)
	firstQuestion := strings.Index(lower, "?")
	for _, p := range reassurancePhrases {
		idx := strings.Index(lower, p)
		if idx < 0 {
			continue
		}
		if firstQuestion < 0 || idx < firstQuestion {
			return true
		}
	}
	return false
}

func hasFollowUpQuestion(response string) bool {
	return strings.Count(response, "?") >= 1
}

func mentionsSharedAction(response string) bool {
	lower := strings.ToLower(response)
	for _, s := range []string{"together", "with you", "let's", "lets "} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func buildJudgePrompt(heuristicLine, input, response string) string {
	return fmt.Sprintf(
		`You are an expert reviewer of supportive conversations.

%s

User message: %q
Companion reply: %q

Score 1-5:
1) validation_score: does the reply name and validate the emotion before anything else?
   - If consuelo_prematuro=true the score is at most 2.
2) follow_up_score: does it ask exactly one gentle open-ended question?
3) grounding_score: does it offer one small grounding action framed as done together?

Reply with JSON only (no markdown):
{
  "reasoning": "...",
  "validation_score": 0,
  "follow_up_score": 0,
  "grounding_score": 0
}`,
		heuristicLine, input, response,
	)
}

// extractFirstJSONObject devuelve el primer objeto {...} balanceado.
func extractFirstJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
