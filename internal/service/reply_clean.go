package service

import (
	"regexp"
	"strings"
)

var (
	replyFenceStart = regexp.MustCompile("(?is)^\\s*```[a-z]*\\s*")
	replyFenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
	replyThinkBlock = regexp.MustCompile("(?is)<think>.*?</think>")
	replyRolePrefix = regexp.MustCompile(`(?i)^\s*(assistant|lumora)\s*:\s*`)
)

// cleanGeneratedReply quita BOM, fences ``` ... ```, bloques <think> y un prefijo de rol,
// dejando solo el texto que ve el usuario.
func cleanGeneratedReply(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\uFEFF")
	s = replyThinkBlock.ReplaceAllString(s, "")

	if replyFenceStart.MatchString(s) && replyFenceEnd.MatchString(s) {
		s = replyFenceStart.ReplaceAllString(s, "")
		s = replyFenceEnd.ReplaceAllString(s, "")
	}
	s = replyRolePrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
