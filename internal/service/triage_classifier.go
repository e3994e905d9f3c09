package service

import (
	"strings"

	"lumora/internal/domain"
)

// crisisKeywords se evalua antes que distressKeywords; el orden de las tablas es parte del contrato.
var crisisKeywords = []string{
	"kill myself",
	"killing myself",
	"want to die",
	"wanna die",
	"end my life",
	"ending my life",
	"take my own life",
	"suicide",
	"suicidal",
	"self harm",
	"self-harm",
	"hurt myself",
	"cut myself",
	"better off dead",
	"no reason to live",
	"don't want to live",
	"dont want to live",
}

var distressKeywords = []string{
	"hopeless",
	"worthless",
	"nothing matters",
	"no point",
	"pointless",
	"feel empty",
	"so empty",
	"feel numb",
	"feeling numb",
	"so numb",
	"can't go on",
	"cant go on",
	"can't do this anymore",
	"give up on",
	"want to give up",
	"giving up on",
	"i'm a burden",
	"im a burden",
	"trapped",
	"all alone",
	"nobody cares",
	"no one cares",
}

// apostropheNormalizer lleva los apostrofes tipograficos de los teclados moviles al ASCII de las tablas.
var apostropheNormalizer = strings.NewReplacer("\u2019", "'", "\u2018", "'")

// ClassifyMessage mapea texto libre a una categoria de triaje.
// Es una funcion total y determinista: sin estado oculto y sin I/O.
func ClassifyMessage(text string) domain.Classification {
	normalized := apostropheNormalizer.Replace(strings.ToLower(text))
	if normalized == "" {
		return domain.ClassificationNeutral
	}
	if containsAny(normalized, crisisKeywords) {
		return domain.ClassificationCrisis
	}
	if containsAny(normalized, distressKeywords) {
		return domain.ClassificationDistress
	}
	return domain.ClassificationNeutral
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
