package domain

// Classification es la categoria de triaje de un mensaje. Se deriva en cada mensaje y no se persiste.
type Classification string

const (
	ClassificationCrisis   Classification = "crisis"
	ClassificationDistress Classification = "distress"
	ClassificationNeutral  Classification = "neutral"
)
