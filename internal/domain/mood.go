package domain

import "time"

const (
	MoodMin = 1
	MoodMax = 5
)

// MoodEntry es un registro de animo producido por el flujo de check-in.
type MoodEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      int       `json:"mood"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var moodLabels = [...]string{"Very Sad", "Sad", "Neutral", "Happy", "Very Happy"}

// ValidMood verifica que el valor este en la escala 1-5.
func ValidMood(mood int) bool {
	return mood >= MoodMin && mood <= MoodMax
}

// MoodLabel devuelve la etiqueta legible de un valor de animo, o "Unknown" si esta fuera de escala.
func MoodLabel(mood int) string {
	if !ValidMood(mood) {
		return "Unknown"
	}
	return moodLabels[mood-MoodMin]
}

// StreakResult describe la racha de un usuario. Available es false cuando no se pudieron leer los registros.
type StreakResult struct {
	UserID    string `json:"user_id"`
	Days      int    `json:"days"`
	Available bool   `json:"available"`
}
