package service

import (
	"time"

	"lumora/internal/domain"
)

// ComputeStreak cuenta dias calendario consecutivos con al menos un registro, terminando hoy o ayer.
// entries debe venir ordenado por CreatedAt descendente; las fechas se toman en la zona horaria de now.
// Es una funcion pura: no consulta almacenamiento ni reloj.
func ComputeStreak(entries []domain.MoodEntry, now time.Time) int {
	if len(entries) == 0 {
		return 0
	}

	loc := now.Location()
	today := civilDay(now, loc)
	lastDate := civilDay(entries[0].CreatedAt, loc)

	// Sin check-in hoy ni ayer la racha esta rota.
	if gap := daysBetween(lastDate, today); gap != 0 && gap != 1 {
		return 0
	}

	streak := 1
	for _, entry := range entries[1:] {
		day := civilDay(entry.CreatedAt, loc)
		diff := daysBetween(day, lastDate)
		switch {
		case diff == 1:
			streak++
			lastDate = day
		case diff > 1:
			return streak
		default:
			// Mismo dia (o un registro fuera de orden): no suma ni corta.
		}
	}
	return streak
}

// civilDay normaliza t a la medianoche UTC de su fecha calendario en loc, para restar sin efectos de DST.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween devuelve later - earlier en dias enteros.
func daysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}
