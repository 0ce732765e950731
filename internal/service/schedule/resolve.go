package schedule

import (
	"time"

	"jadwalku/internal/models"
)

// DateLayout is the storage format of Schedule.Tanggal.
const DateLayout = "2006-01-02"

// Resolve turns the model's symbolic day indicator into an absolute date.
// It never fails: "date" passes tanggal through untouched (falling back to
// today only when it is empty) and any unknown indicator means today.
func Resolve(hari, tanggal string, today time.Time) string {
	switch hari {
	case models.DayToday:
		return today.Format(DateLayout)
	case models.DayTomorrow:
		return today.AddDate(0, 0, 1).Format(DateLayout)
	case models.DayDate:
		if tanggal == "" {
			return today.Format(DateLayout)
		}
		return tanggal
	default:
		return today.Format(DateLayout)
	}
}
