package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const (
	timeLayout    = "15:04"
	eventDuration = time.Hour
)

// ExportICS renders all entries as an iCalendar feed. Entries whose stored
// date or time cannot be parsed are skipped.
func (s *Service) ExportICS(ctx context.Context) (string, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//jadwalku//jadwal//ID")

	stamp := s.now().UTC()
	for _, e := range entries {
		start, err := s.startOf(e.Tanggal, e.Jam)
		if err != nil {
			log.Printf("ics export skip jadwal %d: %v", e.ID, err)
			continue
		}
		ev := cal.AddEvent(EventUID(e.ID))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(e.Judul)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(eventDuration))
	}
	return cal.Serialize(), nil
}

// EventUID derives a stable iCalendar UID from an entry id, so re-imported
// feeds update events instead of duplicating them.
func EventUID(id int64) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("jadwalku:jadwal:%d", id))).String() + "@jadwalku"
}

func (s *Service) startOf(tanggal, jam string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, tanggal, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse tanggal %q: %w", tanggal, err)
	}
	if jam == "" {
		return day, nil
	}
	clock, err := time.Parse(timeLayout, jam)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse jam %q: %w", jam, err)
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
}
