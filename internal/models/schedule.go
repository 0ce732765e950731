package models

// Symbolic day indicators emitted by the extraction model.
const (
	DayToday    = "today"
	DayTomorrow = "tomorrow"
	DayDate     = "date"
)

const (
	DefaultTitle = "Tanpa Judul"
	DefaultTime  = "00:00"
)

// Schedule is one stored event. Tanggal is always an absolute YYYY-MM-DD date.
type Schedule struct {
	ID      int64  `json:"id"`
	Judul   string `json:"judul"`
	Tanggal string `json:"tanggal"`
	Jam     string `json:"jam"`
}

// ExtractedItem is a raw candidate returned by the model, before date resolution.
type ExtractedItem struct {
	Judul   string `json:"judul"`
	Hari    string `json:"hari"`
	Tanggal string `json:"tanggal"`
	Jam     string `json:"jam"`
}

// WithDefaults fills the fields the model is allowed to omit.
func (it ExtractedItem) WithDefaults() ExtractedItem {
	if it.Judul == "" {
		it.Judul = DefaultTitle
	}
	if it.Hari == "" {
		it.Hari = DayToday
	}
	if it.Jam == "" {
		it.Jam = DefaultTime
	}
	return it
}

// ResolvedItem is what the create route reports back for each stored entry.
type ResolvedItem struct {
	ID      int64  `json:"id"`
	Judul   string `json:"judul"`
	Hari    string `json:"hari"`
	Tanggal string `json:"tanggal"`
	Jam     string `json:"jam"`
}
