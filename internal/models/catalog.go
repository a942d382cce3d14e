package models

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Genre classifies albums and, optionally, songs. Deletion is
// restricted while any album references it.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Validate applies the field rules.
func (g *Genre) Validate() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.Name,
			validation.Required.Error("You cannot leave the genre name blank."),
			validation.Length(1, 50).Error("Genre name cannot be more than 50 characters long.")),
	)
}

// Album is a produced record. Deletion is restricted while any song
// references it.
type Album struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	YearProduced string  `json:"yearProduced"`
	Price        float64 `json:"price"`
	GenreID      int64   `json:"genreId"`
	Genre        string  `json:"genre,omitempty"` // joined display name
	RowVersion   Version `json:"rowVersion"`
}

// Validate applies the field rules.
func (a *Album) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name,
			validation.Required.Error("You cannot leave the album name blank."),
			validation.Length(1, 50).Error("Album name cannot be more than 50 characters long.")),
		validation.Field(&a.YearProduced,
			validation.Required.Error("You must enter the year the album was produced."),
			validation.Match(yearPattern).Error("Enter a valid 4-digit year.")),
		validation.Field(&a.Price,
			validation.Min(0.0).Error("Price cannot be negative.")),
		validation.Field(&a.GenreID,
			validation.Required.Error("You must select the Genre.")),
	)
}

// Song belongs to an album, optionally tagged with a genre. The title
// is unique within its album; performances cascade when a song is
// deleted.
type Song struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	DateRecorded string  `json:"dateRecorded"` // yyyy-mm-dd
	AlbumID      int64   `json:"albumId"`
	Album        string  `json:"album,omitempty"` // joined display name
	GenreID      *int64  `json:"genreId,omitempty"`
	Genre        string  `json:"genre,omitempty"` // joined display name
	RowVersion   Version `json:"rowVersion"`
}

// Validate applies the field rules.
func (s *Song) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Title,
			validation.Required.Error("You cannot leave the Song title blank."),
			validation.Length(1, 80).Error("Song title cannot be more than 80 characters long.")),
		validation.Field(&s.DateRecorded,
			validation.Required.Error("You must enter the Date Recorded."),
			validation.Date(DateLayout).Error("Date recorded must be in yyyy-mm-dd format.")),
		validation.Field(&s.AlbumID,
			validation.Required.Error("You must select the Album.")),
	)
}

// Summary is the song title with its genre in parentheses when tagged.
func (s *Song) Summary() string {
	if s.Genre == "" {
		return s.Title
	}
	return s.Title + " (" + s.Genre + ")"
}
