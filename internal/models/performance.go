package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Performance records one musician playing one instrument on one song.
// The (song, musician, instrument) triple is unique. Deleting a song
// removes its performances; musicians and instruments are restricted
// while performances reference them.
type Performance struct {
	ID           int64   `json:"id"`
	SongID       int64   `json:"songId"`
	SongTitle    string  `json:"songTitle,omitempty"`
	MusicianID   int64   `json:"musicianId"`
	Musician     string  `json:"musician,omitempty"` // formal name
	InstrumentID int64   `json:"instrumentId"`
	Instrument   string  `json:"instrument,omitempty"`
	FeePaid      float64 `json:"feePaid"`
	Comments     string  `json:"comments,omitempty"`
	RowVersion   Version `json:"rowVersion"`
}

// Validate applies the field rules.
func (p *Performance) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.SongID,
			validation.Required.Error("You must select the Song.")),
		validation.Field(&p.MusicianID,
			validation.Required.Error("You must select the Musician.")),
		validation.Field(&p.InstrumentID,
			validation.Required.Error("You must select the Instrument.")),
		validation.Field(&p.FeePaid,
			validation.Min(0.0).Error("The fee paid cannot be negative.")),
		validation.Field(&p.Comments,
			validation.Length(0, 2000).Error("Comments cannot be more than 2000 characters.")),
	)
}

// PerformanceSummary aggregates fees per musician for the report
// endpoint.
type PerformanceSummary struct {
	MusicianID   int64   `json:"musicianId"`
	FormalName   string  `json:"musician"`
	Performances int     `json:"performances"`
	AverageFee   float64 `json:"averageFee"`
	HighestFee   float64 `json:"highestFee"`
	LowestFee    float64 `json:"lowestFee"`
}
