package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the wire and storage format for date-only fields.
const DateLayout = "2006-01-02"

var (
	phonePattern = regexp.MustCompile(`^[2-9]\d{2}[2-9]\d{6}$`)
	sinPattern   = regexp.MustCompile(`^[1-9]\d{8}$`)
)

// Musician is a roster member. SIN is unique across the roster and the
// primary instrument reference is restricted against deletion.
type Musician struct {
	ID           int64   `json:"id"`
	FirstName    string  `json:"firstName"`
	MiddleName   string  `json:"middleName,omitempty"`
	LastName     string  `json:"lastName"`
	Phone        string  `json:"phone"`
	DOB          string  `json:"dob"` // yyyy-mm-dd
	SIN          string  `json:"sin"`
	InstrumentID int64   `json:"instrumentId"`
	Instrument   string  `json:"instrument,omitempty"` // joined display name
	RowVersion   Version `json:"rowVersion"`
	Plays        []Play  `json:"plays,omitempty"`
	HasPhoto     bool    `json:"hasPhoto"`
}

// Validate applies the field rules plus the cross-field date-of-birth
// rules: not in the future and at least seven years old.
func (m *Musician) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.FirstName,
			validation.Required.Error("You cannot leave the first name blank."),
			validation.Length(1, 30).Error("First name cannot be more than 30 characters long.")),
		validation.Field(&m.MiddleName,
			validation.Length(0, 30).Error("Middle name cannot be more than 30 characters long.")),
		validation.Field(&m.LastName,
			validation.Required.Error("You cannot leave the last name blank."),
			validation.Length(1, 50).Error("Last name cannot be more than 50 characters long.")),
		validation.Field(&m.Phone,
			validation.Required.Error("Phone number is required."),
			validation.Match(phonePattern).Error("Enter a valid 10-digit phone number.")),
		validation.Field(&m.SIN,
			validation.Required.Error("You cannot leave the SIN blank."),
			validation.Match(sinPattern).Error("Please enter a valid 9-digit SIN.")),
		validation.Field(&m.DOB,
			validation.Required.Error("You must enter the Date of Birth."),
			validation.By(validateDOB)),
		validation.Field(&m.InstrumentID,
			validation.Required.Error("You must select the principal instrument the musician plays.")),
	)
}

func validateDOB(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil // Required already covers this
	}
	dob, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("date must be in yyyy-mm-dd format")
	}
	today := time.Now()
	if dob.After(today) {
		return fmt.Errorf("Date of Birth cannot be in the future")
	}
	if ageAt(dob, today) < 7 {
		return fmt.Errorf("Musician must be at least 7 years old")
	}
	return nil
}

func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// Age returns the musician's age in whole years, or -1 when the stored
// date does not parse.
func (m *Musician) Age() int {
	dob, err := time.Parse(DateLayout, m.DOB)
	if err != nil {
		return -1
	}
	return ageAt(dob, time.Now())
}

// Summary is "First M. Last" with an uppercased middle initial.
func (m *Musician) Summary() string {
	middle := " "
	if m.MiddleName != "" {
		middle = " " + strings.ToUpper(m.MiddleName[:1]) + ". "
	}
	return m.FirstName + middle + m.LastName
}

// FormalName is "Last, First M." with an uppercased middle initial.
func (m *Musician) FormalName() string {
	name := m.LastName + ", " + m.FirstName
	if m.MiddleName != "" {
		name += " " + strings.ToUpper(m.MiddleName[:1]) + "."
	}
	return name
}

// SINFormatted renders the SIN as 123-456-789. Unvalidated values are
// returned as stored.
func (m *Musician) SINFormatted() string {
	if len(m.SIN) != 9 {
		return m.SIN
	}
	return m.SIN[0:3] + "-" + m.SIN[3:6] + "-" + m.SIN[6:9]
}

// PhoneFormatted renders the phone as (123) 456-7890.
func (m *Musician) PhoneFormatted() string {
	if len(m.Phone) != 10 {
		return m.Phone
	}
	return "(" + m.Phone[0:3] + ") " + m.Phone[3:6] + "-" + m.Phone[6:]
}

// Play links a musician to one of the instruments they play. The pair
// is the identity; there is no surrogate key.
type Play struct {
	MusicianID   int64  `json:"musicianId"`
	InstrumentID int64  `json:"instrumentId"`
	Instrument   string `json:"instrument,omitempty"`
}

// Instrument is a playable instrument. Deletion is restricted while any
// musician, play, or performance references it.
type Instrument struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Validate applies the field rules.
func (i *Instrument) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.Name,
			validation.Required.Error("You cannot leave the instrument name blank."),
			validation.Length(1, 50).Error("Instrument name cannot be more than 50 characters long.")),
	)
}
