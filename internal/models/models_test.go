package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func validMusician() Musician {
	return Musician{
		FirstName:    "Etta",
		MiddleName:   "mae",
		LastName:     "James",
		Phone:        "4165551234",
		DOB:          "1990-01-25",
		SIN:          "123456789",
		InstrumentID: 1,
	}
}

func TestMusicianValidateOK(t *testing.T) {
	m := validMusician()
	if err := m.Validate(); err != nil {
		t.Fatalf("valid musician rejected: %v", err)
	}
}

func TestMusicianValidateFieldRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Musician)
		field  string
	}{
		{"blank first name", func(m *Musician) { m.FirstName = "" }, "firstName"},
		{"long first name", func(m *Musician) { m.FirstName = strings.Repeat("x", 31) }, "firstName"},
		{"blank last name", func(m *Musician) { m.LastName = "" }, "lastName"},
		{"bad phone", func(m *Musician) { m.Phone = "1234567890" }, "phone"},
		{"short phone", func(m *Musician) { m.Phone = "416555" }, "phone"},
		{"bad sin", func(m *Musician) { m.SIN = "023456789" }, "sin"},
		{"short sin", func(m *Musician) { m.SIN = "12345" }, "sin"},
		{"missing dob", func(m *Musician) { m.DOB = "" }, "dob"},
		{"missing instrument", func(m *Musician) { m.InstrumentID = 0 }, "instrumentId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validMusician()
			tc.mutate(&m)
			err := m.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var fields validation.Errors
			if !asValidationErrors(err, &fields) {
				t.Fatalf("err = %T %v", err, err)
			}
			if _, ok := fields[tc.field]; !ok {
				t.Errorf("expected error on %q, got %v", tc.field, fields)
			}
		})
	}
}

func asValidationErrors(err error, target *validation.Errors) bool {
	ve, ok := err.(validation.Errors)
	if ok {
		*target = ve
	}
	return ok
}

func TestMusicianValidateDOB(t *testing.T) {
	m := validMusician()
	m.DOB = time.Now().AddDate(1, 0, 0).Format(DateLayout)
	if err := m.Validate(); err == nil {
		t.Error("future date of birth accepted")
	}

	m = validMusician()
	m.DOB = time.Now().AddDate(-5, 0, 0).Format(DateLayout)
	if err := m.Validate(); err == nil {
		t.Error("five-year-old accepted, minimum is seven")
	}

	m = validMusician()
	m.DOB = "25/01/1990"
	if err := m.Validate(); err == nil {
		t.Error("malformed date accepted")
	}
}

func TestMusicianAccessors(t *testing.T) {
	m := validMusician()
	if got := m.Summary(); got != "Etta M. James" {
		t.Errorf("Summary = %q", got)
	}
	if got := m.FormalName(); got != "James, Etta M." {
		t.Errorf("FormalName = %q", got)
	}
	m.MiddleName = ""
	if got := m.Summary(); got != "Etta James" {
		t.Errorf("Summary without middle = %q", got)
	}
	if got := m.FormalName(); got != "James, Etta" {
		t.Errorf("FormalName without middle = %q", got)
	}
	if got := m.SINFormatted(); got != "123-456-789" {
		t.Errorf("SINFormatted = %q", got)
	}
	if got := m.PhoneFormatted(); got != "(416) 555-1234" {
		t.Errorf("PhoneFormatted = %q", got)
	}
}

func TestMusicianAge(t *testing.T) {
	m := validMusician()
	m.DOB = time.Now().AddDate(-30, 0, -1).Format(DateLayout)
	if got := m.Age(); got != 30 {
		t.Errorf("Age = %d, want 30", got)
	}
	m.DOB = time.Now().AddDate(-30, 0, 1).Format(DateLayout)
	if got := m.Age(); got != 29 {
		t.Errorf("Age = %d, want 29 before the birthday", got)
	}
}

func TestAlbumValidate(t *testing.T) {
	a := Album{Name: "Blue Train", YearProduced: "1957", Price: 19.99, GenreID: 1}
	if err := a.Validate(); err != nil {
		t.Fatalf("valid album rejected: %v", err)
	}

	a.YearProduced = "57"
	if err := a.Validate(); err == nil {
		t.Error("two-digit year accepted")
	}
	a.YearProduced = "1957"
	a.Price = -1
	if err := a.Validate(); err == nil {
		t.Error("negative price accepted")
	}
}

func TestSongValidateAndSummary(t *testing.T) {
	s := Song{Title: "Moment's Notice", DateRecorded: "1957-09-15", AlbumID: 1}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid song rejected: %v", err)
	}
	if got := s.Summary(); got != "Moment's Notice" {
		t.Errorf("Summary = %q", got)
	}
	s.Genre = "Hard Bop"
	if got := s.Summary(); got != "Moment's Notice (Hard Bop)" {
		t.Errorf("Summary with genre = %q", got)
	}

	s.DateRecorded = "not-a-date"
	if err := s.Validate(); err == nil {
		t.Error("malformed date accepted")
	}
}

func TestPerformanceValidate(t *testing.T) {
	p := Performance{SongID: 1, MusicianID: 2, InstrumentID: 3, FeePaid: 150}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid performance rejected: %v", err)
	}
	p.FeePaid = -1
	if err := p.Validate(); err == nil {
		t.Error("negative fee accepted")
	}
	p.FeePaid = 0
	p.SongID = 0
	if err := p.Validate(); err == nil {
		t.Error("missing song accepted")
	}
}

func TestVersionJSONRoundTrip(t *testing.T) {
	v := Version{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"deadbeef"` {
		t.Errorf("marshal = %s", data)
	}

	var back Version
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(v) {
		t.Errorf("round trip = %v", back)
	}

	var empty Version
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatal(err)
	}
	if empty != nil {
		t.Errorf("empty token = %v, want nil", empty)
	}

	if err := json.Unmarshal([]byte(`"zz"`), &back); err == nil {
		t.Error("invalid hex accepted")
	}
}
