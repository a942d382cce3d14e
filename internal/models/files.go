package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Document is a file uploaded against a musician. Bytes live in the
// upload sink under Handle; the row carries only metadata. Documents
// are removed together with their musician.
type Document struct {
	ID          int64  `json:"id"`
	MusicianID  int64  `json:"musicianId"`
	Musician    string `json:"musician,omitempty"` // formal name
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
	Description string `json:"description,omitempty"`
	Handle      string `json:"-"` // content handle in the upload sink
	ETag        string `json:"etag"`
	Size        int64  `json:"size"`
}

// Validate applies the metadata rules; content rules (non-empty file,
// sane name) are enforced at upload time.
func (d *Document) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.FileName,
			validation.Required.Error("The file name cannot be blank."),
			validation.Length(1, 255).Error("The name of the file cannot be more than 255 characters.")),
		validation.Field(&d.MimeType,
			validation.Length(0, 255).Error("The mime type of the file cannot be more than 255 characters.")),
		validation.Field(&d.Description,
			validation.Length(0, 2000).Error("File description cannot be more than 2000 characters.")),
		validation.Field(&d.MusicianID,
			validation.Required.Error("You must select the Musician.")),
	)
}

// Photo holds the two resized renditions of a musician's picture, both
// stored in the upload sink.
type Photo struct {
	MusicianID  int64  `json:"musicianId"`
	Handle      string `json:"-"`
	ThumbHandle string `json:"-"`
	MimeType    string `json:"mimeType"`
}
