package musicservice

import (
	"context"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ensemble/internal/checksum"
	"github.com/starford/ensemble/internal/images"
	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/store"
)

// Photo renditions: the full view fits 500x600, the roster thumbnail
// fits 75x90.
const (
	photoMaxWidth  = 500
	photoMaxHeight = 600
	thumbMaxWidth  = 75
	thumbMaxHeight = 90
)

// ListDocuments runs the document list pipeline.
func (s *Service) ListDocuments(ctx context.Context, q listquery.Query, filter store.DocumentFilter) (listquery.Page[models.Document], int, error) {
	return s.db.ListDocuments(ctx, q, filter)
}

// GetDocument fetches one document's metadata.
func (s *Service) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	return s.db.GetDocument(ctx, id)
}

// AddDocument stores an uploaded file in the sink and records its
// metadata against a musician. Empty uploads are rejected with a field
// error rather than dropped.
func (s *Service) AddDocument(ctx context.Context, d *models.Document, content []byte) error {
	if len(content) == 0 {
		return validation.Errors{"file": validation.NewError("required",
			"You cannot upload an empty file.")}
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if _, err := s.db.GetMusician(ctx, d.MusicianID); err != nil {
		return err
	}

	handle, err := s.sink.Save(content, filepath.Ext(d.FileName))
	if err != nil {
		return err
	}
	d.Handle = handle
	d.ETag = checksum.Sum(content)
	d.Size = int64(len(content))

	if err := s.db.CreateDocument(ctx, d); err != nil {
		s.purge([]string{handle})
		return err
	}
	s.publish("document", "created", d.ID)
	return nil
}

// UpdateDocument rewrites the editable metadata of a document. The
// file content is immutable.
func (s *Service) UpdateDocument(ctx context.Context, d *models.Document) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.db.UpdateDocument(ctx, d); err != nil {
		return err
	}
	s.publish("document", "updated", d.ID)
	return nil
}

// DeleteDocument removes a document and purges its bytes.
func (s *Service) DeleteDocument(ctx context.Context, id int64) error {
	handle, err := s.db.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	s.purge([]string{handle})
	s.publish("document", "deleted", id)
	return nil
}

// DownloadDocument returns a document's metadata together with its
// content bytes.
func (s *Service) DownloadDocument(ctx context.Context, id int64) (*models.Document, []byte, error) {
	d, err := s.db.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.sink.Read(d.Handle)
	if err != nil {
		return nil, nil, err
	}
	return d, content, nil
}

// SetPhoto resizes an uploaded picture into the two renditions, stores
// them, and replaces the musician's photo record. Empty or non-image
// uploads are rejected with a field error.
func (s *Service) SetPhoto(ctx context.Context, musicianID int64, content []byte) error {
	if len(content) == 0 {
		return validation.Errors{"photo": validation.NewError("required",
			"You cannot upload an empty file.")}
	}
	if _, err := s.db.GetMusician(ctx, musicianID); err != nil {
		return err
	}

	full, err := images.Shrink(content, photoMaxWidth, photoMaxHeight)
	if err != nil {
		return validation.Errors{"photo": validation.NewError("image",
			"The uploaded file must be a picture.")}
	}
	thumb, err := images.Shrink(content, thumbMaxWidth, thumbMaxHeight)
	if err != nil {
		return validation.Errors{"photo": validation.NewError("image",
			"The uploaded file must be a picture.")}
	}

	fullHandle, err := s.sink.Save(full, ".jpg")
	if err != nil {
		return err
	}
	thumbHandle, err := s.sink.Save(thumb, ".jpg")
	if err != nil {
		s.purge([]string{fullHandle})
		return err
	}

	replaced, err := s.db.SetPhoto(ctx, &models.Photo{
		MusicianID:  musicianID,
		Handle:      fullHandle,
		ThumbHandle: thumbHandle,
		MimeType:    images.MimeType,
	})
	if err != nil {
		s.purge([]string{fullHandle, thumbHandle})
		return err
	}
	s.purge(replaced)
	s.publish("musician", "updated", musicianID)
	return nil
}

// Photo returns a musician's photo bytes, the thumbnail rendition when
// thumb is set.
func (s *Service) Photo(ctx context.Context, musicianID int64, thumb bool) ([]byte, string, error) {
	p, err := s.db.GetPhoto(ctx, musicianID)
	if err != nil {
		return nil, "", err
	}
	handle := p.Handle
	if thumb {
		handle = p.ThumbHandle
	}
	content, err := s.sink.Read(handle)
	if err != nil {
		return nil, "", err
	}
	return content, p.MimeType, nil
}

// DeletePhoto removes a musician's photo and purges both renditions.
// Removing an absent photo is a no-op.
func (s *Service) DeletePhoto(ctx context.Context, musicianID int64) error {
	if _, err := s.db.GetMusician(ctx, musicianID); err != nil {
		return err
	}
	replaced, err := s.db.DeletePhoto(ctx, musicianID)
	if err != nil {
		return err
	}
	if len(replaced) > 0 {
		s.purge(replaced)
		s.publish("musician", "updated", musicianID)
	}
	return nil
}
