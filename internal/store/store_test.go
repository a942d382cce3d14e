package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/ensemble/internal/apperr"
	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/reconcile"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seed creates one genre and two instruments and returns their ids.
func seed(t *testing.T, db *DB) (genreID, guitarID, drumsID int64) {
	t.Helper()
	ctx := context.Background()

	g := models.Genre{Name: "Rock"}
	if err := db.CreateGenre(ctx, &g); err != nil {
		t.Fatalf("CreateGenre: %v", err)
	}
	guitar := models.Instrument{Name: "Guitar"}
	if err := db.CreateInstrument(ctx, &guitar); err != nil {
		t.Fatalf("CreateInstrument: %v", err)
	}
	drums := models.Instrument{Name: "Drums"}
	if err := db.CreateInstrument(ctx, &drums); err != nil {
		t.Fatalf("CreateInstrument: %v", err)
	}
	return g.ID, guitar.ID, drums.ID
}

func newMusician(instrumentID int64, sin string) models.Musician {
	return models.Musician{
		FirstName:    "Nina",
		LastName:     "Stone",
		Phone:        "4165551234",
		DOB:          "1990-01-25",
		SIN:          sin,
		InstrumentID: instrumentID,
	}
}

func TestMusicianCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, drumsID := seed(t, db)

	m := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &m, []int64{drumsID}); err != nil {
		t.Fatalf("CreateMusician: %v", err)
	}
	if m.ID == 0 || len(m.RowVersion) == 0 {
		t.Fatalf("create did not assign id/token: %+v", m)
	}

	got, err := db.GetMusician(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMusician: %v", err)
	}
	if got.Instrument != "Guitar" {
		t.Errorf("joined instrument = %q", got.Instrument)
	}
	if len(got.Plays) != 1 || got.Plays[0].InstrumentID != drumsID {
		t.Errorf("plays = %+v", got.Plays)
	}

	got.Phone = "4165559999"
	if err := db.UpdateMusician(ctx, got, reconcile.Delta[models.Play]{}); err != nil {
		t.Fatalf("UpdateMusician: %v", err)
	}
	if got.RowVersion.Equal(m.RowVersion) {
		t.Error("update did not rotate the version token")
	}

	if _, err := db.GetMusician(ctx, 9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing musician err = %v", err)
	}
}

func TestMusicianUpdateStaleToken(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, _ := seed(t, db)

	m := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &m, nil); err != nil {
		t.Fatal(err)
	}
	stale := m

	// First writer wins.
	fresh := m
	fresh.LastName = "First"
	if err := db.UpdateMusician(ctx, &fresh, reconcile.Delta[models.Play]{}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Second writer carries the stale token.
	stale.LastName = "Second"
	err := db.UpdateMusician(ctx, &stale, reconcile.Delta[models.Play]{})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("stale update err = %v, want ErrConflict", err)
	}

	// The stored row still has the first writer's value.
	got, err := db.GetMusician(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastName != "First" {
		t.Errorf("lastName = %q, want First", got.LastName)
	}
}

func TestMusicianUpdateDeletedRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, _ := seed(t, db)

	m := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &m, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := db.DeleteMusician(ctx, m.ID, m.RowVersion); err != nil {
		t.Fatalf("DeleteMusician: %v", err)
	}

	m.LastName = "Ghost"
	err := db.UpdateMusician(ctx, &m, reconcile.Delta[models.Play]{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update of deleted row err = %v, want ErrNotFound", err)
	}
}

func TestMusicianDuplicateSIN(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, _ := seed(t, db)

	a := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &a, nil); err != nil {
		t.Fatal(err)
	}
	b := newMusician(guitarID, "123456789")
	b.LastName = "Other"
	err := db.CreateMusician(ctx, &b, nil)

	var unique *apperr.UniqueError
	if !errors.As(err, &unique) {
		t.Fatalf("err = %v, want UniqueError", err)
	}
	if unique.Constraint != "musicians.sin" {
		t.Errorf("constraint = %q", unique.Constraint)
	}
}

func TestDeleteMusicianBlockedByPerformance(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	genreID, guitarID, _ := seed(t, db)

	m := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &m, nil); err != nil {
		t.Fatal(err)
	}
	album := models.Album{Name: "Debut", YearProduced: "1999", GenreID: genreID}
	if err := db.CreateAlbum(ctx, &album); err != nil {
		t.Fatal(err)
	}
	song := models.Song{Title: "Opener", DateRecorded: "1999-05-01", AlbumID: album.ID}
	if err := db.CreateSong(ctx, &song); err != nil {
		t.Fatal(err)
	}
	perf := models.Performance{SongID: song.ID, MusicianID: m.ID, InstrumentID: guitarID, FeePaid: 100}
	if err := db.CreatePerformance(ctx, &perf); err != nil {
		t.Fatal(err)
	}

	_, err := db.DeleteMusician(ctx, m.ID, m.RowVersion)
	var integrity *apperr.IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("err = %v, want IntegrityError", err)
	}
	if integrity.Entity != "Musician" || integrity.Dependent != "Performance" {
		t.Errorf("integrity = %+v", integrity)
	}

	// Deleting the song cascades the performance, unblocking the
	// musician.
	if err := db.DeleteSong(ctx, song.ID, song.RowVersion); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}
	if _, err := db.DeleteMusician(ctx, m.ID, m.RowVersion); err != nil {
		t.Fatalf("DeleteMusician after cascade: %v", err)
	}
}

func TestDeleteMusicianStaleToken(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, _ := seed(t, db)

	m := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &m, nil); err != nil {
		t.Fatal(err)
	}
	fresh := m
	fresh.Phone = "4165550000"
	if err := db.UpdateMusician(ctx, &fresh, reconcile.Delta[models.Play]{}); err != nil {
		t.Fatal(err)
	}

	_, err := db.DeleteMusician(ctx, m.ID, m.RowVersion)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale delete err = %v, want ErrConflict", err)
	}
}

func TestListMusiciansPipeline(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, drumsID := seed(t, db)

	people := []struct {
		first, last, phone, sin string
		instrument              int64
	}{
		{"Alice", "Young", "4165550001", "100000001", guitarID},
		{"Bob", "Stone", "4165550002", "100000002", drumsID},
		{"Carol", "Stone", "9055550003", "100000003", guitarID},
		{"Dan", "Archer", "9055550004", "100000004", drumsID},
	}
	for _, p := range people {
		m := models.Musician{
			FirstName: p.first, LastName: p.last, Phone: p.phone,
			DOB: "1990-01-25", SIN: p.sin, InstrumentID: p.instrument,
		}
		if err := db.CreateMusician(ctx, &m, nil); err != nil {
			t.Fatal(err)
		}
	}

	// Default sort: last name then first name, ascending.
	page, res, applied, err := db.ListMusicians(ctx, listquery.Query{Page: 1, PageSize: 10}, MusicianFilter{})
	if err != nil {
		t.Fatalf("ListMusicians: %v", err)
	}
	if applied != 0 {
		t.Errorf("applied = %d", applied)
	}
	if res.SortField != "Musician" || res.SortDirection != listquery.Asc {
		t.Errorf("resolved = %+v", res)
	}
	wantOrder := []string{"Archer", "Stone", "Stone", "Young"}
	for i, m := range page.Items {
		if m.LastName != wantOrder[i] {
			t.Fatalf("order[%d] = %s, want %s", i, m.LastName, wantOrder[i])
		}
	}
	if page.Items[1].FirstName != "Bob" || page.Items[2].FirstName != "Carol" {
		t.Errorf("tie-break by first name broken: %s, %s", page.Items[1].FirstName, page.Items[2].FirstName)
	}

	// Case-insensitive name containment.
	page, _, applied, err = db.ListMusicians(ctx, listquery.Query{Page: 1, PageSize: 10},
		MusicianFilter{SearchName: "STON"})
	if err != nil {
		t.Fatal(err)
	}
	if applied != 1 || page.TotalCount != 2 {
		t.Errorf("filtered: applied = %d total = %d", applied, page.TotalCount)
	}

	// Phone filter composes with name filter.
	page, _, applied, err = db.ListMusicians(ctx, listquery.Query{Page: 1, PageSize: 10},
		MusicianFilter{SearchName: "ston", SearchPhone: "905"})
	if err != nil {
		t.Fatal(err)
	}
	if applied != 2 || page.TotalCount != 1 || page.Items[0].FirstName != "Carol" {
		t.Errorf("composed filter: applied = %d items = %+v", applied, page.Items)
	}

	// Primary instrument filter.
	page, _, _, err = db.ListMusicians(ctx, listquery.Query{Page: 1, PageSize: 10},
		MusicianFilter{InstrumentID: &drumsID})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 2 {
		t.Errorf("instrument filter total = %d", page.TotalCount)
	}

	// Sorting by a clicked column resets to ascending and page 1.
	page, res, _, err = db.ListMusicians(ctx,
		listquery.Query{SortField: "Musician", SortDirection: listquery.Desc, ActionButton: "Phone", Page: 2, PageSize: 2},
		MusicianFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if res.SortField != "Phone" || res.SortDirection != listquery.Asc || res.Page != 1 {
		t.Errorf("resolved after action = %+v", res)
	}
	if page.Items[0].Phone != "4165550001" {
		t.Errorf("first by phone = %s", page.Items[0].Phone)
	}

	// Paging: size 3 over 4 rows.
	page, _, _, err = db.ListMusicians(ctx, listquery.Query{Page: 2, PageSize: 3}, MusicianFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalPages != 2 || len(page.Items) != 1 || !page.HasPrevious || page.HasNext {
		t.Errorf("page 2 = %+v", page)
	}

	// Past-the-end requests clamp to the last page.
	page, _, _, err = db.ListMusicians(ctx, listquery.Query{Page: 99, PageSize: 3}, MusicianFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if page.PageNumber != 2 {
		t.Errorf("clamped page = %d", page.PageNumber)
	}

	// Page size below 1 is rejected.
	_, _, _, err = db.ListMusicians(ctx, listquery.Query{Page: 1, PageSize: 0}, MusicianFilter{})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("bad size err = %v", err)
	}
}

func TestListMusiciansPlaysFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, drumsID := seed(t, db)

	a := newMusician(guitarID, "100000001")
	if err := db.CreateMusician(ctx, &a, []int64{drumsID}); err != nil {
		t.Fatal(err)
	}
	b := newMusician(guitarID, "100000002")
	b.LastName = "Solo"
	if err := db.CreateMusician(ctx, &b, nil); err != nil {
		t.Fatal(err)
	}

	page, _, _, err := db.ListMusicians(ctx, listquery.Query{Page: 1, PageSize: 10},
		MusicianFilter{OtherInstrumentID: &drumsID})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 1 || page.Items[0].ID != a.ID {
		t.Errorf("plays filter = %+v", page.Items)
	}
}

func TestApplyInstrumentPlayers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, drumsID := seed(t, db)

	a := newMusician(guitarID, "100000001")
	if err := db.CreateMusician(ctx, &a, []int64{drumsID}); err != nil {
		t.Fatal(err)
	}
	b := newMusician(guitarID, "100000002")
	if err := db.CreateMusician(ctx, &b, nil); err != nil {
		t.Fatal(err)
	}

	// Swap the drummers: remove a, add b.
	delta := reconcile.Delta[int64]{ToAdd: []int64{b.ID}, ToRemove: []int64{a.ID}}
	if err := db.ApplyInstrumentPlayers(ctx, drumsID, delta); err != nil {
		t.Fatalf("ApplyInstrumentPlayers: %v", err)
	}

	playing, err := db.InstrumentPlayerIDs(ctx, drumsID)
	if err != nil {
		t.Fatal(err)
	}
	if len(playing) != 1 || playing[0] != b.ID {
		t.Errorf("players = %v, want [%d]", playing, b.ID)
	}
}

func TestGenreDeleteRestricted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	genreID, _, _ := seed(t, db)

	album := models.Album{Name: "Tied", YearProduced: "2001", GenreID: genreID}
	if err := db.CreateAlbum(ctx, &album); err != nil {
		t.Fatal(err)
	}

	err := db.DeleteGenre(ctx, genreID)
	var integrity *apperr.IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("err = %v, want IntegrityError", err)
	}
	if integrity.Entity != "Genre" || integrity.Dependent != "Album" {
		t.Errorf("integrity = %+v", integrity)
	}

	if err := db.DeleteAlbum(ctx, album.ID, album.RowVersion); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteGenre(ctx, genreID); err != nil {
		t.Fatalf("delete after unblock: %v", err)
	}
	if err := db.DeleteGenre(ctx, genreID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSongDuplicateTitlePerAlbum(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	genreID, _, _ := seed(t, db)

	a1 := models.Album{Name: "One", YearProduced: "2001", GenreID: genreID}
	a2 := models.Album{Name: "Two", YearProduced: "2002", GenreID: genreID}
	for _, a := range []*models.Album{&a1, &a2} {
		if err := db.CreateAlbum(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	s1 := models.Song{Title: "Intro", DateRecorded: "2001-01-01", AlbumID: a1.ID}
	if err := db.CreateSong(ctx, &s1); err != nil {
		t.Fatal(err)
	}

	dup := models.Song{Title: "Intro", DateRecorded: "2001-02-02", AlbumID: a1.ID}
	err := db.CreateSong(ctx, &dup)
	var unique *apperr.UniqueError
	if !errors.As(err, &unique) {
		t.Fatalf("err = %v, want UniqueError", err)
	}
	if unique.Constraint != "songs.album_title" {
		t.Errorf("constraint = %q", unique.Constraint)
	}

	// Same title on a different album is fine.
	other := models.Song{Title: "Intro", DateRecorded: "2002-01-01", AlbumID: a2.ID}
	if err := db.CreateSong(ctx, &other); err != nil {
		t.Fatalf("same title on other album: %v", err)
	}
}

func TestPerformanceTripleUniqueAndSummary(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	genreID, guitarID, drumsID := seed(t, db)

	m := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &m, nil); err != nil {
		t.Fatal(err)
	}
	album := models.Album{Name: "Live", YearProduced: "2010", GenreID: genreID}
	if err := db.CreateAlbum(ctx, &album); err != nil {
		t.Fatal(err)
	}
	song := models.Song{Title: "Jam", DateRecorded: "2010-06-01", AlbumID: album.ID}
	if err := db.CreateSong(ctx, &song); err != nil {
		t.Fatal(err)
	}

	p1 := models.Performance{SongID: song.ID, MusicianID: m.ID, InstrumentID: guitarID, FeePaid: 100}
	if err := db.CreatePerformance(ctx, &p1); err != nil {
		t.Fatal(err)
	}

	dup := models.Performance{SongID: song.ID, MusicianID: m.ID, InstrumentID: guitarID, FeePaid: 50}
	err := db.CreatePerformance(ctx, &dup)
	var unique *apperr.UniqueError
	if !errors.As(err, &unique) {
		t.Fatalf("err = %v, want UniqueError", err)
	}

	// Same song and musician on another instrument is a new performance.
	p2 := models.Performance{SongID: song.ID, MusicianID: m.ID, InstrumentID: drumsID, FeePaid: 300}
	if err := db.CreatePerformance(ctx, &p2); err != nil {
		t.Fatal(err)
	}

	summaries, err := db.PerformanceSummaries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %+v", summaries)
	}
	s := summaries[0]
	if s.Performances != 2 || s.AverageFee != 200 || s.HighestFee != 300 || s.LowestFee != 100 {
		t.Errorf("summary = %+v", s)
	}
	if s.FormalName != "Stone, Nina" {
		t.Errorf("formal name = %q", s.FormalName)
	}
}

func TestDocumentsAndPhotos(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, guitarID, _ := seed(t, db)

	m := newMusician(guitarID, "123456789")
	if err := db.CreateMusician(ctx, &m, nil); err != nil {
		t.Fatal(err)
	}

	d := models.Document{MusicianID: m.ID, FileName: "contract.pdf", MimeType: "application/pdf",
		Handle: "h1", ETag: "e1", Size: 42}
	if err := db.CreateDocument(ctx, &d); err != nil {
		t.Fatal(err)
	}

	page, applied, err := db.ListDocuments(ctx, listquery.Query{Page: 1, PageSize: 10},
		DocumentFilter{SearchString: "CONTRACT"})
	if err != nil {
		t.Fatal(err)
	}
	if applied != 1 || page.TotalCount != 1 || page.Items[0].Musician != "Stone, Nina" {
		t.Errorf("documents = %+v", page)
	}

	// Photo upsert returns the replaced handles.
	replaced, err := db.SetPhoto(ctx, &models.Photo{MusicianID: m.ID, Handle: "p1", ThumbHandle: "t1", MimeType: "image/jpeg"})
	if err != nil {
		t.Fatal(err)
	}
	if replaced != nil {
		t.Errorf("first set replaced = %v", replaced)
	}
	replaced, err = db.SetPhoto(ctx, &models.Photo{MusicianID: m.ID, Handle: "p2", ThumbHandle: "t2", MimeType: "image/jpeg"})
	if err != nil {
		t.Fatal(err)
	}
	if len(replaced) != 2 || replaced[0] != "p1" || replaced[1] != "t1" {
		t.Errorf("replaced = %v", replaced)
	}

	// Deleting the musician reports every orphaned handle for purging.
	handles, err := db.DeleteMusician(ctx, m.ID, m.RowVersion)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"h1": true, "p2": true, "t2": true}
	if len(handles) != 3 {
		t.Fatalf("handles = %v", handles)
	}
	for _, h := range handles {
		if !want[h] {
			t.Errorf("unexpected handle %q", h)
		}
	}
}
