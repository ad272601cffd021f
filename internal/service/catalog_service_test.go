package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wastebuster/wastebuster/internal/classify"
	"github.com/wastebuster/wastebuster/internal/dataset"
	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/logging"
	"github.com/wastebuster/wastebuster/internal/pipeline"
	"github.com/wastebuster/wastebuster/internal/saved"
	"github.com/wastebuster/wastebuster/internal/store/memstore"
)

const (
	placesJSON = `[
		{"organization":"Habitat ReStore","category":"Furniture","type":"Resell","address":"1 Main St, Hamilton, ON L8P 1A1","latitude":"43.25","longitude":"-79.86"},
		{"organization":"Duplicate ReStore","category":"Furniture","type":"Resell","latitude":"43.25","longitude":"-79.86"},
		{"organization":"Repair Cafe","category":"Electronics","type":"Repair","latitude":43.26,"longitude":-79.87},
		{"organization":"No Coordinates","category":"Furniture","type":"Reuse","latitude":"","longitude":""}
	]`
	eventsJSON = `[
		{"id":1,"name":"Repair cafe","date":"2024-06-02T10:00:00","duration":2,"category":"Repair"},
		{"id":"2","name":"Clothing swap","date":"2024-06-20T13:00:00","duration":3},
		{"id":3,"name":"Last week","date":"2024-05-20T13:00:00"}
	]`
	ideasJSON = `[
		{"id":1,"name":"Tin can lanterns","category":"Videos","url":"https://www.youtube.com/watch?v=abc123"},
		{"id":2,"name":"Jar herb garden","category":"Articles","description":"Grow basil"}
	]`
	categoriesJSON = `[
		{"id":1,"name":"Electronics","associated":["laptop","phone"]},
		{"id":2,"name":"Furniture","associated":["chair","table"]}
	]`
)

type stubClassifier struct {
	result *classify.Result
	err    error
}

func (s *stubClassifier) Classify(_ context.Context, _ io.Reader, _ string) (*classify.Result, error) {
	return s.result, s.err
}

func newTestService(t *testing.T, opts ...Option) (*CatalogService, *saved.Store) {
	t.Helper()
	logger := logging.Discard()
	fsys := fstest.MapFS{
		"places.json":     {Data: []byte(placesJSON)},
		"events.json":     {Data: []byte(eventsJSON)},
		"ideas.json":      {Data: []byte(ideasJSON)},
		"categories.json": {Data: []byte(categoriesJSON)},
	}
	data := Datasets{
		Places:     dataset.NewSnapshot("places", dataset.NewFSSource[domain.Place](fsys, "places.json"), logger),
		Events:     dataset.NewSnapshot("events", dataset.NewFSSource[domain.Event](fsys, "events.json"), logger),
		Ideas:      dataset.NewSnapshot("ideas", dataset.NewFSSource[domain.Idea](fsys, "ideas.json"), logger),
		Categories: dataset.NewSnapshot("categories", dataset.NewFSSource[domain.Category](fsys, "categories.json"), logger),
	}
	store := saved.NewStore(memstore.New(), logger)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	svc := NewCatalogService(data, store.View(saved.EventsKey), store.View(saved.IdeasKey), logger, opts...)
	require.NoError(t, svc.Load(context.Background()))
	return svc, store
}

func TestLoadReportsStatus(t *testing.T) {
	svc, _ := newTestService(t)

	status := svc.Status()
	require.Len(t, status, 4)
	for _, st := range status {
		assert.True(t, st.Loaded, st.Name)
		assert.False(t, st.FetchedAt.IsZero(), st.Name)
	}
}

func TestLoadFailsWhenNothingToShow(t *testing.T) {
	logger := logging.Discard()
	empty := fstest.MapFS{}
	data := Datasets{
		Places:     dataset.NewSnapshot("places", dataset.NewFSSource[domain.Place](empty, "places.json"), logger),
		Events:     dataset.NewSnapshot("events", dataset.NewFSSource[domain.Event](empty, "events.json"), logger),
		Ideas:      dataset.NewSnapshot("ideas", dataset.NewFSSource[domain.Idea](empty, "ideas.json"), logger),
		Categories: dataset.NewSnapshot("categories", dataset.NewFSSource[domain.Category](empty, "categories.json"), logger),
	}
	store := saved.NewStore(memstore.New(), logger)
	svc := NewCatalogService(data, store.View(saved.EventsKey), store.View(saved.IdeasKey), logger)

	assert.Error(t, svc.Load(context.Background()))
	assert.Empty(t, svc.ListIdeas(pipeline.Criteria{}))
}

func TestListIdeas(t *testing.T) {
	svc, _ := newTestService(t)

	cards := svc.ListIdeas(pipeline.Criteria{})
	require.Len(t, cards, 2)
	assert.Equal(t, "https://img.youtube.com/vi/abc123/0.jpg", cards[0].DisplayImage)
	assert.Equal(t, domain.PlaceholderImage, cards[1].DisplayImage)
	assert.Equal(t, "Grow basil", cards[1].DisplayDescription)
	assert.Equal(t, domain.PlaceholderURL, cards[1].DisplayURL)
}

func TestListIdeasSavedStayVisible(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveItem(ctx, CollectionIdeas, domain.NumberID(1)))

	cards := svc.ListIdeas(pipeline.Criteria{Category: "Articles"})
	require.Len(t, cards, 2)
	assert.True(t, cards[0].Saved)
	assert.False(t, cards[1].Saved)

	cards = svc.ListIdeas(pipeline.Criteria{Category: pipeline.CategorySaved})
	require.Len(t, cards, 1)
	assert.Equal(t, "Tin can lanterns", cards[0].Name)
}

func TestListEvents(t *testing.T) {
	svc, _ := newTestService(t)

	b := svc.ListEvents(false)
	require.Len(t, b.Upcoming, 1)
	require.Len(t, b.Other, 1)
	assert.Equal(t, "Repair cafe", b.Upcoming[0].Name)
	assert.Equal(t, 1, b.Upcoming[0].DayOffset)
	assert.Equal(t, "Clothing swap", b.Other[0].Name)
}

func TestListEventsLikedOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	liked, err := svc.ToggleSaved(ctx, CollectionEvents, domain.StringID("2"))
	require.NoError(t, err)
	assert.True(t, liked)

	b := svc.ListEvents(true)
	assert.Empty(t, b.Upcoming)
	require.Len(t, b.Other, 1)
	assert.True(t, b.Other[0].Saved)
}

func TestGetEvent(t *testing.T) {
	svc, _ := newTestService(t)

	e, err := svc.GetEvent(domain.ParseItemID("1"))
	require.NoError(t, err)
	assert.Equal(t, "Repair cafe", e.Name)
	assert.Equal(t, 2*time.Hour, e.End.Sub(e.Start))
	assert.Equal(t, domain.PlaceholderImage, e.DisplayImage)

	_, err = svc.GetEvent(domain.ParseItemID("99"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMapView(t *testing.T) {
	svc, _ := newTestService(t)

	view := svc.MapView("Furniture", pipeline.MarkerFilter{}, nil)
	assert.Equal(t, pipeline.DefaultRegion, view.Region)
	require.Len(t, view.Markers, 1, "duplicate location and empty coordinates are dropped")
	assert.Equal(t, "Habitat ReStore", view.Markers[0].Place.Organization)

	view = svc.MapView("", pipeline.MarkerFilter{Types: []domain.Keyword{domain.KeywordRepair}}, &pipeline.Position{Latitude: 43.6, Longitude: -79.4})
	require.Len(t, view.Markers, 2)
	assert.False(t, view.Markers[0].Visible)
	assert.True(t, view.Markers[1].Visible)
	assert.InDelta(t, 43.6, view.Region.Latitude, 1e-9)
}

func TestSearchCategories(t *testing.T) {
	svc, _ := newTestService(t)

	cards := svc.SearchCategories("laptop")
	require.Len(t, cards, 1)
	assert.Equal(t, "Electronics", cards[0].Name)
	assert.Equal(t, "category_images/electronics.png", cards[0].DisplayImage)
	assert.Len(t, svc.SearchCategories(""), 2)
}

func TestSavedOperations(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveItem(ctx, CollectionEvents, domain.NumberID(1)))
	require.NoError(t, svc.SaveItem(ctx, CollectionEvents, domain.NumberID(3)))
	require.NoError(t, svc.RemoveItem(ctx, CollectionEvents, domain.NumberID(1)))

	ids, err := svc.SavedIDs(CollectionEvents)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemID{domain.NumberID(3)}, ids)
	assert.Equal(t, ids, store.SavedIDs(ctx, saved.EventsKey), "views write through to storage")
}

func TestSavedUnknownCollection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SavedIDs(CollectionPlaces)
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
	assert.ErrorIs(t, svc.SaveItem(ctx, "bogus", domain.NumberID(1)), domain.ErrUnknownCollection)
	assert.ErrorIs(t, svc.RemoveItem(ctx, "bogus", domain.NumberID(1)), domain.ErrUnknownCollection)
	_, err = svc.ToggleSaved(ctx, "bogus", domain.NumberID(1))
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestToggleSavedInvalidID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ToggleSaved(context.Background(), CollectionIdeas, domain.ItemID{})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, c := range []string{CollectionPlaces, CollectionEvents, CollectionIdeas, CollectionCategories} {
		assert.NoError(t, svc.Refresh(ctx, c), c)
	}
	assert.ErrorIs(t, svc.Refresh(ctx, "bogus"), domain.ErrUnknownCollection)
}

func TestIdentifyItems(t *testing.T) {
	stub := &stubClassifier{result: &classify.Result{Items: []classify.Suggestion{
		{Name: "Old laptop", Category: "electronics"},
		{Name: "Chair", Category: "Seating"},
		{Name: "Mystery", Category: "Unknown"},
	}}}
	svc, _ := newTestService(t, WithClassifier(stub))

	items, err := svc.IdentifyItems(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Electronics"}, items[0].Categories)
	assert.Equal(t, []string{"Furniture"}, items[1].Categories, "falls back to the item name")
	assert.Empty(t, items[2].Categories)
}

func TestIdentifyItemsErrors(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.IdentifyItems(context.Background(), []byte{1}, "image/jpeg")
	assert.ErrorIs(t, err, ErrClassifierUnavailable)

	boom := errors.New("boom")
	svc, _ = newTestService(t, WithClassifier(&stubClassifier{err: boom}))
	_, err = svc.IdentifyItems(context.Background(), []byte{1}, "image/jpeg")
	assert.ErrorIs(t, err, boom)
}

func TestLoadSelectedCollections(t *testing.T) {
	logger := logging.Discard()
	fsys := fstest.MapFS{"ideas.json": {Data: []byte(ideasJSON)}}
	data := Datasets{
		Places:     dataset.NewSnapshot("places", dataset.NewFSSource[domain.Place](fsys, "places.json"), logger),
		Events:     dataset.NewSnapshot("events", dataset.NewFSSource[domain.Event](fsys, "events.json"), logger),
		Ideas:      dataset.NewSnapshot("ideas", dataset.NewFSSource[domain.Idea](fsys, "ideas.json"), logger),
		Categories: dataset.NewSnapshot("categories", dataset.NewFSSource[domain.Category](fsys, "categories.json"), logger),
	}
	store := saved.NewStore(memstore.New(), logger)
	svc := NewCatalogService(data, store.View(saved.EventsKey), store.View(saved.IdeasKey), logger)

	require.NoError(t, svc.Load(context.Background(), CollectionIdeas), "missing places file is not touched")
	assert.Len(t, svc.ListIdeas(pipeline.Criteria{}), 2)
	assert.ErrorIs(t, svc.Load(context.Background(), "bogus"), domain.ErrUnknownCollection)
}
