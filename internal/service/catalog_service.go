package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wastebuster/wastebuster/internal/classify"
	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/pipeline"
)

// ErrClassifierUnavailable is returned by IdentifyItems when no vision
// backend is configured.
var ErrClassifierUnavailable = errors.New("item identification is not configured")

// Collection names accepted by Refresh and the saved operations.
const (
	CollectionPlaces     = "places"
	CollectionEvents     = "events"
	CollectionIdeas      = "ideas"
	CollectionCategories = "categories"
)

// snapshot is the subset of dataset.Snapshot that CatalogService requires.
type snapshot[T any] interface {
	Name() string
	Refresh(ctx context.Context) error
	Restore(ctx context.Context) (bool, error)
	Items() []T
	Loaded() bool
	FetchedAt() time.Time
}

// savedView is the subset of saved.View that CatalogService requires.
type savedView interface {
	Load(ctx context.Context)
	Has(id domain.ItemID) bool
	IDs() []domain.ItemID
	Set() domain.IDSet
	Save(ctx context.Context, id domain.ItemID) error
	Remove(ctx context.Context, id domain.ItemID) error
	Toggle(ctx context.Context, id domain.ItemID) (bool, error)
}

// Datasets groups the four remote collections.
type Datasets struct {
	Places     snapshot[domain.Place]
	Events     snapshot[domain.Event]
	Ideas      snapshot[domain.Idea]
	Categories snapshot[domain.Category]
}

type CatalogService struct {
	data        Datasets
	likedEvents savedView
	savedIdeas  savedView
	classifier  classify.Classifier
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*CatalogService)

// WithClassifier enables IdentifyItems.
func WithClassifier(c classify.Classifier) Option {
	return func(s *CatalogService) { s.classifier = c }
}

// WithClock replaces time.Now. Event day offsets are computed in the
// location of the returned time.
func WithClock(now func() time.Time) Option {
	return func(s *CatalogService) { s.now = now }
}

// WithLocation computes event day offsets in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *CatalogService) {
		s.now = func() time.Time { return time.Now().In(loc) }
	}
}

func NewCatalogService(data Datasets, likedEvents, savedIdeas savedView, logger *slog.Logger, opts ...Option) *CatalogService {
	s := &CatalogService{
		data:        data,
		likedEvents: likedEvents,
		savedIdeas:  savedIdeas,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads both saved sets, seeds each collection from the local cache and
// then fetches it. With no collections named, all four are loaded. A failed
// fetch is only an error when the collection has nothing to show.
func (s *CatalogService) Load(ctx context.Context, collections ...string) error {
	s.LoadSaved(ctx)

	targets := s.refreshers()
	if len(collections) > 0 {
		targets = targets[:0]
		for _, c := range collections {
			r, err := s.refresher(c)
			if err != nil {
				return err
			}
			targets = append(targets, r)
		}
	}

	var errs []error
	for _, r := range targets {
		restored, err := r.Restore(ctx)
		if err != nil {
			s.logger.Warn("failed to restore cached dataset", "collection", r.Name(), "error", err)
		} else if restored {
			s.logger.Debug("restored cached dataset", "collection", r.Name())
		}
		if err := r.Refresh(ctx); err != nil && !r.Loaded() {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadSaved re-reads both saved sets from storage.
func (s *CatalogService) LoadSaved(ctx context.Context) {
	s.likedEvents.Load(ctx)
	s.savedIdeas.Load(ctx)
}

type refresher interface {
	Name() string
	Refresh(ctx context.Context) error
	Restore(ctx context.Context) (bool, error)
	Loaded() bool
	FetchedAt() time.Time
}

func (s *CatalogService) refreshers() []refresher {
	return []refresher{s.data.Places, s.data.Events, s.data.Ideas, s.data.Categories}
}

func (s *CatalogService) refresher(collection string) (refresher, error) {
	switch collection {
	case CollectionPlaces:
		return s.data.Places, nil
	case CollectionEvents:
		return s.data.Events, nil
	case CollectionIdeas:
		return s.data.Ideas, nil
	case CollectionCategories:
		return s.data.Categories, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, collection)
}

// Refresh fetches collection again and, for events and ideas, re-reads the
// saved set. On failure the previous data stays visible.
func (s *CatalogService) Refresh(ctx context.Context, collection string) error {
	r, err := s.refresher(collection)
	if err != nil {
		return err
	}
	if v, err := s.view(collection); err == nil {
		v.Load(ctx)
	}
	return r.Refresh(ctx)
}

// CollectionStatus describes one dataset for health reporting.
type CollectionStatus struct {
	Name      string    `json:"name"`
	Loaded    bool      `json:"loaded"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

func (s *CatalogService) Status() []CollectionStatus {
	rs := s.refreshers()
	out := make([]CollectionStatus, len(rs))
	for i, r := range rs {
		out[i] = CollectionStatus{Name: r.Name(), Loaded: r.Loaded(), FetchedAt: r.FetchedAt()}
	}
	return out
}

// IdeaCard is an idea ready to render.
type IdeaCard struct {
	domain.Idea
	DisplayImage       string `json:"display_image"`
	DisplayDescription string `json:"display_description"`
	DisplayURL         string `json:"display_url"`
	Saved              bool   `json:"saved"`
}

// ListIdeas filters the ideas by category and search text. Saved ideas stay
// visible under any category.
func (s *CatalogService) ListIdeas(criteria pipeline.Criteria) []IdeaCard {
	saved := s.savedIdeas.Set()
	ideas := pipeline.FilterIdeas(s.data.Ideas.Items(), saved, criteria)
	out := make([]IdeaCard, len(ideas))
	for i, idea := range ideas {
		out[i] = IdeaCard{
			Idea:               idea,
			DisplayImage:       idea.DisplayImage(),
			DisplayDescription: idea.DisplayDescription(),
			DisplayURL:         idea.DisplayURL(),
			Saved:              saved.Has(idea.ID),
		}
	}
	return out
}

// ListEvents buckets events by how many days away they are.
func (s *CatalogService) ListEvents(likedOnly bool) pipeline.EventBuckets {
	return pipeline.BucketEvents(s.data.Events.Items(), s.likedEvents.Set(), s.now(), likedOnly)
}

// EventDetail is a single event ready to render. Start and End are zero when
// the event has no usable date.
type EventDetail struct {
	domain.Event
	Start              time.Time `json:"start,omitzero"`
	End                time.Time `json:"end,omitzero"`
	DisplayImage       string    `json:"display_image"`
	DisplayDescription string    `json:"display_description"`
	DisplayURL         string    `json:"display_url"`
	Saved              bool      `json:"saved"`
}

func (s *CatalogService) GetEvent(id domain.ItemID) (*EventDetail, error) {
	e, ok := pipeline.FindEvent(s.data.Events.Items(), id)
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
	}
	d := &EventDetail{
		Event:              e,
		DisplayImage:       e.DisplayImage(),
		DisplayDescription: e.DisplayDescription(),
		DisplayURL:         e.DisplayURL(),
		Saved:              s.likedEvents.Has(e.ID),
	}
	loc := s.now().Location()
	if end, err := e.EndTime(loc); err == nil {
		d.Start, _ = e.StartTime(loc)
		d.End = end
	}
	return d, nil
}

// MapView is the map screen for one category.
type MapView struct {
	Region  pipeline.Region   `json:"region"`
	Markers []pipeline.Marker `json:"markers"`
}

// MapView returns one marker per distinct location for the places in
// category, with markers outside filter hidden.
func (s *CatalogService) MapView(category string, filter pipeline.MarkerFilter, pos *pipeline.Position) MapView {
	places := pipeline.PlacesInCategory(s.data.Places.Items(), category)
	markers := pipeline.ApplyMarkerFilter(pipeline.DedupMarkers(places), filter)
	return MapView{Region: pipeline.RegionFor(pos), Markers: markers}
}

// CategoryCard is a category ready to render.
type CategoryCard struct {
	domain.Category
	DisplayImage string `json:"display_image"`
}

func (s *CatalogService) SearchCategories(query string) []CategoryCard {
	categories := pipeline.SearchCategories(s.data.Categories.Items(), query)
	out := make([]CategoryCard, len(categories))
	for i, c := range categories {
		out[i] = CategoryCard{Category: c, DisplayImage: c.DisplayImage()}
	}
	return out
}

func (s *CatalogService) view(collection string) (savedView, error) {
	switch collection {
	case CollectionEvents:
		return s.likedEvents, nil
	case CollectionIdeas:
		return s.savedIdeas, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, collection)
}

func (s *CatalogService) SavedIDs(collection string) ([]domain.ItemID, error) {
	v, err := s.view(collection)
	if err != nil {
		return nil, err
	}
	return v.IDs(), nil
}

func (s *CatalogService) SaveItem(ctx context.Context, collection string, id domain.ItemID) error {
	v, err := s.view(collection)
	if err != nil {
		return err
	}
	return v.Save(ctx, id)
}

func (s *CatalogService) RemoveItem(ctx context.Context, collection string, id domain.ItemID) error {
	v, err := s.view(collection)
	if err != nil {
		return err
	}
	return v.Remove(ctx, id)
}

// ToggleSaved flips id in collection and reports whether it is saved
// afterwards. When the write fails the returned state is the unchanged one.
func (s *CatalogService) ToggleSaved(ctx context.Context, collection string, id domain.ItemID) (bool, error) {
	v, err := s.view(collection)
	if err != nil {
		return false, err
	}
	saved, err := v.Toggle(ctx, id)
	if err != nil {
		s.logger.Error("failed to toggle saved item", "collection", collection, "id", id.String(), "error", err)
		return saved, fmt.Errorf("failed to toggle saved item: %w", err)
	}
	return saved, nil
}

// IdentifiedItem is one item seen in a photo with the known categories that
// match it.
type IdentifiedItem struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
}

// IdentifyItems asks the vision backend what is in the photo and resolves
// each suggestion to known categories, first by the suggested category and
// then by the item name.
func (s *CatalogService) IdentifyItems(ctx context.Context, imageData []byte, mimeType string) ([]IdentifiedItem, error) {
	if s.classifier == nil {
		return nil, ErrClassifierUnavailable
	}
	s.logger.Info("identify items started", "mime_type", mimeType, "bytes", len(imageData))

	result, err := s.classifier.Classify(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to classify image: %w", err)
	}

	categories := s.data.Categories.Items()
	out := make([]IdentifiedItem, 0, len(result.Items))
	for _, sug := range result.Items {
		var matches []domain.Category
		if sug.Category != "" {
			matches = pipeline.SearchCategories(categories, sug.Category)
		}
		if len(matches) == 0 && sug.Name != "" {
			matches = pipeline.SearchCategories(categories, sug.Name)
		}
		names := make([]string, len(matches))
		for i, c := range matches {
			names[i] = c.Name
		}
		out = append(out, IdentifiedItem{Name: sug.Name, Category: sug.Category, Categories: names})
	}

	s.logger.Info("identify items complete", "items_detected", len(out))
	return out, nil
}
