package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/internal/domain/repository"
	"github.com/roamerhq/roamer-api/internal/geocode"
	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/helpers"
)

var (
	ErrPlaceNotFound = errors.New("place not found")
	// ErrNotOwner means the acting user is not the place's creator. Kept
	// distinct from not-found so handlers return 401, not 404.
	ErrNotOwner = errors.New("not the owner of this place")
	// ErrGeocoderDown wraps provider/network geocoding failures, as opposed
	// to an address the provider could not resolve.
	ErrGeocoderDown = errors.New("geocoding unavailable")
)

// PlaceService is the transactional core tying places to their owner's
// place set and artifact lifetimes to transaction outcomes.
type PlaceService struct {
	Places        repository.PlaceRepository
	Users         repository.UserRepository
	Geo           geocode.Geocoder
	Store         storage.ArtifactStore
	Pub           *helpers.RabbitPublisher
	Logger        *logrus.Logger
	ES            *elasticsearch.Client
	ESPlacesIndex string
}

func NewPlaceService(places repository.PlaceRepository, users repository.UserRepository, geo geocode.Geocoder, store storage.ArtifactStore, pub *helpers.RabbitPublisher, logger *logrus.Logger, es *elasticsearch.Client, esPlacesIndex string) *PlaceService {
	return &PlaceService{
		Places:        places,
		Users:         users,
		Geo:           geo,
		Store:         store,
		Pub:           pub,
		Logger:        logger,
		ES:            es,
		ESPlacesIndex: esPlacesIndex,
	}
}

// CreateInput carries everything Create needs; ArtifactRef is the already
// staged upload.
type CreateInput struct {
	CreatorID   string
	Title       string
	Description string
	Address     string
	ArtifactRef string
}

// Create resolves the owner, geocodes the address, then inserts the place
// and appends it to the owner's place set in one transaction. Any failure
// after the artifact was staged releases it.
func (s *PlaceService) Create(ctx context.Context, in CreateInput) (*entity.Place, error) {
	fail := func(err error) (*entity.Place, error) {
		releaseArtifact(ctx, s.Store, s.Pub, s.Logger, in.ArtifactRef)
		return nil, err
	}

	if _, err := s.Users.GetByID(ctx, in.CreatorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrUserNotFound)
		}
		return fail(err)
	}

	coords, err := s.Geo.Geocode(ctx, in.Address)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResults) {
			return fail(err)
		}
		return fail(fmt.Errorf("%w: %v", ErrGeocoderDown, err))
	}

	p := &entity.Place{
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		Lat:         coords.Lat,
		Lng:         coords.Lng,
		Image:       in.ArtifactRef,
		CreatorID:   in.CreatorID,
	}
	if err := s.Places.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// owner row disappeared between the lookup and the transaction
			return fail(ErrUserNotFound)
		}
		return fail(err)
	}

	_ = s.indexPlace(ctx, p)
	return p, nil
}

// UpdateInput mutates title and description only.
type UpdateInput struct {
	Title       string
	Description string
}

// Update rewrites title/description after the ownership check. The owner's
// place set is not involved, so no cross-record transaction is needed.
func (s *PlaceService) Update(ctx context.Context, placeID, actorID string, in UpdateInput) (*entity.Place, error) {
	p, err := s.Get(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != actorID {
		return nil, ErrNotOwner
	}

	p.Title = in.Title
	p.Description = in.Description
	if err := s.Places.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}

	_ = s.indexPlace(ctx, p)
	return p, nil
}

// Delete removes the place and its membership row transactionally, then
// releases the artifact. The release happens strictly after commit: an
// aborted transaction must never leave a live record pointing at a deleted
// file, while a crash after commit leaves at worst a sweepable orphan.
func (s *PlaceService) Delete(ctx context.Context, placeID, actorID string) error {
	p, err := s.Get(ctx, placeID)
	if err != nil {
		return err
	}
	if p.CreatorID != actorID {
		return ErrNotOwner
	}

	if err := s.Places.Delete(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlaceNotFound
		}
		return err
	}

	releaseArtifact(ctx, s.Store, s.Pub, s.Logger, p.Image)
	s.deleteFromIndex(ctx, p.ID)
	return nil
}

func (s *PlaceService) Get(ctx context.Context, id string) (*entity.Place, error) {
	p, err := s.Places.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByUser returns the user's places in creation order; an unknown user
// yields an empty list, matching the public listing endpoint's contract.
func (s *PlaceService) ListByUser(ctx context.Context, userID string) ([]*entity.Place, error) {
	return s.Places.ListByCreator(ctx, userID)
}

func (s *PlaceService) indexPlace(ctx context.Context, p *entity.Place) error {
	if s.ES == nil || s.ESPlacesIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"address":     p.Address,
		"creator_id":  p.CreatorID,
		"created_at":  p.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESPlacesIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", p.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("place_id", p.ID).Warn("es index response error")
	}
	return nil
}

func (s *PlaceService) deleteFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESPlacesIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESPlacesIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match query over title, description, and address.
// Returns an empty result when Elasticsearch is not configured.
func (s *PlaceService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESPlacesIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "description", "address"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESPlacesIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
