package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/internal/domain/repository"
	"github.com/roamerhq/roamer-api/internal/geocode"
)

type fakePlaceRepo struct {
	getByIDFn       func(ctx context.Context, id string) (*entity.Place, error)
	listByCreatorFn func(ctx context.Context, creatorID string) ([]*entity.Place, error)
	createFn        func(ctx context.Context, p *entity.Place) error
	updateFn        func(ctx context.Context, p *entity.Place) error
	deleteFn        func(ctx context.Context, p *entity.Place) error
}

func (f *fakePlaceRepo) GetByID(ctx context.Context, id string) (*entity.Place, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (f *fakePlaceRepo) ListByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error) {
	if f.listByCreatorFn != nil {
		return f.listByCreatorFn(ctx, creatorID)
	}
	return nil, nil
}

func (f *fakePlaceRepo) Create(ctx context.Context, p *entity.Place) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	p.ID = "new-place-id"
	return nil
}

func (f *fakePlaceRepo) Update(ctx context.Context, p *entity.Place) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, p)
	}
	return nil
}

func (f *fakePlaceRepo) Delete(ctx context.Context, p *entity.Place) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, p)
	}
	return nil
}

type fakeGeocoder struct {
	coords geocode.Coordinates
	err    error
}

func (g *fakeGeocoder) Geocode(context.Context, string) (geocode.Coordinates, error) {
	return g.coords, g.err
}

func knownUserRepo(id string) *fakeUserRepo {
	return &fakeUserRepo{
		getByIDFn: func(_ context.Context, got string) (*entity.User, error) {
			if got == id {
				return &entity.User{ID: id}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
}

func newPlaceService(places repository.PlaceRepository, users repository.UserRepository, geo geocode.Geocoder, store *fakeArtifactStore) *PlaceService {
	return NewPlaceService(places, users, geo, store, nil, nil, nil, "")
}

func TestCreatePlace(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	var created *entity.Place
	places := &fakePlaceRepo{
		createFn: func(_ context.Context, p *entity.Place) error {
			p.ID = "place-1"
			created = p
			return nil
		},
	}
	geo := &fakeGeocoder{coords: geocode.Coordinates{Lat: 40.7484, Lng: -73.9878}}
	svc := newPlaceService(places, knownUserRepo("user-1"), geo, store)

	p, err := svc.Create(context.Background(), CreateInput{
		CreatorID:   "user-1",
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "20 W 34th St, New York",
		ArtifactRef: "esb.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "place-1", p.ID)
	assert.InDelta(t, 40.7484, p.Lat, 1e-9)
	assert.InDelta(t, -73.9878, p.Lng, 1e-9)
	assert.Equal(t, "user-1", p.CreatorID)
	assert.Empty(t, store.released, "the committed record owns the artifact")
	require.NotNil(t, created)
	assert.Equal(t, "esb.png", created.Image)
}

func TestCreatePlaceUnknownCreator(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	svc := newPlaceService(&fakePlaceRepo{}, knownUserRepo("someone-else"), &fakeGeocoder{}, store)

	_, err := svc.Create(context.Background(), CreateInput{
		CreatorID:   "user-1",
		Address:     "20 W 34th St, New York",
		ArtifactRef: "esb.png",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, []string{"esb.png"}, store.released)
}

func TestCreatePlaceUnresolvableAddress(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	geo := &fakeGeocoder{err: geocode.ErrNoResults}
	svc := newPlaceService(&fakePlaceRepo{}, knownUserRepo("user-1"), geo, store)

	_, err := svc.Create(context.Background(), CreateInput{
		CreatorID:   "user-1",
		Address:     "gibberish",
		ArtifactRef: "esb.png",
	})
	assert.ErrorIs(t, err, geocode.ErrNoResults)
	assert.Equal(t, []string{"esb.png"}, store.released)
}

func TestCreatePlaceGeocoderDown(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	geo := &fakeGeocoder{err: errors.New("connection refused")}
	svc := newPlaceService(&fakePlaceRepo{}, knownUserRepo("user-1"), geo, store)

	_, err := svc.Create(context.Background(), CreateInput{
		CreatorID:   "user-1",
		Address:     "20 W 34th St, New York",
		ArtifactRef: "esb.png",
	})
	assert.ErrorIs(t, err, ErrGeocoderDown)
	assert.Equal(t, []string{"esb.png"}, store.released)
}

func TestCreatePlaceTransactionFailureReleasesArtifact(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	places := &fakePlaceRepo{
		createFn: func(context.Context, *entity.Place) error {
			return errors.New("deadlock detected")
		},
	}
	geo := &fakeGeocoder{coords: geocode.Coordinates{Lat: 1, Lng: 2}}
	svc := newPlaceService(places, knownUserRepo("user-1"), geo, store)

	_, err := svc.Create(context.Background(), CreateInput{
		CreatorID:   "user-1",
		Address:     "20 W 34th St, New York",
		ArtifactRef: "esb.png",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"esb.png"}, store.released)
}

func TestCreatePlaceOwnerVanishedMidFlight(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	places := &fakePlaceRepo{
		createFn: func(context.Context, *entity.Place) error {
			return repository.ErrNotFound
		},
	}
	geo := &fakeGeocoder{coords: geocode.Coordinates{Lat: 1, Lng: 2}}
	svc := newPlaceService(places, knownUserRepo("user-1"), geo, store)

	_, err := svc.Create(context.Background(), CreateInput{
		CreatorID:   "user-1",
		Address:     "20 W 34th St, New York",
		ArtifactRef: "esb.png",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, []string{"esb.png"}, store.released)
}

func existingPlace() *entity.Place {
	return &entity.Place{
		ID:          "place-1",
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Image:       "esb.png",
		CreatorID:   "user-1",
	}
}

func TestUpdatePlace(t *testing.T) {
	t.Parallel()

	var updated *entity.Place
	places := &fakePlaceRepo{
		getByIDFn: func(context.Context, string) (*entity.Place, error) {
			return existingPlace(), nil
		},
		updateFn: func(_ context.Context, p *entity.Place) error {
			updated = p
			return nil
		},
	}
	svc := newPlaceService(places, knownUserRepo("user-1"), &fakeGeocoder{}, &fakeArtifactStore{})

	p, err := svc.Update(context.Background(), "place-1", "user-1", UpdateInput{
		Title:       "ESB",
		Description: "Still a skyscraper",
	})
	require.NoError(t, err)
	assert.Equal(t, "ESB", p.Title)
	require.NotNil(t, updated)
	assert.Equal(t, "Still a skyscraper", updated.Description)
}

func TestUpdatePlaceNotOwner(t *testing.T) {
	t.Parallel()

	updateCalls := 0
	places := &fakePlaceRepo{
		getByIDFn: func(context.Context, string) (*entity.Place, error) {
			return existingPlace(), nil
		},
		updateFn: func(context.Context, *entity.Place) error {
			updateCalls++
			return nil
		},
	}
	svc := newPlaceService(places, knownUserRepo("user-1"), &fakeGeocoder{}, &fakeArtifactStore{})

	_, err := svc.Update(context.Background(), "place-1", "intruder", UpdateInput{
		Title:       "Hijacked",
		Description: "Should never land",
	})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Zero(t, updateCalls)
}

func TestDeletePlace(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	places := &fakePlaceRepo{
		getByIDFn: func(context.Context, string) (*entity.Place, error) {
			return existingPlace(), nil
		},
		deleteFn: func(context.Context, *entity.Place) error {
			// the artifact must survive until the delete has committed
			assert.Empty(t, store.released)
			return nil
		},
	}
	svc := newPlaceService(places, knownUserRepo("user-1"), &fakeGeocoder{}, store)

	err := svc.Delete(context.Background(), "place-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"esb.png"}, store.released)
}

func TestDeletePlaceNotOwnerKeepsEverything(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	deleteCalls := 0
	places := &fakePlaceRepo{
		getByIDFn: func(context.Context, string) (*entity.Place, error) {
			return existingPlace(), nil
		},
		deleteFn: func(context.Context, *entity.Place) error {
			deleteCalls++
			return nil
		},
	}
	svc := newPlaceService(places, knownUserRepo("user-1"), &fakeGeocoder{}, store)

	err := svc.Delete(context.Background(), "place-1", "intruder")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Zero(t, deleteCalls)
	assert.Empty(t, store.released)
}

func TestDeletePlaceAbortedTransactionKeepsArtifact(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	places := &fakePlaceRepo{
		getByIDFn: func(context.Context, string) (*entity.Place, error) {
			return existingPlace(), nil
		},
		deleteFn: func(context.Context, *entity.Place) error {
			return errors.New("serialization failure")
		},
	}
	svc := newPlaceService(places, knownUserRepo("user-1"), &fakeGeocoder{}, store)

	err := svc.Delete(context.Background(), "place-1", "user-1")
	require.Error(t, err)
	assert.Empty(t, store.released, "an aborted delete must not orphan the live record's file")
}

func TestGetPlaceNotFound(t *testing.T) {
	t.Parallel()

	svc := newPlaceService(&fakePlaceRepo{}, knownUserRepo("user-1"), &fakeGeocoder{}, &fakeArtifactStore{})

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestListByUserUnknownUserIsEmpty(t *testing.T) {
	t.Parallel()

	places := &fakePlaceRepo{
		listByCreatorFn: func(context.Context, string) ([]*entity.Place, error) {
			return []*entity.Place{}, nil
		},
	}
	svc := newPlaceService(places, knownUserRepo("user-1"), &fakeGeocoder{}, &fakeArtifactStore{})

	out, err := svc.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, out)
}
