package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

type locationRepository struct {
	mu       sync.RWMutex
	order    []string
	byName   map[string]*model.Location
	metadata model.IngestionMetadata
}

func newLocationRepository() *locationRepository {
	return &locationRepository{
		byName: make(map[string]*model.Location),
	}
}

func (r *locationRepository) Put(ctx context.Context, loc *model.Location) (*model.Location, error) {
	if err := loc.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid location")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := loc.Copy()
	if existing, ok := r.byName[loc.Name]; ok {
		if stored.ID == "" {
			stored.ID = existing.ID
		}
	} else {
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
		r.order = append(r.order, loc.Name)
	}
	r.byName[loc.Name] = stored

	return stored.Copy(), nil
}

func (r *locationRepository) GetByName(ctx context.Context, name string) (*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.byName[name]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "location not found", goerr.V("name", name))
	}
	return loc.Copy(), nil
}

func (r *locationRepository) List(ctx context.Context) ([]*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Location, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.byName[name].Copy())
	}
	return result, nil
}

func (r *locationRepository) GetMetadata(ctx context.Context) (*model.IngestionMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta := r.metadata
	return &meta, nil
}

func (r *locationRepository) SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metadata = *meta
	return nil
}
