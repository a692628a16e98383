package interfaces

import (
	"context"

	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// LocationRepository stores the location directory
type LocationRepository interface {
	// Put inserts the location or replaces the one with the same name
	Put(ctx context.Context, loc *model.Location) (*model.Location, error)
	GetByName(ctx context.Context, name string) (*model.Location, error)
	// List returns all locations in insertion order
	List(ctx context.Context) ([]*model.Location, error)

	GetMetadata(ctx context.Context) (*model.IngestionMetadata, error)
	SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error
}
