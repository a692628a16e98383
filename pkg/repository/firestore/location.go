package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// locationDoc is the Firestore document representation of model.Location.
// Embedding is stored as firestore.Vector32 for FindNearest vector search.
type locationDoc struct {
	ID           string             `firestore:"ID"`
	Name         string             `firestore:"Name"`
	Address      string             `firestore:"Address"`
	City         string             `firestore:"City"`
	State        string             `firestore:"State"`
	Country      string             `firestore:"Country"`
	ZipCode      string             `firestore:"ZipCode"`
	County       string             `firestore:"County"`
	Latitude     string             `firestore:"Latitude"`
	Longitude    string             `firestore:"Longitude"`
	Description  string             `firestore:"Description"`
	Phone        string             `firestore:"Phone"`
	Hours        []string           `firestore:"Hours"`
	Rating       string             `firestore:"Rating"`
	AddressLink  string             `firestore:"AddressLink"`
	Website      string             `firestore:"Website"`
	ResourceType string             `firestore:"ResourceType"`
	Embedding    firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt    time.Time          `firestore:"CreatedAt"`
	UpdatedAt    time.Time          `firestore:"UpdatedAt"`
}

func toLocationDoc(l *model.Location) *locationDoc {
	doc := &locationDoc{
		ID:           l.ID,
		Name:         l.Name,
		Address:      l.Address,
		City:         l.City,
		State:        l.State,
		Country:      l.Country,
		ZipCode:      l.ZipCode,
		County:       l.County,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		Description:  l.Description,
		Phone:        l.Phone,
		Hours:        l.Hours[:],
		Rating:       l.Rating,
		AddressLink:  l.AddressLink,
		Website:      l.Website,
		ResourceType: l.ResourceType,
	}
	if len(l.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(l.Embedding)
	}
	return doc
}

func fromLocationDoc(d *locationDoc) *model.Location {
	l := &model.Location{
		ID:           d.ID,
		Name:         d.Name,
		Address:      d.Address,
		City:         d.City,
		State:        d.State,
		Country:      d.Country,
		ZipCode:      d.ZipCode,
		County:       d.County,
		Latitude:     d.Latitude,
		Longitude:    d.Longitude,
		Description:  d.Description,
		Phone:        d.Phone,
		Rating:       d.Rating,
		AddressLink:  d.AddressLink,
		Website:      d.Website,
		ResourceType: d.ResourceType,
	}
	copy(l.Hours[:], d.Hours)
	if len(d.Embedding) > 0 {
		l.Embedding = []float32(d.Embedding)
	}
	return l
}

type ingestionMetadataDoc struct {
	Revision    string    `firestore:"Revision"`
	CompletedAt time.Time `firestore:"CompletedAt"`
	Count       int       `firestore:"Count"`
}

type locationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newLocationRepository(client *firestore.Client) *locationRepository {
	return &locationRepository{client: client}
}

func (r *locationRepository) locationsCollection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "locations")
}

func (r *locationRepository) metadataDoc() *firestore.DocumentRef {
	return r.client.Collection(r.collectionPrefix + "meta").Doc("location_ingestion")
}

// locationDocID derives a stable document ID from the unique name
func locationDocID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (r *locationRepository) Put(ctx context.Context, loc *model.Location) (*model.Location, error) {
	if err := loc.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid location")
	}

	docRef := r.locationsCollection().Doc(locationDocID(loc.Name))
	stored := loc.Copy()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		doc := toLocationDoc(stored)
		doc.CreatedAt = now
		doc.UpdatedAt = now

		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get location")
		}
		if err == nil {
			var existing locationDoc
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal location")
			}
			doc.CreatedAt = existing.CreatedAt
			if doc.ID == "" {
				doc.ID = existing.ID
			}
		}
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		stored.ID = doc.ID

		return tx.Set(docRef, doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put location", goerr.V("name", loc.Name))
	}

	return stored, nil
}

func (r *locationRepository) GetByName(ctx context.Context, name string) (*model.Location, error) {
	doc, err := r.locationsCollection().Doc(locationDocID(name)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "location not found", goerr.V("name", name))
		}
		return nil, goerr.Wrap(err, "failed to get location", goerr.V("name", name))
	}

	var d locationDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal location", goerr.V("name", name))
	}
	return fromLocationDoc(&d), nil
}

func (r *locationRepository) List(ctx context.Context) ([]*model.Location, error) {
	iter := r.locationsCollection().
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	locations := make([]*model.Location, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate locations")
		}

		var d locationDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal location")
		}
		locations = append(locations, fromLocationDoc(&d))
	}

	return locations, nil
}

func (r *locationRepository) GetMetadata(ctx context.Context) (*model.IngestionMetadata, error) {
	doc, err := r.metadataDoc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &model.IngestionMetadata{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get ingestion metadata")
	}

	var d ingestionMetadataDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal ingestion metadata")
	}
	return &model.IngestionMetadata{
		Revision:    d.Revision,
		CompletedAt: d.CompletedAt,
		Count:       d.Count,
	}, nil
}

func (r *locationRepository) SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error {
	if _, err := r.metadataDoc().Set(ctx, &ingestionMetadataDoc{
		Revision:    meta.Revision,
		CompletedAt: meta.CompletedAt,
		Count:       meta.Count,
	}); err != nil {
		return goerr.Wrap(err, "failed to save ingestion metadata")
	}
	return nil
}
