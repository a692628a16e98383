package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"google.golang.org/api/iterator"
)

const distanceField = "VectorDistance"

// documentDoc is the Firestore representation of a dense collection entry
type documentDoc struct {
	ID        string             `firestore:"ID"`
	Content   string             `firestore:"Content"`
	Metadata  map[string]string  `firestore:"Metadata"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	Distance  float64            `firestore:"VectorDistance,omitempty"`
}

type documentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDocumentRepository(client *firestore.Client) *documentRepository {
	return &documentRepository{client: client}
}

// documentsCollection returns collections/{collection}/documents
func (r *documentRepository) documentsCollection(collection string) *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "collections").Doc(collection).Collection("documents")
}

func (r *documentRepository) Add(ctx context.Context, collection string, docs []*model.Document) error {
	if collection == "" {
		return goerr.New("collection name is required")
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}
		job, err := bw.Set(r.documentsCollection(collection).Doc(id), &documentDoc{
			ID:        id,
			Content:   d.Content,
			Metadata:  d.Metadata,
			Embedding: firestore.Vector32(d.Embedding),
		})
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue document", goerr.V("collection", collection))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write document", goerr.V("collection", collection))
		}
	}
	return nil
}

func (r *documentRepository) FindNearest(ctx context.Context, collection string, embedding []float32, limit int) ([]*model.Document, error) {
	if limit <= 0 {
		return []*model.Document{}, nil
	}

	vq := r.documentsCollection(collection).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	docs := make([]*model.Document, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate document vector search results", goerr.V("collection", collection))
		}

		var d documentDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal document from vector search")
		}

		docs = append(docs, &model.Document{
			ID:        d.ID,
			Content:   d.Content,
			Metadata:  d.Metadata,
			Embedding: []float32(d.Embedding),
			Score:     1 - d.Distance,
		})
	}

	return docs, nil
}
