package basketsync

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/mmdatafocus/areabasket_sync/schema"
	"google.golang.org/api/iterator"
)

// PartitionSource is the hierarchical store holding the basket variants.
type PartitionSource interface {
	// ListPartitions returns every hexCode under the top-level collection.
	ListPartitions(ctx context.Context) ([]string, error)
	// FetchVariants returns the child variant documents of one hexCode.
	FetchVariants(ctx context.Context, hexCode string) ([]schema.Document, error)
}

// FirestoreSource reads <collection>/{hexCode}/<subcollection> documents.
type FirestoreSource struct {
	client        *firestore.Client
	collection    string
	subcollection string
}

func NewFirestoreSource(client *firestore.Client, collection string, subcollection string) *FirestoreSource {
	return &FirestoreSource{client: client, collection: collection, subcollection: subcollection}
}

// ListPartitions lists document references, so hexCodes that only exist as a
// parent of the variants subcollection are included.
func (s *FirestoreSource) ListPartitions(ctx context.Context) ([]string, error) {
	var hexCodes []string
	iter := s.client.Collection(s.collection).DocumentRefs(ctx)
	for {
		ref, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.collection, err)
		}
		hexCodes = append(hexCodes, ref.ID)
	}
	return hexCodes, nil
}

func (s *FirestoreSource) FetchVariants(ctx context.Context, hexCode string) ([]schema.Document, error) {
	snaps, err := s.client.Collection(s.collection).Doc(hexCode).Collection(s.subcollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("get %s/%s/%s: %w", s.collection, hexCode, s.subcollection, err)
	}
	docs := make([]schema.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, snap.Data())
	}
	return docs, nil
}
