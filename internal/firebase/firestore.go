package firebase

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

// FirestoreStore keeps entries as documents of the submissions collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(ctx context.Context, app *firebase.App) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: store.Collection}, nil
}

// Close releases the Firestore client.
func (f *FirestoreStore) Close() error {
	return f.client.Close()
}

func (f *FirestoreStore) coll() *firestore.CollectionRef {
	return f.client.Collection(f.collection)
}

func (f *FirestoreStore) Create(ctx context.Context, entry models.Entry) (string, error) {
	ref, _, err := f.coll().Add(ctx, map[string]interface{}{
		"author":    entry.Author,
		"email":     entry.Email,
		"credits":   entry.Credits,
		"section":   string(entry.Section),
		"eventDate": entry.EventDate,
		"title":     entry.Title,
		"content":   entry.Content,
		"mediaURL":  entry.MediaURL,
		"mediaType": entry.MediaType,
		"verified":  entry.Verified,
		"postedAt":  firestore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create submission: %w", mapError(err))
	}
	return ref.ID, nil
}

func (f *FirestoreStore) Get(ctx context.Context, id string) (*models.Entry, error) {
	snap, err := f.coll().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return decodeEntry(snap)
}

func (f *FirestoreStore) Query(ctx context.Context, q store.Query) ([]models.Entry, error) {
	query := f.coll().Query
	for _, filter := range q.Filters {
		value := filter.Value
		if s, ok := value.(models.Section); ok {
			value = string(s)
		}
		query = query.Where(filter.Field, "==", value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var entries []models.Entry
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query submissions: %w", mapError(err))
		}
		e, err := decodeEntry(snap)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (f *FirestoreStore) Update(ctx context.Context, id string, update models.EntryUpdate) error {
	updates := firestoreUpdates(update)
	if len(updates) == 0 {
		return nil
	}
	if _, err := f.coll().Doc(id).Update(ctx, updates); err != nil {
		return mapError(err)
	}
	return nil
}

func (f *FirestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := f.coll().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapError(err)
	}
	return nil
}

func firestoreUpdates(u models.EntryUpdate) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, v interface{}) {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}
	if u.Author != nil {
		add("author", *u.Author)
	}
	if u.Credits != nil {
		add("credits", *u.Credits)
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Content != nil {
		add("content", *u.Content)
	}
	if u.EventDate != nil {
		add("eventDate", *u.EventDate)
	}
	if u.Section != nil {
		add("section", string(*u.Section))
	}
	if u.Verified != nil {
		add("verified", *u.Verified)
	}
	return updates
}

func decodeEntry(snap *firestore.DocumentSnapshot) (*models.Entry, error) {
	var e models.Entry
	if err := snap.DataTo(&e); err != nil {
		return nil, fmt.Errorf("failed to decode submission %s: %w", snap.Ref.ID, err)
	}
	e.ID = snap.Ref.ID
	return &e, nil
}

// mapError translates gRPC status codes into store errors.
func mapError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %v", store.ErrPermissionDenied, err)
	default:
		return err
	}
}
