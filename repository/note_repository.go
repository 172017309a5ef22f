package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoteNotFound is returned for unknown or malformed note ids.
var ErrNoteNotFound = errors.New("note not found")

type NoteRepositoryInterface interface {
	SaveNote(ctx context.Context, note models.Note) (models.Note, error)
	FindNoteByID(ctx context.Context, id string) (models.Note, error)
	FindNotesByAuthor(ctx context.Context, author string) ([]models.Note, error)
	SearchNotesByAuthor(ctx context.Context, author, query string) ([]models.Note, error)
	UpdateNote(ctx context.Context, id, title, body string) (models.Note, error)
	DeleteNoteByID(ctx context.Context, id string) error
}

var _ NoteRepositoryInterface = (*NoteRepository)(nil)

type NoteRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewNoteRepository(collection *mongo.Collection, timeout time.Duration) *NoteRepository {
	return &NoteRepository{collection: collection, timeout: timeout}
}

// EnsureIndexes creates the author index used by list filters and the
// title/body text index required by $text search.
func (r *NoteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{
			Keys:    bson.D{{Key: "title", Value: "text"}, {Key: "body", Value: "text"}},
			Options: options.Index().SetName("notes_text"),
		},
	})
	if err != nil {
		return fmt.Errorf("create note indexes: %w", err)
	}
	return nil
}

func (r *NoteRepository) SaveNote(ctx context.Context, note models.Note) (models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	objectID := primitive.NewObjectID()
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	doc := bson.M{
		"_id":        objectID,
		"title":      note.Title,
		"body":       note.Body,
		"author":     note.Author,
		"created_at": note.CreatedAt,
		"updated_at": note.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return models.Note{}, err
	}
	note.ID = objectID.Hex()
	return note, nil
}

func (r *NoteRepository) FindNoteByID(ctx context.Context, id string) (models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Note{}, ErrNoteNotFound
	}

	var doc noteDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, err
	}
	return doc.toModel(), nil
}

func (r *NoteRepository) FindNotesByAuthor(ctx context.Context, author string) ([]models.Note, error) {
	return r.find(ctx, bson.M{"author": author})
}

// SearchNotesByAuthor hands query to $text untouched.
func (r *NoteRepository) SearchNotesByAuthor(ctx context.Context, author, query string) ([]models.Note, error) {
	return r.find(ctx, bson.M{
		"author": author,
		"$text":  bson.M{"$search": query},
	})
}

func (r *NoteRepository) UpdateNote(ctx context.Context, id, title, body string) (models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Note{}, ErrNoteNotFound
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			"title":      title,
			"body":       body,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(false).
		SetReturnDocument(options.After)

	var doc noteDocument
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, err
	}
	return doc.toModel(), nil
}

func (r *NoteRepository) DeleteNoteByID(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNoteNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) find(ctx context.Context, filter bson.M) ([]models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []noteDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	notes := make([]models.Note, 0, len(docs))
	for _, doc := range docs {
		notes = append(notes, doc.toModel())
	}
	return notes, nil
}

func (r *NoteRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// noteDocument mirrors the stored shape; _id is an ObjectID on disk but a
// hex string in models.Note.
type noteDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Body      string             `bson:"body"`
	Author    string             `bson:"author"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d noteDocument) toModel() models.Note {
	return models.Note{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Body:      d.Body,
		Author:    d.Author,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
