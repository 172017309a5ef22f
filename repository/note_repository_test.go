package repository

import (
	"context"
	"testing"
	"time"

	"notes-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func noteBSON(id primitive.ObjectID, title, body, author string) bson.D {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "body", Value: body},
		{Key: "author", Value: author},
		{Key: "created_at", Value: now},
		{Key: "updated_at", Value: now},
	}
}

func TestNoteRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save assigns object id", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		note, err := repo.SaveNote(context.Background(), models.Note{Title: "t", Body: "b", Author: "alice"})
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(note.ID)
		assert.NoError(mt, err)
		assert.Equal(mt, "alice", note.Author)
	})

	mt.Run("save surfaces write errors", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		_, err := repo.SaveNote(context.Background(), models.Note{Title: "t"})
		assert.Error(mt, err)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			noteBSON(id, "t", "b", "alice")))

		note, err := repo.FindNoteByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), note.ID)
		assert.Equal(mt, "t", note.Title)
		assert.Equal(mt, "alice", note.Author)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := repo.FindNoteByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNoteNotFound)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)

		_, err := repo.FindNoteByID(context.Background(), "not-an-object-id")
		assert.ErrorIs(mt, err, ErrNoteNotFound)
		assert.ErrorIs(mt, repo.DeleteNoteByID(context.Background(), "nope"), ErrNoteNotFound)
	})

	mt.Run("find by author", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			noteBSON(primitive.NewObjectID(), "a", "", "alice"),
			noteBSON(primitive.NewObjectID(), "b", "", "alice"),
		))

		notes, err := repo.FindNotesByAuthor(context.Background(), "alice")
		require.NoError(mt, err)
		assert.Len(mt, notes, 2)
	})

	mt.Run("search returns empty slice", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		notes, err := repo.SearchNotesByAuthor(context.Background(), "alice", "milk")
		require.NoError(mt, err)
		assert.NotNil(mt, notes)
		assert.Empty(mt, notes)
	})

	mt.Run("update returns new document", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: noteBSON(id, "t2", "b2", "alice")},
		))

		note, err := repo.UpdateNote(context.Background(), id.Hex(), "t2", "b2")
		require.NoError(mt, err)
		assert.Equal(mt, "t2", note.Title)
		assert.Equal(mt, "alice", note.Author)
	})

	mt.Run("update of missing note does not upsert", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.UpdateNote(context.Background(), primitive.NewObjectID().Hex(), "t", "b")
		assert.ErrorIs(mt, err, ErrNoteNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewNoteRepository(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(mt, repo.DeleteNoteByID(context.Background(), primitive.NewObjectID().Hex()))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(mt, repo.DeleteNoteByID(context.Background(), primitive.NewObjectID().Hex()), ErrNoteNotFound)
	})
}
