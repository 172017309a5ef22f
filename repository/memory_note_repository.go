package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"notes-server/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ NoteRepositoryInterface = (*MemoryNoteRepository)(nil)

// MemoryNoteRepository keeps notes in a map. It backs the "memory" storage
// driver and the handler tests.
type MemoryNoteRepository struct {
	data map[string]models.Note
	mu   sync.RWMutex
}

func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{
		data: make(map[string]models.Note),
	}
}

func (m *MemoryNoteRepository) SaveNote(ctx context.Context, note models.Note) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note.ID = primitive.NewObjectID().Hex()
	note.Title = strings.Clone(note.Title)
	note.Body = strings.Clone(note.Body)
	note.Author = strings.Clone(note.Author)
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	m.data[note.ID] = note
	return note, nil
}

func (m *MemoryNoteRepository) FindNoteByID(ctx context.Context, id string) (models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	note, ok := m.data[noteKey(id)]
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}
	return note, nil
}

func (m *MemoryNoteRepository) FindNotesByAuthor(ctx context.Context, author string) ([]models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]models.Note, 0)
	for _, note := range m.data {
		if note.Author == author {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

// SearchNotesByAuthor approximates $text: a note matches when any
// whitespace-separated term of query occurs in its title or body,
// ignoring case.
func (m *MemoryNoteRepository) SearchNotesByAuthor(ctx context.Context, author, query string) ([]models.Note, error) {
	terms := strings.Fields(strings.ToLower(query))

	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]models.Note, 0)
	for _, note := range m.data {
		if note.Author != author {
			continue
		}
		text := strings.ToLower(note.Title + " " + note.Body)
		for _, term := range terms {
			if strings.Contains(text, strings.Trim(term, `"`)) {
				notes = append(notes, note)
				break
			}
		}
	}
	return notes, nil
}

func (m *MemoryNoteRepository) UpdateNote(ctx context.Context, id, title, body string) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.data[noteKey(id)]
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}
	note.Title = strings.Clone(title)
	note.Body = strings.Clone(body)
	note.UpdatedAt = time.Now().UTC()
	m.data[note.ID] = note
	return note, nil
}

func (m *MemoryNoteRepository) DeleteNoteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := noteKey(id)
	if _, ok := m.data[key]; !ok {
		return ErrNoteNotFound
	}
	delete(m.data, key)
	return nil
}

// noteKey matches ObjectIDFromHex, which accepts either case.
func noteKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
