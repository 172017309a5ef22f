package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"notes-server/models"
	"notes-server/repository"

	"go.uber.org/zap"
)

var (
	ErrNoteNotFound     = errors.New("note not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrCreateFailed     = errors.New("problem to create a new note")
	ErrRetrieveFailed   = errors.New("problem to get the note")
	ErrListFailed       = errors.New("problem to get the notes")
	ErrSearchFailed     = errors.New("problem to search the notes")
	ErrUpdateFailed     = errors.New("problem to update the note")
	ErrDeleteFailed     = errors.New("problem to delete the note")
)

// NoteService enforces note ownership on top of a NoteRepositoryInterface.
// Every by-id operation checks existence first and ownership second.
type NoteService struct {
	repo   repository.NoteRepositoryInterface
	events NoteEventPublisher
	log    *zap.SugaredLogger
}

func NewNoteService(repo repository.NoteRepositoryInterface, events NoteEventPublisher, log *zap.SugaredLogger) *NoteService {
	if events == nil {
		events = NopNoteEventPublisher{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NoteService{repo: repo, events: events, log: log}
}

func (s *NoteService) Create(ctx context.Context, p models.Principal, title, body string) (models.Note, error) {
	s.log.Debugw("creating note", "author", p.ID, "title", title)

	note, err := s.repo.SaveNote(ctx, models.Note{
		Title:  title,
		Body:   body,
		Author: models.CanonicalID(p.ID),
	})
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	s.log.Infow("note saved", "id", note.ID, "author", note.Author)
	s.publish(ctx, models.NoteCreated, note)
	return note, nil
}

func (s *NoteService) GetByID(ctx context.Context, p models.Principal, id string) (models.Note, error) {
	note, err := s.load(ctx, id, ErrRetrieveFailed)
	if err != nil {
		return models.Note{}, err
	}
	if !models.OwnerEqual(p, &note) {
		return models.Note{}, ErrPermissionDenied
	}
	return note, nil
}

func (s *NoteService) ListMine(ctx context.Context, p models.Principal) ([]models.Note, error) {
	notes, err := s.repo.FindNotesByAuthor(ctx, models.CanonicalID(p.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListFailed, err)
	}
	return ownedBy(p, notes), nil
}

// SearchMine returns an empty result for a blank query, which is what
// MongoDB's $text yields for an empty search string.
func (s *NoteService) SearchMine(ctx context.Context, p models.Principal, query string) ([]models.Note, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Note{}, nil
	}
	notes, err := s.repo.SearchNotesByAuthor(ctx, models.CanonicalID(p.ID), query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	return ownedBy(p, notes), nil
}

func (s *NoteService) Update(ctx context.Context, p models.Principal, id, title, body string) (models.Note, error) {
	existing, err := s.load(ctx, id, ErrUpdateFailed)
	if err != nil {
		return models.Note{}, err
	}
	if !models.OwnerEqual(p, &existing) {
		return models.Note{}, ErrPermissionDenied
	}

	note, err := s.repo.UpdateNote(ctx, existing.ID, title, body)
	if errors.Is(err, repository.ErrNoteNotFound) {
		// deleted between load and update
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	s.publish(ctx, models.NoteUpdated, note)
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, p models.Principal, id string) error {
	existing, err := s.load(ctx, id, ErrDeleteFailed)
	if err != nil {
		return err
	}
	if !models.OwnerEqual(p, &existing) {
		return ErrPermissionDenied
	}

	err = s.repo.DeleteNoteByID(ctx, existing.ID)
	if errors.Is(err, repository.ErrNoteNotFound) {
		return ErrNoteNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	s.publish(ctx, models.NoteDeleted, existing)
	return nil
}

// load maps a missing note to ErrNoteNotFound and any other store failure
// to kind.
func (s *NoteService) load(ctx context.Context, id string, kind error) (models.Note, error) {
	note, err := s.repo.FindNoteByID(ctx, id)
	if errors.Is(err, repository.ErrNoteNotFound) {
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: %v", kind, err)
	}
	return note, nil
}

func (s *NoteService) publish(ctx context.Context, kind string, note models.Note) {
	event := models.NoteEvent{Type: kind, Author: note.Author, Note: note}
	if err := s.events.PublishNoteEvent(ctx, event); err != nil {
		s.log.Warnw("failed to publish note event", "type", kind, "id", note.ID, "error", err)
	}
}

func ownedBy(p models.Principal, notes []models.Note) []models.Note {
	owned := make([]models.Note, 0, len(notes))
	for i := range notes {
		if models.OwnerEqual(p, &notes[i]) {
			owned = append(owned, notes[i])
		}
	}
	return owned
}
