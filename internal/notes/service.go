// Package notes layers admin annotations on top of bookings. Notes never
// touch the booking version or its history.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

const maxNoteLength = 4000

type bookingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// Input is a new note.
type Input struct {
	BookingID uuid.UUID
	Text      string
	Type      enums.NoteType
	Pinned    bool
	Author    types.Actor
}

type Service interface {
	AddNote(ctx context.Context, input Input) (*models.BookingNote, error)
	DeleteNote(ctx context.Context, bookingID, noteID uuid.UUID) error
	TogglePin(ctx context.Context, bookingID, noteID uuid.UUID, pinned bool) (*models.BookingNote, error)
	ListNotes(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error)
	Highlights(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error)
}

type service struct {
	repo     Repository
	bookings bookingFinder
	now      func() time.Time
}

func NewService(repo Repository, bookings bookingFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notes repository required")
	}
	if bookings == nil {
		return nil, fmt.Errorf("booking finder required")
	}
	return &service{
		repo:     repo,
		bookings: bookings,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) AddNote(ctx context.Context, input Input) (*models.BookingNote, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note text required")
	}
	if utf8.RuneCountInString(text) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("note text exceeds %d characters", maxNoteLength))
	}
	noteType := input.Type
	if noteType == "" {
		noteType = enums.NoteTypeInfo
	}
	if !noteType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid note type %q", input.Type))
	}
	if err := s.ensureBooking(ctx, input.BookingID); err != nil {
		return nil, err
	}

	note := &models.BookingNote{
		ID:         uuid.New(),
		BookingID:  input.BookingID,
		Text:       text,
		Type:       noteType,
		Pinned:     input.Pinned,
		AuthorID:   input.Author.ID,
		AuthorRole: input.Author.Role,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create note")
	}
	return note, nil
}

func (s *service) DeleteNote(ctx context.Context, bookingID, noteID uuid.UUID) error {
	if bookingID == uuid.Nil || noteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id and note id required")
	}
	deleted, err := s.repo.Delete(ctx, bookingID, noteID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete note")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "note not found")
	}
	return nil
}

func (s *service) TogglePin(ctx context.Context, bookingID, noteID uuid.UUID, pinned bool) (*models.BookingNote, error) {
	if bookingID == uuid.Nil || noteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id and note id required")
	}
	found, err := s.repo.SetPinned(ctx, bookingID, noteID, pinned)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update note pin")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "note not found")
	}
	note, err := s.repo.FindByID(ctx, bookingID, noteID)
	if err != nil {
		return nil, dbpkg.MapError(err, "note not found", "load note")
	}
	return note, nil
}

func (s *service) ListNotes(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error) {
	if err := s.ensureBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notes")
	}
	if rows == nil {
		rows = []models.BookingNote{}
	}
	return rows, nil
}

// Highlights returns the pinned notes, or the latest unpinned note when
// nothing is pinned.
func (s *service) Highlights(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error) {
	pinned, err := s.repo.ListPinned(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pinned notes")
	}
	if len(pinned) > 0 {
		return pinned, nil
	}
	latest, err := s.repo.LatestUnpinned(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.BookingNote{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest note")
	}
	return []models.BookingNote{*latest}, nil
}

func (s *service) ensureBooking(ctx context.Context, bookingID uuid.UUID) error {
	if bookingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if _, err := s.bookings.FindByID(ctx, bookingID); err != nil {
		return dbpkg.MapError(err, "booking not found", "load booking")
	}
	return nil
}
