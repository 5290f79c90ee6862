// Package app provides the core service implementing the dependencies
// required by the HTTP API: the leaderboard synchronizer, the Secret Santa
// reveal and the decorative meme catalog.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vmtlabs/tinsel/internal/adapters/store"
	"github.com/vmtlabs/tinsel/internal/adapters/tenor"
	"github.com/vmtlabs/tinsel/internal/domain/assign"
	"github.com/vmtlabs/tinsel/internal/domain/model"
	"github.com/vmtlabs/tinsel/internal/domain/roster"
	"github.com/vmtlabs/tinsel/pkg/logger"
	"github.com/vmtlabs/tinsel/pkg/metrics"
)

// Default service configuration.
const (
	defaultMaxRows = 50
)

// Service implements the API dependencies. It keeps no per-request state:
// any number of submissions may run concurrently, and correctness under
// races on one (event, participant) key is delegated to the store's upsert.
type Service struct {
	store   store.Store
	roster  *roster.Roster
	source  assign.Source
	memes   *tenor.Client
	log     logger.Logger
	eventID string
	maxRows int
	now     func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the row-store driver.
func WithStore(s store.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithRoster sets the participant roster.
func WithRoster(r *roster.Roster) Option {
	return func(svc *Service) {
		if r != nil {
			svc.roster = r
		}
	}
}

// WithAssignmentSource sets how gift assignments are produced.
func WithAssignmentSource(src assign.Source) Option {
	return func(svc *Service) {
		if src != nil {
			svc.source = src
		}
	}
}

// WithMemeCatalog sets the decorative GIF catalog client.
func WithMemeCatalog(c *tenor.Client) Option {
	return func(svc *Service) {
		if c != nil {
			svc.memes = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(svc *Service) {
		if log != nil {
			svc.log = log
		}
	}
}

// WithDefaultEventID sets the event scope used when a request names none.
func WithDefaultEventID(id string) Option {
	return func(svc *Service) {
		if id != "" {
			svc.eventID = id
		}
	}
}

// WithMaxRows caps leaderboard reads.
func WithMaxRows(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxRows = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	svc := &Service{
		maxRows: defaultMaxRows,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// DefaultEventID returns the event scope used when a request names none.
func (s *Service) DefaultEventID() string {
	return s.eventID
}

// Leaderboard returns up to the configured row cap for an event, ordered by
// best_score descending with ties broken by earliest updated_at.
func (s *Service) Leaderboard(ctx context.Context, eventID string) ([]model.ScoreRecord, error) {
	rows, err := s.store.Top(ctx, eventID, s.maxRows)
	if err != nil {
		return nil, err
	}
	metrics.RecordLeaderboardRead()
	return rows, nil
}

// SubmitScore merges one submission into the stored row for
// (eventID, sub.ParticipantID).
//
// The advisory read only chooses between the partial-update and full-upsert
// paths; the store's conflict-resolving upsert is the actual correctness
// boundary under concurrent writers:
//
//  1. Read the existing best score, if any.
//  2. If a row exists and the submitted score does not beat it:
//     no meme fields present -> nothing is written;
//     otherwise only name, updated_at and the present meme fields are patched.
//  3. Otherwise the whole row is upserted, meme fields defaulting to null
//     when absent.
//
// An equal score never refreshes moves/seconds, even if the equal run was
// achieved with fewer moves.
func (s *Service) SubmitScore(ctx context.Context, eventID string, sub model.Submission) (model.SyncResult, error) {
	best, exists, err := s.store.BestScore(ctx, eventID, sub.ParticipantID)
	if err != nil {
		return model.SyncResult{}, err
	}

	hasMemeUpdate := sub.HasMemeUpdate()
	now := s.now()

	if exists && sub.BestScore <= best {
		if !hasMemeUpdate {
			metrics.RecordNoopSubmission()
			return model.SyncResult{UpdatedScore: false, UpdatedMeme: false}, nil
		}
		patch := model.Patch{
			Name:        sub.Name,
			UpdatedAt:   now,
			MemeURL:     sub.MemeURL,
			MemeTinyURL: sub.MemeTinyURL,
		}
		if err := s.store.Patch(ctx, eventID, sub.ParticipantID, patch); err != nil {
			return model.SyncResult{}, err
		}
		metrics.RecordMemeOnlyUpdate()
		if s.log != nil {
			s.log.Debug(ctx, "meme updated without score change",
				logger.String("event_id", eventID),
				logger.String("participant_id", sub.ParticipantID))
		}
		return model.SyncResult{UpdatedScore: false, UpdatedMeme: true}, nil
	}

	rec := model.ScoreRecord{
		EventID:       eventID,
		ParticipantID: sub.ParticipantID,
		Name:          sub.Name,
		BestScore:     sub.BestScore,
		Moves:         sub.Moves,
		Seconds:       sub.Seconds,
		MemeURL:       sub.MemeURL.Pointer(),
		MemeTinyURL:   sub.MemeTinyURL.Pointer(),
		UpdatedAt:     now,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return model.SyncResult{}, err
	}
	metrics.RecordScoreUpdate()
	if s.log != nil {
		s.log.Debug(ctx, "best score upserted",
			logger.String("event_id", eventID),
			logger.String("participant_id", sub.ParticipantID),
			logger.Int("best_score", sub.BestScore))
	}
	return model.SyncResult{UpdatedScore: true, UpdatedMeme: hasMemeUpdate}, nil
}

// Reveal authenticates a participant by pin and returns their assigned gift
// recipient. Pure roster and assignment lookups; never touches the store.
func (s *Service) Reveal(participantID, pin string) (roster.Participant, error) {
	if s.roster == nil {
		return roster.Participant{}, ErrUnknownParticipant
	}
	if _, ok := s.roster.ByID(participantID); !ok {
		return roster.Participant{}, fmt.Errorf("%w: %s", ErrUnknownParticipant, participantID)
	}
	if !s.roster.Authenticate(participantID, pin) {
		return roster.Participant{}, ErrBadPIN
	}
	assignments := s.Assignments()
	recipientID, ok := assignments[participantID]
	if !ok {
		return roster.Participant{}, fmt.Errorf("%w: no assignment for %s", ErrUnknownParticipant, participantID)
	}
	recipient, ok := s.roster.ByID(recipientID)
	if !ok {
		return roster.Participant{}, fmt.Errorf("%w: %s", ErrUnknownParticipant, recipientID)
	}
	return recipient, nil
}

// Assignments returns the total participant -> recipient mapping. It is
// recomputed from the configured source on every call and is identical for
// identical inputs; nothing here is persisted.
func (s *Service) Assignments() map[string]string {
	if s.source == nil {
		return map[string]string{}
	}
	return s.source.Assignments()
}

// SearchMemes returns decorative GIFs for a query. With no catalog
// configured it returns an empty list.
func (s *Service) SearchMemes(ctx context.Context, query string, limit int) ([]tenor.GIF, error) {
	if s.memes == nil {
		return []tenor.GIF{}, nil
	}
	gifs, err := s.memes.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return gifs, nil
}
