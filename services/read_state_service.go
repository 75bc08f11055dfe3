package services

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/akinalp/feedmark/models"
	"github.com/akinalp/feedmark/pkg"
	"github.com/akinalp/feedmark/pkg/readstate"
	"github.com/akinalp/feedmark/repository"
)

// ReadStateService, kullanıcı + dataset bazında okuma durumu iş mantığı.
//
// Her mutasyon aynı döngüyü izler: Load → değiştir → Persist (compact) →
// güncel görünümü dön. Aynı kullanıcının eşzamanlı yazmaları arasında
// koruma yoktur; son yazan kazanır.
type ReadStateService interface {
	Get(ctx context.Context, userID, datasetID string) (*models.ReadStateView, error)
	Status(ctx context.Context, userID, datasetID string, ids []int64) ([]models.ItemStatus, error)
	// FilterUnread, ids içinden okunmamış olanları giriş sırasıyla döner.
	FilterUnread(ctx context.Context, userID, datasetID string, ids []int64) ([]int64, error)
	MarkRead(ctx context.Context, userID, datasetID string, ids ...int64) (*models.ReadStateView, error)
	MarkUnread(ctx context.Context, userID, datasetID string, ids ...int64) (*models.ReadStateView, error)
	// Toggle, okunmuş item'ı okunmamış, diğerlerini okunmuş yapar.
	Toggle(ctx context.Context, userID, datasetID string, id int64) (*models.ToggleResult, error)
	// MarkAllRead, upTo dahil her id'yi okunmuş yapar, üstündekileri okunmamış.
	MarkAllRead(ctx context.Context, userID, datasetID string, upTo int64) (*models.ReadStateView, error)
	// MarkAllReadOf, listelenen en büyük id'ye kadar (en az 1) MarkAllRead yapar.
	MarkAllReadOf(ctx context.Context, userID, datasetID string, ids []int64) (*models.ReadStateView, error)
	Reset(ctx context.Context, userID, datasetID string) (*models.ReadStateView, error)
}

type readStateService struct {
	slots repository.KVRepository
}

// NewReadStateService, constructor. slots, her kullanıcının kendi
// namespace'inde (user ID) tutulduğu slot deposudur.
func NewReadStateService(slots repository.KVRepository) ReadStateService {
	return &readStateService{slots: slots}
}

func (s *readStateService) Get(ctx context.Context, userID, datasetID string) (*models.ReadStateView, error) {
	datasetID, state, err := s.load(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}
	return toView(datasetID, state), nil
}

func (s *readStateService) Status(ctx context.Context, userID, datasetID string, ids []int64) ([]models.ItemStatus, error) {
	if err := models.ValidateItemIDs(ids); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	_, state, err := s.load(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.ItemStatus, len(ids))
	for i, id := range ids {
		statuses[i] = models.ItemStatus{ID: id, Read: state.IsRead(id)}
	}
	return statuses, nil
}

func (s *readStateService) FilterUnread(ctx context.Context, userID, datasetID string, ids []int64) ([]int64, error) {
	if err := models.ValidateItemIDs(ids); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	_, state, err := s.load(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}

	unread := make([]int64, 0, len(ids))
	for _, id := range ids {
		if state.IsUnread(id) {
			unread = append(unread, id)
		}
	}
	return unread, nil
}

func (s *readStateService) MarkRead(ctx context.Context, userID, datasetID string, ids ...int64) (*models.ReadStateView, error) {
	return s.mutateIDs(ctx, userID, datasetID, ids, (*readstate.State).MarkRead)
}

func (s *readStateService) MarkUnread(ctx context.Context, userID, datasetID string, ids ...int64) (*models.ReadStateView, error) {
	return s.mutateIDs(ctx, userID, datasetID, ids, (*readstate.State).MarkUnread)
}

func (s *readStateService) Toggle(ctx context.Context, userID, datasetID string, id int64) (*models.ToggleResult, error) {
	if err := models.ValidateItemID(id); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var nowRead bool
	view, err := s.mutate(ctx, userID, datasetID, func(state *readstate.State) {
		if state.IsRead(id) {
			state.MarkUnread(id)
		} else {
			state.MarkRead(id)
		}
		nowRead = state.IsRead(id)
	})
	if err != nil {
		return nil, err
	}

	return &models.ToggleResult{ID: id, Read: nowRead, State: *view}, nil
}

func (s *readStateService) MarkAllRead(ctx context.Context, userID, datasetID string, upTo int64) (*models.ReadStateView, error) {
	if upTo < 0 || upTo > models.MaxItemID {
		return nil, fmt.Errorf("%w: up_to must be between 0 and %d", pkg.ErrBadRequest, models.MaxItemID)
	}

	return s.mutate(ctx, userID, datasetID, func(state *readstate.State) {
		state.MarkAllReadUpTo(upTo)
	})
}

func (s *readStateService) MarkAllReadOf(ctx context.Context, userID, datasetID string, ids []int64) (*models.ReadStateView, error) {
	if err := models.ValidateItemIDs(ids); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	highest := int64(1)
	if len(ids) > 0 {
		highest = max(highest, slices.Max(ids))
	}
	return s.MarkAllRead(ctx, userID, datasetID, highest)
}

func (s *readStateService) Reset(ctx context.Context, userID, datasetID string) (*models.ReadStateView, error) {
	datasetID, err := validateDataset(datasetID)
	if err != nil {
		return nil, err
	}

	state, err := readstate.Reset(ctx, repository.Slots(s.slots, userID), datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset read state: %w", err)
	}

	log.Printf("[readstate] user %s reset dataset %q", userID, datasetID)
	return toView(datasetID, state), nil
}

// ─── Private Helpers ───

// load, dataset'i doğrular ve durumu okur. Reinit olduysa loglar.
func (s *readStateService) load(ctx context.Context, userID, datasetID string) (string, readstate.State, error) {
	datasetID, err := validateDataset(datasetID)
	if err != nil {
		return "", readstate.State{}, err
	}

	state, res, err := readstate.Load(ctx, repository.Slots(s.slots, userID), datasetID)
	if err != nil {
		return "", readstate.State{}, fmt.Errorf("failed to load read state: %w", err)
	}

	switch res.Reason {
	case readstate.ReinitDataset:
		log.Printf("[readstate] user %s: dataset changed to %q, state reinitialized", userID, datasetID)
	case readstate.ReinitMalformed:
		log.Printf("[readstate] user %s: stored state malformed (%v), reinitialized", userID, res.Cause)
	}

	return datasetID, state, nil
}

func (s *readStateService) mutate(ctx context.Context, userID, datasetID string, fn func(*readstate.State)) (*models.ReadStateView, error) {
	datasetID, state, err := s.load(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}

	fn(&state)

	if err := readstate.Persist(ctx, repository.Slots(s.slots, userID), &state); err != nil {
		return nil, fmt.Errorf("failed to persist read state: %w", err)
	}
	return toView(datasetID, state), nil
}

func (s *readStateService) mutateIDs(ctx context.Context, userID, datasetID string, ids []int64, mark func(*readstate.State, int64)) (*models.ReadStateView, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids is required", pkg.ErrBadRequest)
	}
	if err := models.ValidateItemIDs(ids); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	return s.mutate(ctx, userID, datasetID, func(state *readstate.State) {
		for _, id := range ids {
			mark(state, id)
		}
	})
}

func validateDataset(datasetID string) (string, error) {
	datasetID, err := models.ValidateDatasetID(datasetID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return datasetID, nil
}

func toView(datasetID string, state readstate.State) *models.ReadStateView {
	return &models.ReadStateView{
		DatasetID:        datasetID,
		Threshold:        state.Threshold,
		ReadExceptions:   state.Read.Sorted(),
		UnreadExceptions: state.Unread.Sorted(),
	}
}
