package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

// ScheduleRepo implements repository.ScheduleRepository over the shared store.
type ScheduleRepo struct {
	store *Store
}

func (r *ScheduleRepo) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *window
	r.store.windows[window.ID] = &cp
	return nil
}

func (r *ScheduleRepo) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	w, ok := r.store.windows[id]
	if !ok {
		return nil, apperrors.NotFound("availability window")
	}
	cp := *w
	return &cp, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, window *model.AvailabilityWindow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.windows[window.ID]; !ok {
		return apperrors.NotFound("availability window")
	}
	window.UpdatedAt = time.Now()
	cp := *window
	r.store.windows[window.ID] = &cp
	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.windows[id]; !ok {
		return apperrors.NotFound("availability window")
	}
	delete(r.store.windows, id)
	return nil
}

func (r *ScheduleRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var windows []*model.AvailabilityWindow
	for _, w := range r.store.windows {
		if w.DoctorID == doctorID {
			cp := *w
			windows = append(windows, &cp)
		}
	}
	sort.Slice(windows, func(i, j int) bool {
		if !windows[i].Date.Equal(windows[j].Date) {
			return windows[i].Date.Before(windows[j].Date)
		}
		return windows[i].StartTime < windows[j].StartTime
	})
	return windows, nil
}
