package service

import (
	"context"
	"fmt"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
)

func (s *Service) clock() domain.TimeOfDay {
	return domain.ClockOf(s.now().In(s.loc))
}

func (s *Service) ListShifts(ctx context.Context) ([]domain.ShiftView, error) {
	shifts, err := s.repo.ListShifts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	views := make([]domain.ShiftView, 0, len(shifts))
	for _, shift := range shifts {
		views = append(views, domain.NewShiftView(shift, now))
	}
	return views, nil
}

func (s *Service) GetShift(ctx context.Context, id int64) (domain.ShiftView, error) {
	shift, err := s.repo.GetShift(ctx, id)
	if err != nil {
		return domain.ShiftView{}, err
	}
	return domain.NewShiftView(*shift, s.clock()), nil
}

// CurrentShift reports the active shift covering the store's wall clock.
func (s *Service) CurrentShift(ctx context.Context) (domain.CurrentShift, error) {
	local := s.now().In(s.loc)
	shift, err := s.shiftAt(ctx, domain.ClockOf(local))
	if err != nil {
		return domain.CurrentShift{}, err
	}
	if shift == nil {
		return domain.CurrentShift{}, fmt.Errorf("no shift covers %s: %w", local.Format("15:04"), store.ErrNotFound)
	}
	return domain.CurrentShift{
		Shift:       domain.NewShiftView(*shift, domain.ClockOf(local)),
		CurrentTime: local.Format("15:04:05"),
	}, nil
}

// shiftAt returns the first active shift covering t, or nil.
func (s *Service) shiftAt(ctx context.Context, t domain.TimeOfDay) (*domain.Shift, error) {
	shifts, err := s.repo.ListShifts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range shifts {
		if shifts[i].IsActive && shifts[i].Covers(t) {
			return &shifts[i], nil
		}
	}
	return nil, nil
}
