package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/policy"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/validation"
)

type CashFlowQuery struct {
	Type      string
	UserID    *int64
	ShiftID   *int64
	Date      string
	StartDate string
	EndDate   string
}

func (s *Service) cashFlowFilter(q CashFlowQuery) (domain.CashFlowFilter, error) {
	switch q.Type {
	case "", domain.CashFlowIn, domain.CashFlowOut:
	default:
		return domain.CashFlowFilter{}, validation.Field("type", "Jenis kas harus in atau out")
	}
	// Date handling is shared with the transaction list.
	window, err := s.transactionFilter(TransactionQuery{Date: q.Date, StartDate: q.StartDate, EndDate: q.EndDate})
	if err != nil {
		return domain.CashFlowFilter{}, err
	}
	return domain.CashFlowFilter{Type: q.Type, UserID: q.UserID, ShiftID: q.ShiftID, From: window.From, To: window.To}, nil
}

func (s *Service) ListCashFlows(ctx context.Context, q CashFlowQuery, page domain.PageRequest) (domain.Page[domain.CashFlowView], error) {
	if _, err := ActorOrError(ctx); err != nil {
		return domain.Page[domain.CashFlowView]{}, err
	}
	filter, err := s.cashFlowFilter(q)
	if err != nil {
		return domain.Page[domain.CashFlowView]{}, err
	}
	flows, err := s.repo.ListCashFlows(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.CashFlowView]{}, err
	}
	return mapPage(flows, domain.NewCashFlowView), nil
}

// TodayCashFlows lists today's ledger entries, optionally the actor's own.
func (s *Service) TodayCashFlows(ctx context.Context, flowType string, own bool, page domain.PageRequest) (domain.Page[domain.CashFlowView], error) {
	actor, err := ActorOrError(ctx)
	if err != nil {
		return domain.Page[domain.CashFlowView]{}, err
	}
	filter, err := s.cashFlowFilter(CashFlowQuery{Type: flowType, Date: s.today().Format("2006-01-02")})
	if err != nil {
		return domain.Page[domain.CashFlowView]{}, err
	}
	if own {
		filter.UserID = &actor.UserID
	}
	flows, err := s.repo.ListCashFlows(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.CashFlowView]{}, err
	}
	return mapPage(flows, domain.NewCashFlowView), nil
}

type CashFlowSummaryQuery struct {
	Date    string
	UserID  *int64
	ShiftID *int64
}

// CashFlowSummary totals one day and its calendar month, plus the five most
// recent entries of the day.
func (s *Service) CashFlowSummary(ctx context.Context, q CashFlowSummaryQuery) (domain.CashFlowSummary, error) {
	if _, err := ActorOrError(ctx); err != nil {
		return domain.CashFlowSummary{}, err
	}
	day, err := s.parseDay("date", q.Date)
	if err != nil {
		return domain.CashFlowSummary{}, err
	}

	from, to := s.dayRange(day)
	dayFilter := domain.CashFlowFilter{UserID: q.UserID, ShiftID: q.ShiftID, From: &from, To: &to}
	today, err := s.repo.SumCashFlows(ctx, dayFilter)
	if err != nil {
		return domain.CashFlowSummary{}, err
	}

	monthStart := domain.DateOf(day, s.loc).AddDate(0, 0, 1-day.Day())
	monthFrom, monthTo := monthStart.UTC(), monthStart.AddDate(0, 1, 0).UTC()
	month, err := s.repo.SumCashFlows(ctx, domain.CashFlowFilter{UserID: q.UserID, ShiftID: q.ShiftID, From: &monthFrom, To: &monthTo})
	if err != nil {
		return domain.CashFlowSummary{}, err
	}

	recent, err := s.repo.ListCashFlows(ctx, dayFilter, domain.PageRequest{Page: 1, PerPage: 5})
	if err != nil {
		return domain.CashFlowSummary{}, err
	}
	summary := domain.CashFlowSummary{
		Date:   day.Format("2006-01-02"),
		Today:  today,
		Month:  month,
		Recent: make([]domain.CashFlowView, 0, len(recent.Items)),
	}
	for _, flow := range recent.Items {
		summary.Recent = append(summary.Recent, domain.NewCashFlowView(flow))
	}
	return summary, nil
}

func (s *Service) GetCashFlow(ctx context.Context, id int64) (domain.CashFlowView, error) {
	if _, err := ActorOrError(ctx); err != nil {
		return domain.CashFlowView{}, err
	}
	flow, err := s.repo.GetCashFlow(ctx, id)
	if err != nil {
		return domain.CashFlowView{}, err
	}
	return domain.NewCashFlowView(*flow), nil
}

func (s *Service) CreateCashFlow(ctx context.Context, req domain.CashFlowRequest) (domain.CashFlowView, error) {
	if err := validation.Struct(req); err != nil {
		return domain.CashFlowView{}, err
	}
	actor, err := s.authorize(ctx, policy.CashFlowCreate, policy.Resource{Kind: "cash_flow"})
	if err != nil {
		return domain.CashFlowView{}, err
	}
	if err := s.checkShift(ctx, req.ShiftID); err != nil {
		return domain.CashFlowView{}, err
	}

	flow, err := s.repo.CreateCashFlow(ctx, domain.CashFlow{
		UserID:      actor.UserID,
		ShiftID:     req.ShiftID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.CashFlowView{}, err
	}
	s.logAudit(ctx, "cashflow.create", "cash_flow", flow.ID, fmt.Sprintf("type=%s amount=%s", flow.Type, flow.Amount.StringFixed(2)))
	return domain.NewCashFlowView(*flow), nil
}

func (s *Service) UpdateCashFlow(ctx context.Context, id int64, req domain.CashFlowRequest) (domain.CashFlowView, error) {
	existing, err := s.repo.GetCashFlow(ctx, id)
	if err != nil {
		return domain.CashFlowView{}, err
	}
	if _, err := s.authorize(ctx, policy.CashFlowUpdate, policy.Owned("cash_flow", id, existing.UserID)); err != nil {
		return domain.CashFlowView{}, policy.Deny(err, "Anda tidak memiliki akses untuk mengubah data ini")
	}
	if err := validation.Struct(req); err != nil {
		return domain.CashFlowView{}, err
	}
	if err := s.checkShift(ctx, req.ShiftID); err != nil {
		return domain.CashFlowView{}, err
	}

	existing.Type = req.Type
	existing.Amount = req.Amount
	existing.Description = strings.TrimSpace(req.Description)
	existing.ShiftID = req.ShiftID
	flow, err := s.repo.UpdateCashFlow(ctx, *existing)
	if err != nil {
		return domain.CashFlowView{}, err
	}
	s.logAudit(ctx, "cashflow.update", "cash_flow", flow.ID, fmt.Sprintf("type=%s amount=%s", flow.Type, flow.Amount.StringFixed(2)))
	return domain.NewCashFlowView(*flow), nil
}

func (s *Service) DeleteCashFlow(ctx context.Context, id int64) error {
	existing, err := s.repo.GetCashFlow(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, policy.CashFlowDelete, policy.Owned("cash_flow", id, existing.UserID)); err != nil {
		return policy.Deny(err, "Anda tidak memiliki akses untuk menghapus data ini")
	}
	if err := s.repo.DeleteCashFlow(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "cashflow.delete", "cash_flow", id, "")
	return nil
}

func (s *Service) checkShift(ctx context.Context, shiftID *int64) error {
	if shiftID == nil {
		return nil
	}
	if _, err := s.repo.GetShift(ctx, *shiftID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validation.Field("shift_id", "Shift tidak ditemukan")
		}
		return err
	}
	return nil
}
