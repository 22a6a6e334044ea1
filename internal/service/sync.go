package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/policy"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/validation"
)

var syncTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05"}

// SyncTransactions replays orders captured offline. Every entry is stored
// on its own, so one bad entry never blocks the rest of the batch. A local
// id seen before resolves to the stored order and is reported as a
// duplicate.
func (s *Service) SyncTransactions(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error) {
	actor, err := s.authorize(ctx, policy.TransactionSync, policy.Resource{Kind: "transaction"})
	if err != nil {
		return domain.SyncResult{}, err
	}
	if len(req.Transactions) == 0 {
		return domain.SyncResult{}, validation.Field("transactions", "transactions wajib diisi")
	}

	result := domain.SyncResult{
		Success:       make([]domain.SyncSuccess, 0, len(req.Transactions)),
		Failed:        make([]domain.SyncFailure, 0),
		TotalReceived: len(req.Transactions),
	}
	for _, entry := range req.Transactions {
		success, err := s.syncOne(ctx, actor, entry)
		if err != nil {
			result.Failed = append(result.Failed, domain.SyncFailure{LocalID: entry.LocalID, Error: syncErrorMessage(err)})
			continue
		}
		result.Success = append(result.Success, success)
	}
	result.TotalSuccess = len(result.Success)
	result.TotalFailed = len(result.Failed)

	log.Printf("[service] sync by user=%d received=%d success=%d failed=%d", actor.UserID, result.TotalReceived, result.TotalSuccess, result.TotalFailed)
	return result, nil
}

func (s *Service) syncOne(ctx context.Context, actor domain.Actor, entry domain.SyncTransactionInput) (domain.SyncSuccess, error) {
	localID := strings.TrimSpace(entry.LocalID)
	if localID == "" {
		return domain.SyncSuccess{}, validation.Field("local_id", "local id wajib diisi")
	}

	if existing, err := s.repo.FindTransactionByClientRef(ctx, localID); err == nil {
		return duplicateSuccess(localID, existing), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.SyncSuccess{}, err
	}

	createdAt, err := s.parseSyncTime(entry.CreatedAt)
	if err != nil {
		return domain.SyncSuccess{}, err
	}
	if err := validation.Struct(entry.CreateTransactionRequest); err != nil {
		return domain.SyncSuccess{}, err
	}

	tx, err := s.assemble(ctx, actor, entry.CreateTransactionRequest, createdAt, localID)
	if errors.Is(err, store.ErrDuplicateClientRef) {
		// A concurrent sync of the same order won the insert.
		existing, findErr := s.repo.FindTransactionByClientRef(ctx, localID)
		if findErr != nil {
			return domain.SyncSuccess{}, findErr
		}
		return duplicateSuccess(localID, existing), nil
	}
	if err != nil {
		return domain.SyncSuccess{}, err
	}
	return domain.SyncSuccess{LocalID: localID, TransactionID: tx.ID, InvoiceNumber: tx.InvoiceNumber}, nil
}

func (s *Service) parseSyncTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, validation.Field("created_at", "created at wajib diisi")
	}
	for _, layout := range syncTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, validation.Field("created_at", "Format created_at tidak valid")
}

func duplicateSuccess(localID string, tx *domain.Transaction) domain.SyncSuccess {
	return domain.SyncSuccess{LocalID: localID, TransactionID: tx.ID, InvoiceNumber: tx.InvoiceNumber, Duplicate: true}
}

// syncErrorMessage renders a per-entry failure for the client. Validation
// failures name their field; anything unexpected is masked.
func syncErrorMessage(err error) string {
	if verr, ok := validation.As(err); ok {
		keys := make([]string, 0, len(verr.Fields))
		for key := range verr.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+": "+strings.Join(verr.Fields[key], ", "))
		}
		return strings.Join(parts, "; ")
	}
	log.Printf("[service] WARN: sync entry failed: %v", err)
	return "Gagal menyimpan transaksi"
}
