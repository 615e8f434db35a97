package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// syncStatuses are the listing states pulled from MercadoLibre during
// reconciliation; closed listings are never fetched.
var syncStatuses = []string{"active", "paused"}

// syncRequest represents a manual sync trigger for one account.
type syncRequest struct {
	accountID string
	done      chan syncResult
}

type syncResult struct {
	publications []model.Publication
	err          error
}

// SyncService drives catalog reconciliation: it pulls each connected
// account's full remote catalog and merges it into the local publication
// cache without touching locally-owned cost fields. All runs, periodic and
// manual alike, are serialized through the Start loop's goroutine, so two
// syncs for the same account cannot interleave within one process.
type SyncService struct {
	tokens       *TokenService
	meli         driven.MeliClient
	accounts     driven.AccountStore
	publications driven.PublicationStore
	interval     time.Duration
	syncCh       chan syncRequest
}

// NewSyncService creates a SyncService with all required dependencies.
func NewSyncService(
	tokens *TokenService,
	meli driven.MeliClient,
	accounts driven.AccountStore,
	publications driven.PublicationStore,
	interval time.Duration,
) *SyncService {
	return &SyncService{
		tokens:       tokens,
		meli:         meli,
		accounts:     accounts,
		publications: publications,
		interval:     interval,
		syncCh:       make(chan syncRequest),
	}
}

// Start begins the reconciliation loop: an immediate pass over all connected
// accounts, then one per interval, interleaved with manual sync requests.
// Start blocks until the context is canceled.
func (s *SyncService) Start(ctx context.Context) {
	s.syncAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-ticker.C:
			s.syncAll(ctx)
		case req := <-s.syncCh:
			pubs, err := s.synchronize(ctx, req.accountID)
			req.done <- syncResult{publications: pubs, err: err}
		}
	}
}

// SyncAccount runs a full reconciliation for one account, bypassing the
// interval. The run is serialized through the service loop; SyncAccount
// blocks until it completes or the context is canceled.
func (s *SyncService) SyncAccount(ctx context.Context, accountID string) ([]model.Publication, error) {
	done := make(chan syncResult, 1)

	select {
	case s.syncCh <- syncRequest{accountID: accountID, done: done}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-done:
		return res.publications, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// syncAll reconciles every connected account sequentially.
func (s *SyncService) syncAll(ctx context.Context) {
	start := time.Now()

	accounts, err := s.accounts.ListConnected(ctx)
	if err != nil {
		slog.Error("list connected accounts failed", "error", err)
		return
	}

	var syncErrors int
	for _, account := range accounts {
		if ctx.Err() != nil {
			return
		}

		if _, err := s.synchronize(ctx, account.ID); err != nil {
			slog.Error("account sync failed", "account", account.ID, "error", err)
			syncErrors++
		}
	}

	if len(accounts) > 0 {
		slog.Info("sync cycle complete",
			"accounts", len(accounts),
			"errors", syncErrors,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	}
}

// synchronize pulls the full remote catalog for one account and upserts it
// into the local cache. A remote failure while listing ids or fetching
// details aborts the run before the sync timestamp is written, so a stale
// timestamp always signals an incomplete pass.
func (s *SyncService) synchronize(ctx context.Context, accountID string) ([]model.Publication, error) {
	account, token, err := s.tokens.ValidAccessToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ids, err := s.meli.SearchItemIDs(ctx, account.MeliUserID, token, syncStatuses)
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}

	if len(ids) == 0 {
		// A seller with no active listings is a valid terminal outcome.
		if err := s.stampSynced(ctx, *account); err != nil {
			return nil, err
		}
		slog.Info("no publications to sync", "account", accountID)
		return []model.Publication{}, nil
	}

	details, err := s.meli.GetItems(ctx, ids, token)
	if err != nil {
		return nil, fmt.Errorf("fetch item details: %w", err)
	}

	now := time.Now().UTC()
	pubs := make([]model.Publication, 0, len(details))
	var created, updated, skipped int

	for _, detail := range details {
		if detail.ID == "" {
			slog.Warn("item detail missing id, skipping",
				"account", accountID,
				"title", detail.Title,
			)
			skipped++
			continue
		}

		existing, err := s.publications.GetByItemID(ctx, accountID, detail.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup publication %s: %w", detail.ID, err)
		}

		var pub model.Publication
		if existing != nil {
			// Keep the existing row, cost fields included; only the
			// mirrored fields get overwritten below.
			pub = *existing
			updated++
		} else {
			pub = model.Publication{
				ID:         uuid.NewString(),
				AccountID:  accountID,
				MeliItemID: detail.ID,
				CreatedAt:  now,
			}
			created++
		}

		pub.Title = detail.Title
		pub.PriceMeli = detail.Price
		pub.CategoryIDMeli = optional(detail.CategoryID)
		pub.SKU = optional(ExtractSKU(detail))
		pub.FetchedAt = now
		pub.UpdatedAt = now

		if err := s.publications.Upsert(ctx, pub); err != nil {
			return nil, fmt.Errorf("upsert publication %s: %w", detail.ID, err)
		}
		pubs = append(pubs, pub)
	}

	if err := s.stampSynced(ctx, *account); err != nil {
		return nil, err
	}

	slog.Info("account synchronized",
		"account", accountID,
		"items", len(ids),
		"created", created,
		"updated", updated,
		"skipped", skipped,
	)

	return pubs, nil
}

// stampSynced records a completed reconciliation pass on the account. Done
// once per run, after all entries are processed, never per item.
func (s *SyncService) stampSynced(ctx context.Context, account model.Account) error {
	now := time.Now().UTC()
	account.MeliLastPublicationsSyncAt = &now
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("update publications sync timestamp: %w", err)
	}
	return nil
}

// optional converts an empty string to a nil pointer.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
