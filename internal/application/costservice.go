package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// validIVARates are the accepted cost IVA rates: exempt/included, reduced,
// general, and increased.
var validIVARates = []float64{0, 0.105, 0.21, 0.27}

// ivaRateTolerance absorbs float imprecision in uploaded rates
// (0.210000001 still matches 0.21).
const ivaRateTolerance = 0.0005

// CostService applies user-entered cost rows to synced publications,
// matching by SKU. It only ever writes the locally-owned cost fields.
type CostService struct {
	accounts     driven.AccountStore
	publications driven.PublicationStore
}

// NewCostService creates a CostService.
func NewCostService(accounts driven.AccountStore, publications driven.PublicationStore) *CostService {
	return &CostService{accounts: accounts, publications: publications}
}

// ApplyCostRows validates and applies already-parsed cost rows for one
// account. Invalid rows are reported per-row, never fatal; only a missing
// account or a persistence failure aborts the batch.
func (s *CostService) ApplyCostRows(ctx context.Context, accountID string, rows []model.CostRow) (*model.CostReport, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, driven.ErrAccountNotFound
	}

	report := &model.CostReport{Results: make([]model.CostRowResult, 0, len(rows))}

	for i, row := range rows {
		rowNum := i + 1

		sku := strings.TrimSpace(row.SKU)
		if sku == "" {
			report.InvalidRows++
			report.Results = append(report.Results, model.CostRowResult{
				SKU:     fmt.Sprintf("row %d", rowNum),
				Status:  model.CostRowInvalidSKU,
				Message: fmt.Sprintf("row %d has no SKU", rowNum),
			})
			continue
		}

		if row.NetCost == nil || *row.NetCost < 0 {
			report.InvalidCost++
			report.Results = append(report.Results, model.CostRowResult{
				SKU:     sku,
				Status:  model.CostRowInvalidCost,
				Message: fmt.Sprintf("net cost missing or negative for SKU %s (row %d)", sku, rowNum),
			})
			continue
		}

		if row.IVARate == nil || !isValidIVARate(*row.IVARate) {
			report.InvalidIVA++
			report.Results = append(report.Results, model.CostRowResult{
				SKU:     sku,
				Status:  model.CostRowInvalidIVA,
				Message: fmt.Sprintf("IVA rate missing or invalid for SKU %s (row %d); allowed: 0, 0.105, 0.21, 0.27", sku, rowNum),
			})
			continue
		}

		pub, err := s.publications.GetBySKU(ctx, accountID, sku)
		if err != nil {
			return nil, fmt.Errorf("lookup publication by sku %s: %w", sku, err)
		}
		if pub == nil {
			report.NotFound++
			report.Results = append(report.Results, model.CostRowResult{
				SKU:     sku,
				Status:  model.CostRowNotFound,
				Message: fmt.Sprintf("SKU %s not found among synced publications", sku),
			})
			continue
		}

		netCost := math.Round(*row.NetCost*100) / 100
		if err := s.publications.UpdateCost(ctx, pub.ID, netCost, *row.IVARate, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("update cost for sku %s: %w", sku, err)
		}

		report.Updated++
		report.Results = append(report.Results, model.CostRowResult{
			SKU:     sku,
			Status:  model.CostRowUpdated,
			Message: fmt.Sprintf("cost and IVA rate updated for SKU %s", sku),
		})
	}

	slog.Info("cost rows applied",
		"account", accountID,
		"rows", len(rows),
		"updated", report.Updated,
		"not_found", report.NotFound,
	)

	return report, nil
}

func isValidIVARate(rate float64) bool {
	for _, valid := range validIVARates {
		if math.Abs(rate-valid) < ivaRateTolerance {
			return true
		}
	}
	return false
}
