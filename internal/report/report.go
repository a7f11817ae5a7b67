// Package report builds daily trade reports as xlsx workbooks with a
// per-trade detail sheet and an aggregate summary sheet.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"algotrade-pro/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	detailSheet  = "Trade Details"
	summarySheet = "Summary"
)

// Filename returns the canonical report name for a trading day.
func Filename(date time.Time) string {
	return fmt.Sprintf("trade_report_%s.xlsx", date.Format("2006-01-02"))
}

// Build renders the trades of one day into a workbook. An empty trade
// slice still produces a valid report with zeroed summary rows.
func Build(trades []storage.Trade, date time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	idx, err := f.NewSheet(detailSheet)
	if err != nil {
		return nil, fmt.Errorf("create detail sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}

	if err := writeDetails(f, trades); err != nil {
		return nil, err
	}
	if err := writeSummary(f, trades, date); err != nil {
		return nil, err
	}
	return f, nil
}

func writeDetails(f *excelize.File, trades []storage.Trade) error {
	header := []any{"Time", "Order ID", "Symbol", "Side", "Quantity", "Price", "Strategy", "Status", "P&L"}
	if err := f.SetSheetRow(detailSheet, "A1", &header); err != nil {
		return fmt.Errorf("write detail header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(detailSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style detail header: %w", err)
	}

	for i, tr := range trades {
		row := []any{
			tr.Ts.Format("15:04:05"),
			tr.ID,
			tr.Symbol,
			string(tr.Side),
			tr.Qty,
			tr.Price,
			tr.Strategy,
			string(tr.Status),
			tr.PnL,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(detailSheet, cell, &row); err != nil {
			return fmt.Errorf("write trade row %d: %w", i+2, err)
		}
	}
	return nil
}

// stats is everything the summary sheet reports, computed in one pass
// over filled trades.
type stats struct {
	total      int
	filled     int
	rejected   int
	buyVolume  float64
	sellVolume float64
	netQty     float64
	avgPrice   float64
	wins       int
	closed     int
	totalPnL   float64
	maxDraw    float64
	sharpe     float64
}

func compute(trades []storage.Trade) stats {
	var s stats
	s.total = len(trades)

	var notional, qty float64
	var pnls []float64
	for _, tr := range trades {
		if tr.Status == storage.StatusRejected {
			s.rejected++
			continue
		}
		s.filled++
		notional += tr.Price * tr.Qty
		qty += tr.Qty
		if tr.Side == storage.SideBuy {
			s.buyVolume += tr.Qty
			s.netQty += tr.Qty
		} else {
			s.sellVolume += tr.Qty
			s.netQty -= tr.Qty
		}
		if tr.PnL != 0 {
			s.closed++
			s.totalPnL += tr.PnL
			pnls = append(pnls, tr.PnL)
			if tr.PnL > 0 {
				s.wins++
			}
		}
	}
	if qty > 0 {
		s.avgPrice = notional / qty
	}

	// max drawdown over the cumulative P&L curve
	var cum, peak float64
	for _, p := range pnls {
		cum += p
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > s.maxDraw {
			s.maxDraw = dd
		}
	}

	// naive per-trade sharpe: mean over stddev
	if len(pnls) > 1 {
		mean := s.totalPnL / float64(len(pnls))
		var variance float64
		for _, p := range pnls {
			variance += (p - mean) * (p - mean)
		}
		variance /= float64(len(pnls) - 1)
		if sd := math.Sqrt(variance); sd > 0 {
			s.sharpe = mean / sd
		}
	}
	return s
}

func writeSummary(f *excelize.File, trades []storage.Trade, date time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	s := compute(trades)
	winRate := 0.0
	if s.closed > 0 {
		winRate = float64(s.wins) / float64(s.closed)
	}
	avgPnL := 0.0
	if s.closed > 0 {
		avgPnL = s.totalPnL / float64(s.closed)
	}

	rows := [][]any{
		{"Report Date", date.Format("2006-01-02")},
		{"Total Trades", s.total},
		{"Filled", s.filled},
		{"Rejected", s.rejected},
		{"Buy Volume", s.buyVolume},
		{"Sell Volume", s.sellVolume},
		{"Net Position", s.netQty},
		{"Average Price", s.avgPrice},
		{"Closed Trades", s.closed},
		{"Win Rate", winRate},
		{"Total P&L", s.totalPnL},
		{"Average P&L", avgPnL},
		{"Max Drawdown", s.maxDraw},
		{"Sharpe (per trade)", s.sharpe},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

// Generator ties report building to the trade store and an output
// directory for scheduled and on-demand reports.
type Generator struct {
	store *storage.Store
	dir   string
}

func NewGenerator(store *storage.Store, dir string) *Generator {
	return &Generator{store: store, dir: dir}
}

// Generate builds the report for one calendar day and writes it under the
// generator's directory, returning the written path.
func (g *Generator) Generate(date time.Time) (string, error) {
	trades, err := g.tradesFor(date)
	if err != nil {
		return "", err
	}

	f, err := Build(trades, date)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(g.dir, Filename(date))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}

	log.Info().Str("path", path).Int("trades", len(trades)).Msg("report written")
	return path, nil
}

// BuildFor builds the workbook for one day without touching disk; the
// HTTP layer streams it straight to the client.
func (g *Generator) BuildFor(date time.Time) (*excelize.File, error) {
	trades, err := g.tradesFor(date)
	if err != nil {
		return nil, err
	}
	return Build(trades, date)
}

func (g *Generator) tradesFor(date time.Time) ([]storage.Trade, error) {
	if g.store == nil {
		return nil, nil
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	// TradesBetween is end-inclusive, so stop one tick short of midnight
	// or a fill at exactly 00:00 would land in two consecutive reports.
	end := start.Add(24*time.Hour - time.Nanosecond)

	trades, err := g.store.TradesBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	return trades, nil
}
