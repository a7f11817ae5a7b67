package report

import (
	"path/filepath"
	"testing"
	"time"

	"algotrade-pro/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTrades(ts time.Time) []storage.Trade {
	return []storage.Trade{
		{ID: "a", Symbol: "RELIANCE", Side: storage.SideBuy, Qty: 10, Price: 2500, Strategy: "ma_crossover", Status: storage.StatusFilled, Ts: ts},
		{ID: "b", Symbol: "RELIANCE", Side: storage.SideSell, Qty: 10, Price: 2550, Strategy: "ma_crossover", Status: storage.StatusFilled, PnL: 500, Ts: ts.Add(time.Minute)},
		{ID: "c", Symbol: "TCS", Side: storage.SideBuy, Qty: 5, Price: 3900, Strategy: "rsi_threshold", Status: storage.StatusFilled, Ts: ts.Add(2 * time.Minute)},
		{ID: "d", Symbol: "TCS", Side: storage.SideSell, Qty: 5, Price: 3880, Strategy: "rsi_threshold", Status: storage.StatusFilled, PnL: -100, Ts: ts.Add(3 * time.Minute)},
		{ID: "rejected", Symbol: "INFY", Side: storage.SideBuy, Qty: 5, Price: 1500, Strategy: "vwap_revert", Status: storage.StatusRejected, Ts: ts.Add(4 * time.Minute)},
	}
}

func TestFilename(t *testing.T) {
	d := time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "trade_report_2026-03-09.xlsx", Filename(d))
}

func TestBuildSheets(t *testing.T) {
	day := time.Date(2026, 3, 9, 9, 15, 0, 0, time.UTC)
	f, err := Build(sampleTrades(day), day)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Trade Details", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Trade Details")
	require.NoError(t, err)
	require.Len(t, rows, 6, "header plus five trades")
	assert.Equal(t, "Symbol", rows[0][2])
	assert.Equal(t, "RELIANCE", rows[1][2])
	assert.Equal(t, "REJECTED", rows[5][7])
}

func TestBuildSummaryValues(t *testing.T) {
	day := time.Date(2026, 3, 9, 9, 15, 0, 0, time.UTC)
	f, err := Build(sampleTrades(day), day)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)

	got := make(map[string]string, len(rows))
	for _, r := range rows {
		if len(r) >= 2 {
			got[r[0]] = r[1]
		}
	}
	assert.Equal(t, "2026-03-09", got["Report Date"])
	assert.Equal(t, "5", got["Total Trades"])
	assert.Equal(t, "4", got["Filled"])
	assert.Equal(t, "1", got["Rejected"])
	assert.Equal(t, "15", got["Buy Volume"])
	assert.Equal(t, "15", got["Sell Volume"])
	assert.Equal(t, "0", got["Net Position"])
	assert.Equal(t, "400", got["Total P&L"])
	assert.Equal(t, "0.5", got["Win Rate"])
	assert.Equal(t, "100", got["Max Drawdown"])
}

func TestBuildEmptyDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f, err := Build(nil, day)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trade Details")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")

	sum, err := f.GetRows("Summary")
	require.NoError(t, err)
	got := make(map[string]string)
	for _, r := range sum {
		if len(r) >= 2 {
			got[r[0]] = r[1]
		}
	}
	assert.Equal(t, "0", got["Total Trades"])
}

func TestGeneratorWritesFile(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(dir)
	require.NoError(t, err)
	defer store.Close()

	day := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	for _, tr := range sampleTrades(day) {
		require.NoError(t, store.StoreTrade(tr))
	}
	// a trade on the following day must not leak into the report
	require.NoError(t, store.StoreTrade(storage.Trade{
		ID: "next-day", Symbol: "TCS", Side: storage.SideBuy, Qty: 1, Price: 3900,
		Strategy: "rsi_threshold", Status: storage.StatusFilled, Ts: day.Add(24 * time.Hour),
	}))

	g := NewGenerator(store, filepath.Join(dir, "reports"))
	path, err := g.Generate(day)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "trade_report_2026-03-09.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trade Details")
	require.NoError(t, err)
	assert.Len(t, rows, 6, "header plus the five same-day trades")
}

func TestGeneratorMidnightTradeCountedOnce(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(dir)
	require.NoError(t, err)
	defer store.Close()

	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	midnight := day.Add(24 * time.Hour)
	require.NoError(t, store.StoreTrade(storage.Trade{
		ID: "eod", Symbol: "RELIANCE", Side: storage.SideSell, Qty: 1, Price: 2500,
		Strategy: "ma_crossover", Status: storage.StatusFilled, Ts: midnight,
	}))

	g := NewGenerator(store, filepath.Join(dir, "reports"))

	first, err := g.BuildFor(day)
	require.NoError(t, err)
	defer first.Close()
	rows, err := first.GetRows("Trade Details")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "fill at 00:00 belongs to the next day")

	second, err := g.BuildFor(midnight)
	require.NoError(t, err)
	defer second.Close()
	rows, err = second.GetRows("Trade Details")
	require.NoError(t, err)
	assert.Len(t, rows, 2, "header plus the midnight fill")
}
