// Package storage provides persistent data storage for the trading platform.
// It uses BoltDB as the underlying storage engine to store executed trades and
// equity snapshots for reporting and risk tracking.
//
// Records are keyed by timestamp so time-range queries scan a contiguous key
// range with a cursor.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	tradesBucket = "trades" // Bucket for executed trade records
	equityBucket = "equity" // Bucket for equity snapshots
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Status is the lifecycle state of a trade.
type Status string

const (
	StatusFilled   Status = "FILLED"
	StatusRejected Status = "REJECTED"
)

// Trade is one executed (or rejected) order.
type Trade struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Qty      float64   `json:"qty"`
	Price    float64   `json:"price"`
	Strategy string    `json:"strategy"`
	Status   Status    `json:"status"`
	PnL      float64   `json:"pnl"`
	Ts       time.Time `json:"ts"`
}

// EquityPoint is a balance snapshot taken by the risk manager.
type EquityPoint struct {
	Balance float64   `json:"balance"`
	PnL     float64   `json:"pnl"`
	Ts      time.Time `json:"ts"`
}

// Store provides persistent storage for trading data using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New creates a new storage instance under the specified data path.
// It initializes the BoltDB database and creates the necessary buckets.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "algotrade.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(tradesBucket)); err != nil {
			return fmt.Errorf("create trades bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(equityBucket)); err != nil {
			return fmt.Errorf("create equity bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreTrade stores a trade record keyed by "unixnano_id" so that cursor
// scans return trades in execution order across all symbols.
func (s *Store) StoreTrade(trade Trade) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(tradesBucket))

		data, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("marshal trade: %w", err)
		}
		return b.Put(tradeKey(trade), data)
	})
}

func tradeKey(t Trade) []byte {
	return []byte(fmt.Sprintf("%020d_%s", t.Ts.UnixNano(), t.ID))
}

// TradesBetween retrieves trades within [start, end], inclusive, in
// execution order.
func (s *Store) TradesBetween(start, end time.Time) ([]Trade, error) {
	var trades []Trade

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(tradesBucket)).Cursor()

		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%020d", end.UnixNano()+1))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) < 0; k, v = c.Next() {
			var trade Trade
			if err := json.Unmarshal(v, &trade); err != nil {
				continue // skip malformed records
			}
			trades = append(trades, trade)
		}
		return nil
	})

	return trades, err
}

// TradesSince retrieves trades executed at or after the given time.
func (s *Store) TradesSince(start time.Time) ([]Trade, error) {
	return s.TradesBetween(start, time.Now().Add(time.Hour))
}

// StoreEquity stores an equity snapshot.
func (s *Store) StoreEquity(p EquityPoint) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(equityBucket))

		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal equity point: %w", err)
		}
		key := []byte(fmt.Sprintf("%020d", p.Ts.UnixNano()))
		return b.Put(key, data)
	})
}

// EquityBetween retrieves equity snapshots within [start, end], inclusive.
func (s *Store) EquityBetween(start, end time.Time) ([]EquityPoint, error) {
	var points []EquityPoint

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(equityBucket)).Cursor()

		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%020d", end.UnixNano()+1))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) < 0; k, v = c.Next() {
			var p EquityPoint
			if err := json.Unmarshal(v, &p); err != nil {
				continue
			}
			points = append(points, p)
		}
		return nil
	})

	return points, err
}
