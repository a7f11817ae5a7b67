package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"algotrade-pro/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrReconnect wraps stream failures that trigger a reconnect attempt.
var ErrReconnect = errors.New("stream reconnect")

// WS streams live ticks over a websocket feed with automatic reconnection.
type WS struct {
	url        string
	ping       time.Duration
	reconnects metrics.Counter
}

func NewWS(url string, ping time.Duration) *WS {
	if ping <= 0 {
		ping = 15 * time.Second
	}
	return &WS{url: url, ping: ping}
}

// CountReconnects reports every reconnect attempt to c. A nil counter
// disables reporting.
func (w *WS) CountReconnects(c metrics.Counter) *WS {
	w.reconnects = c
	return w
}

// Stream connects, subscribes, and forwards ticks until ctx is canceled.
// Connection failures reconnect with exponential backoff capped at 30s.
func (w *WS) Stream(ctx context.Context, symbols []string, ticks chan<- Tick, errs chan<- error) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.streamOnce(ctx, symbols, ticks); err != nil {
				log.Warn().Err(err).Dur("backoff", backoff).Msg("market stream failed, reconnecting")
				if w.reconnects != nil {
					w.reconnects.Inc()
				}
				select {
				case errs <- fmt.Errorf("%w: %v", ErrReconnect, err):
				default:
				}

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = time.Second
		}
	}
}

type wireTick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price,string"`
	Qty    float64 `json:"qty,string"`
	Ts     int64   `json:"ts"`
}

func (w *WS) streamOnce(ctx context.Context, symbols []string, ticks chan<- Tick) error {
	log.Info().Str("url", w.url).Int("symbols", len(symbols)).Msg("connecting market stream")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	var args []map[string]string
	for _, s := range symbols {
		args = append(args, map[string]string{"symbol": s, "ch": "tick"})
	}
	if err := conn.WriteJSON(map[string]any{"op": "subscribe", "args": args}); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	pingTicker := time.NewTicker(w.ping)
	defer pingTicker.Stop()

	// reader goroutine feeds messages so the select below can watch ctx
	msgs := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		case err := <-readErr:
			return fmt.Errorf("read failed: %w", err)
		case data := <-msgs:
			var wt wireTick
			if err := json.Unmarshal(data, &wt); err != nil || wt.Symbol == "" {
				continue // control frames and malformed payloads
			}
			tick := Tick{
				Symbol: wt.Symbol,
				Price:  wt.Price,
				Qty:    wt.Qty,
				Ts:     time.UnixMilli(wt.Ts),
			}
			select {
			case ticks <- tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
