package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EngineState is the dashboard's view of the engine, fetched from the
// status endpoint rather than assumed.
type EngineState int

const (
	StateUnknown EngineState = iota
	StateStopped
	StateRunning
)

func (s EngineState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ErrActionInFlight is returned when an operation is invoked while a
// previous invocation of the same operation has not finished. The
// duplicate performs no network call.
var ErrActionInFlight = errors.New("action already in flight")

// ConfirmFunc gates the emergency stop. Returning false aborts it before
// any network activity.
type ConfirmFunc func(prompt string) bool

// RefreshFunc re-renders the strategy cards after a successful toggle.
type RefreshFunc func(ctx context.Context) error

// ControlSurface mirrors engine state onto the start/stop controls.
// Implementations are optional; a nil surface is ignored.
type ControlSurface interface {
	SetStartEnabled(bool)
	SetStopEnabled(bool)
}

// Controller drives the five dashboard operations and owns the view state
// around them.
type Controller struct {
	client   *Client
	notifier *Notifier
	confirm  ConfirmFunc
	refresh  RefreshFunc
	surface  ControlSurface

	downloadDir string
	now         func() time.Time

	mu    sync.Mutex
	state EngineState

	inflight inflightSet
}

// Option configures optional controller collaborators.
type Option func(*Controller)

func WithConfirm(f ConfirmFunc) Option { return func(c *Controller) { c.confirm = f } }

func WithRefresh(f RefreshFunc) Option { return func(c *Controller) { c.refresh = f } }

func WithSurface(s ControlSurface) Option { return func(c *Controller) { c.surface = s } }

func WithDownloadDir(dir string) Option { return func(c *Controller) { c.downloadDir = dir } }

func withClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

func NewController(client *Client, notifier *Notifier, opts ...Option) *Controller {
	c := &Controller{
		client:      client,
		notifier:    notifier,
		confirm:     func(string) bool { return true },
		downloadDir: ".",
		now:         time.Now,
		state:       StateUnknown,
	}
	c.refresh = func(ctx context.Context) error {
		_, err := client.StrategyCards(ctx)
		return err
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Init fetches the current engine state. On failure the state stays
// Unknown and the error is returned; no notification is raised.
func (c *Controller) Init(ctx context.Context) error {
	status, err := c.client.EngineStatus(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("initial status fetch failed")
		return err
	}
	c.applyStatus(status)
	return nil
}

// RefreshState re-fetches engine status and updates the view.
func (c *Controller) RefreshState(ctx context.Context) error {
	return c.Init(ctx)
}

func (c *Controller) applyStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch status {
	case "running", "started":
		c.state = StateRunning
		c.setSurface(false, true)
	case "stopped":
		c.state = StateStopped
		c.setSurface(true, false)
	default:
		c.state = StateUnknown
	}
}

// setSurface requires c.mu held.
func (c *Controller) setSurface(startEnabled, stopEnabled bool) {
	if c.surface == nil {
		return
	}
	c.surface.SetStartEnabled(startEnabled)
	c.surface.SetStopEnabled(stopEnabled)
}

// State returns the last confirmed engine state.
func (c *Controller) State() EngineState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start requests an engine start. The state transitions only on a
// confirmed "started" response.
func (c *Controller) Start(ctx context.Context) error {
	if !c.inflight.begin("start") {
		return ErrActionInFlight
	}
	defer c.inflight.end("start")

	status, err := c.client.StartEngine(ctx)
	if err != nil {
		log.Error().Err(err).Msg("start trading failed")
		c.notifier.Error("Failed to start trading")
		return err
	}
	if status != "started" {
		log.Error().Str("status", status).Msg("unexpected start response")
		c.notifier.Error("Failed to start trading")
		return fmt.Errorf("unexpected start status %q", status)
	}

	c.mu.Lock()
	c.state = StateRunning
	c.setSurface(false, true)
	c.mu.Unlock()

	c.notifier.Success("Trading started")
	return nil
}

// Stop requests an engine stop, mirroring Start.
func (c *Controller) Stop(ctx context.Context) error {
	if !c.inflight.begin("stop") {
		return ErrActionInFlight
	}
	defer c.inflight.end("stop")

	status, err := c.client.StopEngine(ctx)
	if err != nil {
		log.Error().Err(err).Msg("stop trading failed")
		c.notifier.Error("Failed to stop trading")
		return err
	}
	if status != "stopped" {
		log.Error().Str("status", status).Msg("unexpected stop response")
		c.notifier.Error("Failed to stop trading")
		return fmt.Errorf("unexpected stop status %q", status)
	}

	c.mu.Lock()
	c.state = StateStopped
	c.setSurface(true, false)
	c.mu.Unlock()

	c.notifier.Info("Trading stopped")
	return nil
}

// EmergencyStop asks for confirmation, then posts a single stop request.
// It never updates the engine state or the control surface, and raises a
// warning notification whatever the response body says.
func (c *Controller) EmergencyStop(ctx context.Context) error {
	if !c.inflight.begin("emergency") {
		return ErrActionInFlight
	}
	defer c.inflight.end("emergency")

	if !c.confirm("Execute emergency stop? All positions will be closed.") {
		return nil
	}

	if _, err := c.client.StopEngine(ctx); err != nil {
		log.Error().Err(err).Msg("emergency stop failed")
		c.notifier.Error("Emergency stop failed")
		return err
	}

	c.notifier.Warning("EMERGENCY STOP executed")
	return nil
}

// GenerateReport downloads today's trade report into the download
// directory. No file is written on any failure.
func (c *Controller) GenerateReport(ctx context.Context) (string, error) {
	if !c.inflight.begin("report") {
		return "", ErrActionInFlight
	}
	defer c.inflight.end("report")

	c.notifier.Info("Generating report...")

	data, err := c.client.GenerateReport(ctx)
	if err != nil {
		log.Error().Err(err).Msg("report download failed")
		c.notifier.Error("Failed to generate report")
		return "", err
	}

	name := fmt.Sprintf("trade_report_%s.xlsx", c.now().Format("2006-01-02"))
	path := filepath.Join(c.downloadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().Err(err).Str("path", path).Msg("write report failed")
		c.notifier.Error("Failed to generate report")
		return "", fmt.Errorf("write report: %w", err)
	}

	log.Info().Str("path", path).Int("bytes", len(data)).Msg("report downloaded")
	c.notifier.Success("Report downloaded")
	return path, nil
}

// ToggleStrategy enables or disables a strategy. On success the strategy
// cards are refreshed exactly once; on failure nothing is refreshed.
func (c *Controller) ToggleStrategy(ctx context.Context, name string, enable bool) error {
	if !c.inflight.begin("toggle:" + name) {
		return ErrActionInFlight
	}
	defer c.inflight.end("toggle:" + name)

	out, err := c.client.ToggleStrategy(ctx, name, enable)
	if err != nil {
		log.Error().Err(err).Str("strategy", name).Msg("strategy toggle failed")
		c.notifier.Error("Failed to update strategy")
		return err
	}
	if !out.Success {
		log.Error().Str("strategy", name).Str("message", out.Message).Msg("strategy toggle rejected")
		c.notifier.Error("Failed to update strategy")
		return fmt.Errorf("toggle strategy %s: %s", name, out.Message)
	}

	if err := c.refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("strategy cards refresh failed")
	}

	verb := "disabled"
	if enable {
		verb = "enabled"
	}
	c.notifier.Success(fmt.Sprintf("Strategy %s %s", name, verb))
	return nil
}

// inflightSet tracks which actions are currently executing so duplicate
// invocations are rejected without touching the network.
type inflightSet struct {
	mu     sync.Mutex
	active map[string]bool
}

func (s *inflightSet) begin(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = make(map[string]bool)
	}
	if s.active[action] {
		return false
	}
	s.active[action] = true
	return true
}

func (s *inflightSet) end(action string) {
	s.mu.Lock()
	delete(s.active, action)
	s.mu.Unlock()
}
