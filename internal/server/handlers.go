package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"algotrade-pro/internal/report"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.StartAll(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.StopAll(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleEmergency(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.EmergencyStop(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped", "message": "positions flattened"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["component"]
	if err := s.engine.RestartComponent(name); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restarted", "component": name})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": s.engine.Running(),
		"time":    time.Now().UTC(),
	})
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, _ *http.Request) {
	started := time.Now()

	f, err := s.reports.BuildFor(started)
	if err != nil {
		s.metrics.ReportFailuresInc()
		log.Error().Err(err).Msg("report generation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "report generation failed"})
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(started)))
	if err := f.Write(w); err != nil {
		s.metrics.ReportFailuresInc()
		log.Error().Err(err).Msg("stream report")
		return
	}

	s.metrics.ReportsBuiltInc()
	s.metrics.ObserveReportDuration(time.Since(started))
}

// strategyInfo is the list representation of one registered strategy.
type strategyInfo struct {
	Name        string   `json:"name"`
	Symbols     []string `json:"symbols"`
	Enabled     bool     `json:"enabled"`
	Trades      int      `json:"trades"`
	WinRate     float64  `json:"win_rate"`
	TotalPnL    float64  `json:"total_pnl"`
	LastSignalS float64  `json:"last_signal_age_s"`
}

func (s *Server) handleListStrategies(w http.ResponseWriter, _ *http.Request) {
	all := s.registry.All()
	out := make([]strategyInfo, 0, len(all))
	for _, st := range all {
		p := st.Performance()
		out = append(out, strategyInfo{
			Name:        st.Name(),
			Symbols:     st.Symbols(),
			Enabled:     st.Enabled(),
			Trades:      p.Trades,
			WinRate:     p.WinRate,
			TotalPnL:    p.TotalPnL,
			LastSignalS: p.LastSignalAge,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategies": out})
}

type strategyControlReq struct {
	StrategyName string `json:"strategy_name"`
	Enable       bool   `json:"enable"`
}

type strategyControlResp struct {
	Success  bool   `json:"success"`
	Strategy string `json:"strategy"`
	Enabled  bool   `json:"enabled"`
	Message  string `json:"message"`
}

func (s *Server) handleStrategyControl(w http.ResponseWriter, r *http.Request) {
	var req strategyControlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StrategyName == "" {
		writeJSON(w, http.StatusBadRequest, strategyControlResp{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if err := s.registry.SetEnabled(req.StrategyName, req.Enable); err != nil {
		writeJSON(w, http.StatusNotFound, strategyControlResp{
			Success:  false,
			Strategy: req.StrategyName,
			Message:  err.Error(),
		})
		return
	}

	s.metrics.StrategyTogglesInc()
	s.metrics.SetActiveStrategies(s.registry.EnabledCount())

	verb := "disabled"
	if req.Enable {
		verb = "enabled"
	}
	log.Info().Str("strategy", req.StrategyName).Bool("enable", req.Enable).Msg("strategy toggled")
	writeJSON(w, http.StatusOK, strategyControlResp{
		Success:  true,
		Strategy: req.StrategyName,
		Enabled:  req.Enable,
		Message:  fmt.Sprintf("strategy %s %s", req.StrategyName, verb),
	})
}
