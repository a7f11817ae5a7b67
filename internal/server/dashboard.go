package server

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>AlgoTrade Pro</title>
  <script src="https://unpkg.com/htmx.org@1.9.12"></script>
</head>
<body>
  <header>
    <h1>AlgoTrade Pro</h1>
    <div id="currentTime"></div>
  </header>

  <nav>
    <button class="nav-btn active" data-tab="overview">Overview</button>
    <button class="nav-btn" data-tab="strategies">Strategies</button>
    <button class="nav-btn" data-tab="trades">Trades</button>
    <button class="nav-btn" data-tab="risk">Risk</button>
  </nav>

  <section class="controls">
    <button id="startTrading">Start Trading</button>
    <button id="stopTrading" disabled>Stop Trading</button>
    <button id="emergencyStop">Emergency Stop</button>
    <button id="generateReport">Generate Report</button>
  </section>

  <main>
    <div id="overview" class="tab-content active">
      <div hx-get="/api/v1/control/status" hx-trigger="every 5s"></div>
    </div>
    <div id="strategies" class="tab-content">
      <div id="strategyCards"
           hx-get="/dashboard/strategy-cards"
           hx-trigger="load, every 10s"></div>
    </div>
    <div id="trades" class="tab-content"></div>
    <div id="risk" class="tab-content"></div>
  </main>

  <div id="notifications"></div>
</body>
</html>
`))

var strategyCardsTmpl = template.Must(template.New("cards").Parse(`{{range .}}
<div class="strategy-card {{if .Enabled}}enabled{{else}}disabled{{end}}">
  <h3>{{.Name}}</h3>
  <p>Symbols: {{range .Symbols}}{{.}} {{end}}</p>
  <p>Trades: {{.Trades}} | Win rate: {{printf "%.0f%%" .WinRatePct}} | P&amp;L: {{printf "%.2f" .TotalPnL}}</p>
  <button class="strategy-toggle"
          data-strategy="{{.Name}}"
          data-enable="{{if .Enabled}}false{{else}}true{{end}}">
    {{if .Enabled}}Disable{{else}}Enable{{end}}
  </button>
</div>
{{end}}`))

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, nil); err != nil {
		log.Error().Err(err).Msg("render dashboard")
	}
}

type strategyCard struct {
	Name       string
	Symbols    []string
	Enabled    bool
	Trades     int
	WinRatePct float64
	TotalPnL   float64
}

func (s *Server) handleStrategyCards(w http.ResponseWriter, _ *http.Request) {
	all := s.registry.All()
	cards := make([]strategyCard, 0, len(all))
	for _, st := range all {
		p := st.Performance()
		cards = append(cards, strategyCard{
			Name:       st.Name(),
			Symbols:    st.Symbols(),
			Enabled:    st.Enabled(),
			Trades:     p.Trades,
			WinRatePct: p.WinRate * 100,
			TotalPnL:   p.TotalPnL,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := strategyCardsTmpl.Execute(w, cards); err != nil {
		log.Error().Err(err).Msg("render strategy cards")
	}
}
