// tradectl is a command-line remote for a running algotrade daemon. It
// drives the same dashboard controller the web UI uses.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"algotrade-pro/internal/dashboard"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		serverURL   = flag.String("server", "http://localhost:8080", "Base URL of the algotrade server")
		timeout     = flag.Duration("timeout", 30*time.Second, "HTTP request timeout")
		downloadDir = flag.String("download-dir", ".", "Directory for downloaded reports")
		yes         = flag.Bool("yes", false, "Skip the emergency-stop confirmation prompt")
	)
	flag.Usage = usage
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := dashboard.NewClient(*serverURL, *timeout)
	notifier := dashboard.NewNotifier()
	ctl := dashboard.NewController(client, notifier,
		dashboard.WithDownloadDir(*downloadDir),
		dashboard.WithConfirm(confirmFunc(*yes)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+5*time.Second)
	defer cancel()

	if err := run(ctx, ctl, client, args); err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("command failed")
	}

	for _, n := range notifier.Active() {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	}
}

func run(ctx context.Context, ctl *dashboard.Controller, client *dashboard.Client, args []string) error {
	switch args[0] {
	case "status":
		status, err := client.EngineStatus(ctx)
		if err != nil {
			return err
		}
		clock := dashboard.NewClock(nil)
		fmt.Printf("engine: %s (as of %s IST)\n", status, clock.Format(time.Now()))
		return nil

	case "start":
		return ctl.Start(ctx)

	case "stop":
		return ctl.Stop(ctx)

	case "emergency":
		return ctl.EmergencyStop(ctx)

	case "report":
		path, err := ctl.GenerateReport(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", path)
		return nil

	case "toggle":
		if len(args) != 3 {
			return fmt.Errorf("usage: tradectl toggle <strategy> <on|off>")
		}
		enable, err := parseOnOff(args[2])
		if err != nil {
			return err
		}
		return ctl.ToggleStrategy(ctx, args[1], enable)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "enable", "true":
		return true, nil
	case "off", "disable", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// confirmFunc prompts on stdin unless -yes was passed.
func confirmFunc(skip bool) dashboard.ConfirmFunc {
	return func(prompt string) bool {
		if skip {
			return true
		}
		fmt.Printf("%s [y/N]: ", prompt)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `tradectl - control a running algotrade server

Usage:
  tradectl [flags] <command>

Commands:
  status                     Show engine state
  start                      Start the trading engine
  stop                       Stop the trading engine
  emergency                  Emergency stop (confirmation required)
  report                     Download today's trade report
  toggle <strategy> <on|off> Enable or disable a strategy

Flags:
`)
	flag.PrintDefaults()
}
