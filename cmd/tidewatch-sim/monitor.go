package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tidewatch-sim/internal/admin"
	"tidewatch-sim/internal/config"
	"tidewatch-sim/internal/fleet"
	"tidewatch-sim/internal/logging"
	"tidewatch-sim/internal/scenario"
)

var (
	monConfigPath string
	monSchemaPath string
	monTick       time.Duration
	monPrintOnly  bool
	monTUI        bool
	monLogFile    string
	monAdminAddr  string
	monScenario   string
	monLogLevel   string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the tide gauge fleet monitor",
	Long:  "monitor starts the station fleet, streaming readings and alerts to the configured sinks until interrupted twice.",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(monLogLevel)
		if err != nil {
			return err
		}
		logger := logging.New(level)
		slog.SetDefault(logger)

		cfg, err := config.Load(monConfigPath, monSchemaPath)
		if err != nil {
			return err
		}
		if monTick > 0 {
			cfg.TickInterval = config.Duration(monTick)
		}
		if monScenario != "" {
			cfg.Scenario = monScenario
		}
		scn, err := resolveScenario(cfg.Scenario)
		if err != nil {
			return err
		}

		writer, tui, cleanup, err := newWriters(cfg, monPrintOnly, monTUI, monLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ctx = logging.NewContext(ctx, logger)

		reg := fleet.NewRegistry(cfg, scn, writer)
		ctrl := reg.Controller()

		if tui != nil {
			tui.SetFleetControls(
				func() { ctrl.Interrupt(ctx) },
				func() { ctrl.Resume(ctx) },
			)
			tui.SetThresholdUpdater(func(id string, low, high float64) {
				if err := reg.UpdateThresholds(ctx, id, low, high); err != nil {
					logger.Error("threshold update failed", "station_id", id, "err", err)
				}
			})
		}

		if monAdminAddr != "" {
			srv := admin.NewServer(reg)
			go func() {
				logger.Info("admin server listening", "addr", monAdminAddr)
				if err := srv.Start(ctx, monAdminAddr); err != nil && err != http.ErrServerClosed {
					logger.Error("admin server failed", "err", err)
				}
			}()
		}

		logger.Info("starting fleet",
			"run_id", uuid.NewString(),
			"fleet_id", cfg.FleetID,
			"stations", len(cfg.Stations),
			"scenario", cfg.Scenario,
			"tick_interval", cfg.TickInterval.Std(),
			"debounce_window", cfg.DebounceWindow.Std(),
		)

		runErr := make(chan error, 1)
		go func() { runErr <- reg.Run(ctx) }()

		// Each terminal signal feeds the two-stage escalation: the first
		// pauses the fleet, the second stops it, which ends Run.
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		for {
			select {
			case sig := <-sigs:
				logger.Info("signal received", "signal", sig.String())
				ctrl.Interrupt(ctx)
			case err := <-runErr:
				logSummary(logger, reg)
				return err
			}
		}
	},
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// resolveScenario accepts a built-in arc name or a path to a scenario
// YAML file. An empty name disables scenario shaping.
func resolveScenario(name string) (*scenario.Scenario, error) {
	if name == "" {
		return nil, nil
	}
	if s, ok := scenario.BuiltIn()[name]; ok {
		return &s, nil
	}
	if _, err := os.Stat(name); err == nil {
		return scenario.Load(name)
	}
	return nil, fmt.Errorf("unknown scenario %q", name)
}

// logSummary prints the per-station totals after the fleet has stopped.
func logSummary(logger *slog.Logger, reg *fleet.Registry) {
	snap := reg.Snapshot()
	logger.Info("fleet summary",
		"fleet_id", snap.FleetID,
		"readings", snap.TotalReadings,
		"worst_level", snap.WorstLevel.String(),
		"interrupts", snap.Interruptions.Received,
		"suppressed", snap.Interruptions.Suppressed,
		"pauses", snap.Interruptions.Pauses,
		"stops", snap.Interruptions.Stops,
	)
	for _, st := range snap.Stations {
		args := []any{
			"station_id", st.ID,
			"state", string(st.State),
			"readings", st.Stats.Count,
			"warnings", st.Alerts.Warning,
			"criticals", st.Alerts.Critical,
		}
		if st.Err != "" {
			args = append(args, "err", st.Err)
		}
		logger.Info("station summary", args...)
	}
}

func init() {
	monitorCmd.Flags().StringVar(&monConfigPath, "config", "config/stations.yaml", "Path to station fleet configuration YAML")
	monitorCmd.Flags().StringVar(&monSchemaPath, "schema", "schemas/stations.cue", "Path to CUE schema file")
	monitorCmd.Flags().DurationVar(&monTick, "tick", 0, "Reading tick interval override (e.g. 500ms, 2s)")
	monitorCmd.Flags().BoolVar(&monPrintOnly, "print-only", false, "Print readings to STDOUT instead of writing to sinks")
	monitorCmd.Flags().BoolVar(&monTUI, "tui", false, "Render a terminal dashboard instead of plain output")
	monitorCmd.Flags().StringVar(&monLogFile, "log-file", "", "Path to export reading/alert/event logs (JSONL)")
	monitorCmd.Flags().StringVar(&monAdminAddr, "admin-addr", ":8080", "Admin server listen address (empty to disable)")
	monitorCmd.Flags().StringVar(&monScenario, "scenario", "", "Scenario arc name or YAML path (overrides config)")
	monitorCmd.Flags().StringVar(&monLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}
