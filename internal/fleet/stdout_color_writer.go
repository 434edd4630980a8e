// ColorStdoutWriter prints human-friendly, colorized readings to STDOUT.
package fleet

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"tidewatch-sim/internal/config"
	"tidewatch-sim/internal/tide"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints reading rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg           *config.FleetConfig
	out           io.Writer
	once          sync.Once
	stationColors map[string]string
	colorIdx      int
}

var stationPalette = []string{colorBlue, colorMagenta, colorCyan, colorGreen, colorYellow}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.FleetConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{
		cfg:           cfg,
		out:           os.Stdout,
		stationColors: make(map[string]string),
	}
}

func (w *ColorStdoutWriter) getStationColor(id string) string {
	if c, ok := w.stationColors[id]; ok {
		return c
	}
	c := stationPalette[w.colorIdx%len(stationPalette)]
	w.stationColors[id] = c
	w.colorIdx++
	return c
}

func levelColor(level string) string {
	switch level {
	case "critical":
		return colorRed
	case "warning":
		return colorYellow
	}
	return colorGreen
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Fleet Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Fleet ID:\t%s\n", w.cfg.FleetID)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.TickInterval.Std())
	fmt.Fprintf(tw, "Debounce Window:\t%s\n", w.cfg.DebounceWindow.Std())
	if w.cfg.Scenario != "" {
		fmt.Fprintf(tw, "Scenario:\t%s\n", w.cfg.Scenario)
	}
	tw.Flush()

	fmt.Fprintln(w.out, "\nStations:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tUnit\tLow\tHigh\tMargin\n")
	for _, s := range w.cfg.Stations {
		col := w.getStationColor(s.ID)
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\t%.2f\t%.2f\t%.1fx\n", col, s.ID, colorReset, s.Name, s.Unit, s.Low, s.High, s.CriticalMargin)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single reading row in colorized format.
func (w *ColorStdoutWriter) Write(row tide.ReadingRow) error {
	w.once.Do(w.printOverview)

	sColor := w.getStationColor(row.StationID)
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%sfleet=%s%s ", colorBlue, row.FleetID, colorReset)
	fmt.Fprintf(w.out, "%sstation=%s%s ", sColor, row.StationID, colorReset)
	fmt.Fprintf(w.out, "%sseq=%d%s ", colorGray, row.Seq, colorReset)
	fmt.Fprintf(w.out, "%swater=%.3f%s ", colorCyan, row.WaterLevel, colorReset)
	fmt.Fprintf(w.out, "%stemp=%.1f%s ", colorYellow, row.Temperature, colorReset)
	fmt.Fprintf(w.out, "%spressure=%.1f%s ", colorMagenta, row.Pressure, colorReset)
	fmt.Fprintf(w.out, "%swind=%.1f%s ", colorWhite, row.WindSpeed, colorReset)
	fmt.Fprintf(w.out, "%slevel=%s%s", levelColor(row.Level), row.Level, colorReset)
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple reading rows.
func (w *ColorStdoutWriter) WriteBatch(rows []tide.ReadingRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert prints a threshold breach to STDOUT.
func (w *ColorStdoutWriter) WriteAlert(row tide.AlertRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sALERT%s station=%s level=%s%s%s water=%.3f band=[%.2f, %.2f]\n",
		colorGray, row.Ts.Format(time.RFC3339), colorReset,
		colorRed, colorReset, row.StationID,
		levelColor(row.Level), row.Level, colorReset,
		row.WaterLevel, row.Low, row.High)
	return nil
}

// WriteAlerts prints multiple threshold breaches.
func (w *ColorStdoutWriter) WriteAlerts(rows []tide.AlertRow) error {
	for _, r := range rows {
		_ = w.WriteAlert(r)
	}
	return nil
}

// WriteEvent prints a lifecycle event to STDOUT.
func (w *ColorStdoutWriter) WriteEvent(row tide.EventRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sEVENT%s type=%s",
		colorGray, row.Ts.Format(time.RFC3339), colorReset,
		colorCyan, colorReset, row.Type)
	if row.StationID != "" {
		fmt.Fprintf(w.out, " station=%s", row.StationID)
	}
	if row.Detail != "" {
		fmt.Fprintf(w.out, " detail=%q", row.Detail)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteEvents prints multiple lifecycle events.
func (w *ColorStdoutWriter) WriteEvents(rows []tide.EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteFleetState prints fleet aggregate metrics to STDOUT.
func (w *ColorStdoutWriter) WriteFleetState(row tide.FleetStateRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sSTATE%s running=%d paused=%d stopped=%d alerting=%d worst=%s%s%s readings=%d\n",
		colorGray, row.Ts.Format(time.RFC3339), colorReset,
		colorBlue, colorReset, row.Running, row.Paused, row.Stopped,
		row.Alerting, levelColor(row.WorstLevel), row.WorstLevel, colorReset, row.Readings)
	return nil
}
