package fleet

import (
	"context"
	"log"
	"net"
	"strconv"

	"tidewatch-sim/internal/tide"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// greptimeClient is the ingest surface used by the writer. The concrete
// client from greptimedb-ingester-go satisfies it.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter persists readings, alerts, events, and fleet state to
// GreptimeDB. Tables are auto-created by the server on first ingest.
type GreptimeDBWriter struct {
	client       greptimeClient
	readingTable string
	alertTable   string
	eventTable   string
	stateTable   string
}

// NewGreptimeDBWriter connects to GreptimeDB. The endpoint is "host" or
// "host:port"; the gRPC port defaults to 4001.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host := endpoint
	port := 4001
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	cfg := greptime.NewConfig(host).
		WithPort(port).
		WithDatabase(database)

	cli, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &GreptimeDBWriter{
		client:       cli,
		readingTable: tide.ReadingTableName,
		alertTable:   tide.AlertTableName,
		eventTable:   tide.EventTableName,
		stateTable:   tide.FleetStateTableName,
	}, nil
}

// Write inserts a single reading row.
func (w *GreptimeDBWriter) Write(row tide.ReadingRow) error {
	return w.WriteBatch([]tide.ReadingRow{row})
}

// WriteBatch inserts multiple reading rows.
func (w *GreptimeDBWriter) WriteBatch(rows []tide.ReadingRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := readingsTable(w.readingTable, rows)
	if err != nil {
		return err
	}
	return w.send(tbl)
}

// WriteAlert inserts a single alert row.
func (w *GreptimeDBWriter) WriteAlert(row tide.AlertRow) error {
	return w.WriteAlerts([]tide.AlertRow{row})
}

// WriteAlerts inserts multiple alert rows.
func (w *GreptimeDBWriter) WriteAlerts(rows []tide.AlertRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := alertsTable(w.alertTable, rows)
	if err != nil {
		return err
	}
	return w.send(tbl)
}

// WriteEvent inserts a single lifecycle event row.
func (w *GreptimeDBWriter) WriteEvent(row tide.EventRow) error {
	return w.WriteEvents([]tide.EventRow{row})
}

// WriteEvents inserts multiple lifecycle event rows.
func (w *GreptimeDBWriter) WriteEvents(rows []tide.EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := eventsTable(w.eventTable, rows)
	if err != nil {
		return err
	}
	return w.send(tbl)
}

// WriteFleetState inserts one fleet aggregate row.
func (w *GreptimeDBWriter) WriteFleetState(row tide.FleetStateRow) error {
	tbl, err := fleetStateTable(w.stateTable, row)
	if err != nil {
		return err
	}
	return w.send(tbl)
}

func (w *GreptimeDBWriter) send(tbl *table.Table) error {
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		log.Printf("[GreptimeDBWriter] write failed: %v", err)
		return err
	}
	return nil
}

func readingsTable(name string, rows []tide.ReadingRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("fleet_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("station_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("seq", types.UINT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("water_level", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("temperature", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("pressure", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("wind_speed", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("level", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	for _, r := range rows {
		err := tbl.AddRow(r.FleetID, r.StationID, r.Seq,
			r.WaterLevel, r.Temperature, r.Pressure, r.WindSpeed,
			r.Level, r.Timestamp)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func alertsTable(name string, rows []tide.AlertRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("fleet_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("station_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("seq", types.UINT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("water_level", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("level", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("low", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("high", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("message", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	for _, r := range rows {
		err := tbl.AddRow(r.FleetID, r.StationID, r.Seq,
			r.WaterLevel, r.Level, r.Low, r.High, r.Message, r.Ts)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func eventsTable(name string, rows []tide.EventRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("fleet_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("station_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("type", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("detail", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.FleetID, r.StationID, r.Type, r.Detail, r.Ts); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func fleetStateTable(name string, row tide.FleetStateRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("fleet_id", types.STRING); err != nil {
		return nil, err
	}
	for _, col := range []string{"stations", "initializing", "running", "paused", "stopped", "failed", "alerting"} {
		if err := tbl.AddFieldColumn(col, types.INT64); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddFieldColumn("worst_level", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("readings", types.UINT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("interrupts", types.UINT64); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	err = tbl.AddRow(row.FleetID,
		int64(row.Stations), int64(row.Initializing), int64(row.Running),
		int64(row.Paused), int64(row.Stopped), int64(row.Failed), int64(row.Alerting),
		row.WorstLevel, row.Readings, row.Interrupts, row.Ts)
	if err != nil {
		return nil, err
	}
	return tbl, nil
}
