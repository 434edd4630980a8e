// Redis sink exposing live fleet state to other consumers.
package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tidewatch-sim/internal/tide"

	"github.com/redis/go-redis/v9"
)

// RedisWriter keeps the latest reading per station, a rolling alert and
// event history, and the current fleet aggregate in Redis. Dashboards and
// other processes can poll these keys without touching the simulator.
type RedisWriter struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewRedisWriter connects to Redis and verifies the connection.
func NewRedisWriter(addr, password string, db int, ttl time.Duration) (*RedisWriter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisWriter{client: client, ctx: ctx, ttl: ttl}, nil
}

func latestReadingKey(stationID string) string {
	return fmt.Sprintf("tidewatch:latest:%s", stationID)
}

func readingCountKey(stationID string) string {
	return fmt.Sprintf("tidewatch:count:%s", stationID)
}

func alertKey(stationID string, seq uint64) string {
	return fmt.Sprintf("tidewatch:alert:%s:%d", stationID, seq)
}

func alertSetKey(fleetID string) string {
	return fmt.Sprintf("tidewatch:alerts:%s", fleetID)
}

func eventSetKey(fleetID string) string {
	return fmt.Sprintf("tidewatch:events:%s", fleetID)
}

func fleetStateKey(fleetID string) string {
	return fmt.Sprintf("tidewatch:state:%s", fleetID)
}

// Write stores the reading as the station's latest value and bumps the
// station's reading counter.
func (w *RedisWriter) Write(row tide.ReadingRow) error {
	jsonData, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	pipe := w.client.Pipeline()
	pipe.Set(w.ctx, latestReadingKey(row.StationID), jsonData, w.ttl)
	pipe.Incr(w.ctx, readingCountKey(row.StationID))
	pipe.Expire(w.ctx, readingCountKey(row.StationID), w.ttl)

	_, err = pipe.Exec(w.ctx)
	return err
}

// WriteAlert stores the alert and indexes it in a per-fleet sorted set so
// recent alerts are cheap to page through.
func (w *RedisWriter) WriteAlert(row tide.AlertRow) error {
	jsonData, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	// Alerts are kept longer than plain readings.
	alertTTL := w.ttl * 24
	key := alertKey(row.StationID, row.Seq)
	score := float64(row.Ts.Unix())

	pipe := w.client.Pipeline()
	pipe.Set(w.ctx, key, jsonData, alertTTL)
	pipe.ZAdd(w.ctx, alertSetKey(row.FleetID), redis.Z{Score: score, Member: key})
	pipe.Expire(w.ctx, alertSetKey(row.FleetID), alertTTL)

	_, err = pipe.Exec(w.ctx)
	return err
}

// WriteEvent appends the event to the fleet's event history.
func (w *RedisWriter) WriteEvent(row tide.EventRow) error {
	jsonData, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	score := float64(row.Ts.UnixNano())

	pipe := w.client.Pipeline()
	pipe.ZAdd(w.ctx, eventSetKey(row.FleetID), redis.Z{Score: score, Member: string(jsonData)})
	pipe.Expire(w.ctx, eventSetKey(row.FleetID), w.ttl*24)

	_, err = pipe.Exec(w.ctx)
	return err
}

// WriteFleetState stores the current fleet aggregate.
func (w *RedisWriter) WriteFleetState(row tide.FleetStateRow) error {
	jsonData, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal fleet state: %w", err)
	}
	return w.client.Set(w.ctx, fleetStateKey(row.FleetID), jsonData, w.ttl).Err()
}

// LatestReading returns the most recent reading stored for a station, or
// ok=false when none is cached.
func (w *RedisWriter) LatestReading(stationID string) (tide.ReadingRow, bool, error) {
	var row tide.ReadingRow

	val, err := w.client.Get(w.ctx, latestReadingKey(stationID)).Result()
	if err == redis.Nil {
		return row, false, nil
	}
	if err != nil {
		return row, false, err
	}
	if err := json.Unmarshal([]byte(val), &row); err != nil {
		return row, false, fmt.Errorf("unmarshal reading: %w", err)
	}
	return row, true, nil
}

// ReadingCount returns how many readings a station has written.
func (w *RedisWriter) ReadingCount(stationID string) (int64, error) {
	val, err := w.client.Get(w.ctx, readingCountKey(stationID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// RecentAlerts returns up to limit alert keys, newest first.
func (w *RedisWriter) RecentAlerts(fleetID string, limit int) ([]string, error) {
	keys, err := w.client.ZRevRange(w.ctx, alertSetKey(fleetID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	return keys, nil
}

// Close closes the Redis connection.
func (w *RedisWriter) Close() error {
	return w.client.Close()
}
