package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Window is how far back mock-draft picks count toward ADP
const Window = 30 * 24 * time.Hour

const (
	playerADPQuery = `
		SELECT avg(overall_pick) AS adp
		FROM mock_draft_picks
		WHERE player_id = ?
		AND picked_at >= now() - toIntervalSecond(?)
	`
	allADPQuery = `
		SELECT player_id, avg(overall_pick) AS adp
		FROM mock_draft_picks
		WHERE picked_at >= now() - toIntervalSecond(?)
		GROUP BY player_id
		HAVING count() >= ?
	`
)

// MinSamples is the fewest picks a player needs before its average is trusted
const MinSamples = 5

// Client aggregates average draft position from mock-draft pick logs
type Client struct {
	conn driver.Conn
}

// Options configures the connection
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// NewClient creates a new ClickHouse client
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn}, nil
}

// GetADP returns one player's average overall pick over the window
func (c *Client) GetADP(ctx context.Context, playerID string) (float64, error) {
	var adp float64
	row := c.conn.QueryRow(ctx, playerADPQuery, playerID, int64(Window.Seconds()))
	if err := row.Scan(&adp); err != nil {
		return 0, fmt.Errorf("adp for %s: %w", playerID, err)
	}
	return adp, nil
}

// GetAllADP returns playerID to average overall pick for every player with
// enough picks in the window
func (c *Client) GetAllADP(ctx context.Context) (map[string]float64, error) {
	rows, err := c.conn.Query(ctx, allADPQuery, int64(Window.Seconds()), uint64(MinSamples))
	if err != nil {
		return nil, fmt.Errorf("query adp: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var id string
		var adp float64
		if err := rows.Scan(&id, &adp); err != nil {
			return nil, err
		}
		out[id] = adp
	}
	return out, rows.Err()
}

// SyncADP loads the current averages and hands them to update
func (c *Client) SyncADP(ctx context.Context, update func(map[string]float64) error) error {
	adp, err := c.GetAllADP(ctx)
	if err != nil {
		return err
	}
	if len(adp) == 0 {
		return nil
	}
	return update(adp)
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
