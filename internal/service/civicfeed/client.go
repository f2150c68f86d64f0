package civicfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	drepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// Client implements a SignalStream backed by the civic data WebSocket
// feed, which pushes hourly foot-traffic counter readings per location.
type Client struct {
	apiKey         string
	websocketURL   string
	locations      []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new civic feed SignalStream.
func New(apiKey, websocketURL string, locations []string, reconnectDelay, pingInterval time.Duration) drepo.SignalStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		locations:      locations,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("civicfeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("civicfeed: connected")
	return nil
}

// Subscribe subscribes to configured locations.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("civicfeed not connected")
	}
	for _, loc := range c.locations {
		msg := map[string]string{"type": "subscribe", "location": loc}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", loc, err)
		}
		log.Printf("civicfeed: subscribed %s", loc)
	}
	return nil
}

type cfReading struct {
	Location string  `json:"location"`
	Count    float64 `json:"count"`
	T        int64   `json:"t"` // ms
}

type cfMessage struct {
	Type string      `json:"type"`
	Data []cfReading `json:"data"`
}

// Read streams foot-traffic signals and errors. Counter readings within
// the same day overwrite at the store, so the day's signal converges to
// the latest pushed count.
func (c *Client) Read(ctx context.Context) (<-chan *models.Signal, <-chan error) {
	signals := make(chan *models.Signal, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(signals)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("civicfeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("civicfeed read: %w", err)
					return
				}
				var m cfMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-reading frames
					continue
				}
				if m.Type != "reading" {
					continue
				}
				for _, d := range m.Data {
					sig := &models.Signal{
						Source:    models.SourceTraffic,
						Metric:    models.MetricKey(d.Location, "foot_traffic"),
						Timestamp: time.UnixMilli(d.T).UTC(),
						Value:     d.Count,
						Unit:      "persons",
					}
					select {
					case signals <- sig:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return signals, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
