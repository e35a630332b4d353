package websocketPkg

import (
	"WoundMonitor/internal/api/wound"
	"WoundMonitor/internal/entity"
	"WoundMonitor/pkg/geometry"
	"WoundMonitor/pkg/measurement"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"os"
	"sync"
	"time"
)

// IWebsocket talks to the inference services. Both calls are request/response
// over a long-lived connection per service.
type IWebsocket interface {
	DetectQR(ctx context.Context, frame []byte) (*entity.QRDetectionResult, error)
	Segment(ctx context.Context, frame []byte) (*measurement.BinaryMask, error)
	IsConnected(service wound.VisionService) bool
	Reconnect(service wound.VisionService) error
	CloseConnections()
}

type serviceConn struct {
	// call serialises request/response pairs on conn.
	call sync.Mutex
	conn *websocket.Conn
}

type webSocketClient struct {
	log          *logrus.Logger
	mu           sync.Mutex
	conns        map[wound.VisionService]*serviceConn
	urls         map[wound.VisionService]string
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewVisionClient(log *logrus.Logger) IWebsocket {
	client := newClient(log, map[wound.VisionService]string{
		wound.QRDetection:  envOr("AI_QR_DETECTION_URL", "ws://localhost:8001/api/v1/qr/ws"),
		wound.Segmentation: envOr("AI_SEGMENTATION_URL", "ws://localhost:8000/api/v1/segment/ws"),
	})

	go client.connectInBackground(wound.QRDetection)
	go client.connectInBackground(wound.Segmentation)

	return client
}

func newClient(log *logrus.Logger, urls map[wound.VisionService]string) *webSocketClient {
	return &webSocketClient{
		log: log,
		conns: map[wound.VisionService]*serviceConn{
			wound.QRDetection:  {},
			wound.Segmentation: {},
		},
		urls:         urls,
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

func (c *webSocketClient) connectInBackground(service wound.VisionService) {
	if err := c.Reconnect(service); err != nil {
		c.log.Warnf("Initial connection to %s failed: %v. Will retry on demand.", serviceName(service), err)
	} else {
		c.log.Infof("Successfully connected to %s service", serviceName(service))
	}
}

func (c *webSocketClient) IsConnected(service wound.VisionService) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, ok := c.conns[service]
	return ok && sc.conn != nil
}

func (c *webSocketClient) Reconnect(service wound.VisionService) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reconnectLocked(service)
}

func (c *webSocketClient) reconnectLocked(service wound.VisionService) error {
	sc, ok := c.conns[service]
	if !ok {
		return fmt.Errorf("unknown vision service %q", service)
	}
	if sc.conn != nil {
		sc.conn.Close()
		sc.conn = nil
	}

	url := c.urls[service]
	if url == "" {
		return fmt.Errorf("URL for %s not configured", serviceName(service))
	}

	c.log.Debugf("Connecting to %s at %s", serviceName(service), url)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	sc.conn = conn
	go c.keepAlive(service, conn)

	return nil
}

func (c *webSocketClient) CloseConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sc := range c.conns {
		if sc.conn != nil {
			sc.conn.Close()
			sc.conn = nil
		}
	}
}

func (c *webSocketClient) keepAlive(service wound.VisionService, conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conns[service].conn != conn {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warnf("Ping failed for %s, marking connection as dead: %v", serviceName(service), err)
			c.drop(service, conn)
			return
		}
	}
}

// drop forgets conn unless it was already replaced.
func (c *webSocketClient) drop(service wound.VisionService, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sc := c.conns[service]; sc.conn == conn {
		sc.conn = nil
	}
	conn.Close()
}

func (c *webSocketClient) getConnection(service wound.VisionService) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, ok := c.conns[service]
	if !ok {
		return nil, fmt.Errorf("unknown vision service %q", service)
	}
	if sc.conn == nil {
		if err := c.reconnectLocked(service); err != nil {
			return nil, fmt.Errorf("cannot connect to %s service: %w", serviceName(service), err)
		}
	}
	return sc.conn, nil
}

// roundTrip sends frame as base64 text and waits for one reply. Deadlines are
// the tighter of the configured timeouts and ctx's deadline; cancelling ctx
// aborts a pending read.
func (c *webSocketClient) roundTrip(ctx context.Context, service wound.VisionService, frame []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	sc, ok := c.conns[service]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown vision service %q", service)
	}

	sc.call.Lock()
	defer sc.call.Unlock()

	conn, err := c.getConnection(service)
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	payload := base64.StdEncoding.EncodeToString(frame)

	conn.SetWriteDeadline(deadline(ctx, c.writeTimeout))
	c.log.Debugf("Sending %s frame of size: %d bytes", serviceName(service), len(payload))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		c.drop(service, conn)
		return nil, fmt.Errorf("error sending %s frame: %w", serviceName(service), err)
	}

	conn.SetReadDeadline(deadline(ctx, c.readTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.drop(service, conn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("error reading %s message: %w", serviceName(service), err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	return message, nil
}

func (c *webSocketClient) DetectQR(ctx context.Context, frame []byte) (*entity.QRDetectionResult, error) {
	message, err := c.roundTrip(ctx, wound.QRDetection, frame)
	if err != nil {
		return nil, err
	}
	return parseQRResult(message)
}

func (c *webSocketClient) Segment(ctx context.Context, frame []byte) (*measurement.BinaryMask, error) {
	message, err := c.roundTrip(ctx, wound.Segmentation, frame)
	if err != nil {
		return nil, err
	}
	return parseSegmentationResult(message)
}

func parseQRResult(message []byte) (*entity.QRDetectionResult, error) {
	var result entity.QRDetectionResult
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling QR response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("QR detection service: %s", result.Error)
	}

	if result.Detected {
		quad, ok := geometry.QuadFromPoints(result.Corners)
		if !ok {
			return nil, fmt.Errorf("QR detection service returned %d corners", len(result.Corners))
		}
		result.Quad = &quad
	}

	return &result, nil
}

func parseSegmentationResult(message []byte) (*measurement.BinaryMask, error) {
	var result entity.SegmentationResult
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling segmentation response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("segmentation service: %s", result.Error)
	}
	if result.Mask == "" {
		return nil, errors.New("segmentation service returned no mask")
	}

	raw, err := base64.StdEncoding.DecodeString(result.Mask)
	if err != nil {
		return nil, fmt.Errorf("decode mask: %w", err)
	}

	mask, err := measurement.DecodePNG(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if mask.Width() != result.Width || mask.Height() != result.Height {
		return nil, fmt.Errorf("%w: declared %dx%d, decoded %dx%d", measurement.ErrDimensionMismatch,
			result.Width, result.Height, mask.Width(), mask.Height())
	}

	return mask, nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func serviceName(service wound.VisionService) string {
	switch service {
	case wound.QRDetection:
		return "QR Detection"
	case wound.Segmentation:
		return "Wound Segmentation"
	default:
		return "Unknown Service"
	}
}
