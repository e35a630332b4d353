package woundHandler

import (
	contextPkg "WoundMonitor/pkg/context"
	"WoundMonitor/pkg/log"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
	"time"
)

const (
	frameReadTimeout  = 60 * time.Second
	frameWriteTimeout = 10 * time.Second
	frameTimeout      = 5 * time.Second
)

// handleCalibrationWebSocket owns one calibration tracker for the lifetime of
// the connection. Every binary frame gets exactly one JSON answer.
func (h *WoundHandler) handleCalibrationWebSocket(c *websocket.Conn) {
	sessionID := c.Query("session_id")
	connCtx := contextPkg.WithRequestID(context.Background(), contextPkg.ResolveRequestID(c.Locals(contextPkg.RequestIDLocal), ""))
	if providerID, ok := c.Locals(contextPkg.ProviderIDLocal).(string); ok {
		connCtx = contextPkg.WithProviderID(connCtx, providerID)
	}
	logger := log.WithRequestID(connCtx, h.log).WithField("session_id", sessionID)

	logger.Info("Calibration WebSocket client connected")
	defer logger.Info("Calibration WebSocket client disconnected")

	tracker := h.woundService.NewTracker()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(frameReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Calibration WebSocket error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		ctx, cancel := context.WithTimeout(connCtx, frameTimeout)
		result, err := h.woundService.ProcessCalibrationFrame(ctx, sessionID, tracker, message)
		cancel()
		if err != nil {
			logger.Warnf("Error processing calibration frame: %v", err)
		}

		if err := c.SetWriteDeadline(time.Now().Add(frameWriteTimeout)); err != nil {
			logger.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			logger.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}
