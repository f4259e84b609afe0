// Package livelink accepts telemetry streams from OBD2 devices over
// WebSocket and MQTT and hands decoded readings to the telemetry service.
package livelink

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ReadingSink consumes decoded reading batches for one vehicle.
type ReadingSink interface {
	Process(ctx context.Context, vehicleID int64, raw []byte) error
}

// Connection represents an active device WebSocket connection.
type Connection struct {
	deviceID     string
	vehicleID    int64
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	sink         ReadingSink
	writeTimeout time.Duration
	onClose      func(deviceID string)
}

// NewConnection builds connection wrapper.
func NewConnection(deviceID string, vehicleID int64, ws *websocket.Conn, sink ReadingSink, writeTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		deviceID:     deviceID,
		vehicleID:    vehicleID,
		ws:           ws,
		send:         make(chan []byte, 16),
		logger:       logger,
		sink:         sink,
		writeTimeout: writeTimeout,
		onClose:      onClose,
	}
}

// DeviceID returns identifier.
func (c *Connection) DeviceID() string {
	return c.deviceID
}

// Start launches read/write pumps.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(1024 * 1024)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Info("device connection closed", zap.String("device_id", c.deviceID), zap.Error(err))
			return
		}

		if err := c.sink.Process(ctx, c.vehicleID, message); err != nil {
			c.logger.Warn("failed to process readings", zap.String("device_id", c.deviceID), zap.Error(err))
			continue
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message for writing.
func (c *Connection) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("attempted to send on closed channel", zap.String("device_id", c.deviceID))
		}
	}()
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping outgoing message, buffer full", zap.String("device_id", c.deviceID))
	}
}

// write is only ever called from the write pump goroutine; gorilla/websocket
// connections do not tolerate concurrent writers.
func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	close(c.send)
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c.deviceID)
	}
}
