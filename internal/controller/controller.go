// Package controller drives one vessel over a direct serial side-channel,
// independent of the UDP command link: movement setpoints, waypoints,
// emergency stop and a periodic heartbeat, with status replies folded into
// a snapshot.
package controller

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"go.bug.st/serial"

	"shorelink/internal/util"
)

var (
	// ErrWriteFailed reports a short write to the controller port.
	ErrWriteFailed = errors.New("short write to controller port")
	// ErrBadReply reports a status reply payload of the wrong size.
	ErrBadReply = errors.New("malformed status reply")
)

// heartbeatPeriod is the keep-alive interval the vehicle firmware expects.
const heartbeatPeriod = time.Second

// closeWait bounds how long Close waits for the read loop to notice the
// closed port.
const closeWait = 3 * time.Second

// Port is the minimal serial surface the controller needs; it lets tests
// run against an in-memory pipe instead of real hardware.
type Port interface {
	io.ReadWriter
	io.Closer
}

// VehicleStatus is the latest state reported by the vehicle firmware.
type VehicleStatus struct {
	Latitude  float64
	Longitude float64
	Heading   float64 // degrees
	Speed     float64 // knots
	Battery   uint8   // percent
	Seen      time.Time
}

// Controller owns one serial port. Command methods may be called from any
// goroutine; writes are serialized.
type Controller struct {
	port Port

	writeMu sync.Mutex

	statusMu sync.Mutex
	status   VehicleStatus

	done chan struct{}
}

// New wraps an already-open port.
func New(port Port) *Controller {
	return &Controller{port: port}
}

// Open opens the serial device at the given baud rate (8N1) and wraps it.
func Open(device string, baud int) (*Controller, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open controller port %s: %w", device, err)
	}
	util.LogInfo("控制器串口已打开: %s @ %d", device, baud)
	return New(port), nil
}

// Start launches the heartbeat loop and the frame read loop. Both stop
// when ctx is cancelled or the port closes.
func (c *Controller) Start(ctx context.Context) {
	c.done = make(chan struct{})
	go c.heartbeatLoop(ctx)
	go c.readLoop(ctx)
}

// Close closes the port and waits for the read loop to drain.
func (c *Controller) Close() error {
	err := c.port.Close()
	if c.done != nil {
		select {
		case <-c.done:
		case <-time.After(closeWait):
			util.LogWarning("控制器读取循环未及时退出")
		}
	}
	return err
}

// ---
// Commands

// SendHeartbeat sends one keep-alive stamped with unix seconds.
func (c *Controller) SendHeartbeat() error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(time.Now().Unix()))
	return c.send(cmdHeartbeat, payload)
}

// SetMovement commands throttle and steering, both in [-100, 100]; values
// outside are clamped before the 0.1-step scaling.
func (c *Controller) SetMovement(throttle, steering float64) error {
	throttle = clamp(throttle, -100, 100)
	steering = clamp(steering, -100, 100)

	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], uint16(int16(throttle*10)))
	binary.LittleEndian.PutUint16(payload[2:4], uint16(int16(steering*10)))
	return c.send(cmdMovement, payload)
}

// RequestStatus asks the firmware for a status reply.
func (c *Controller) RequestStatus() error {
	return c.send(cmdStatusRequest, nil)
}

// SetWaypoint commands a single waypoint with a desired speed.
func (c *Controller) SetWaypoint(latitude, longitude float64, speed uint8) error {
	payload := make([]byte, 17)
	binary.LittleEndian.PutUint64(payload[0:8], math.Float64bits(latitude))
	binary.LittleEndian.PutUint64(payload[8:16], math.Float64bits(longitude))
	payload[16] = speed
	return c.send(cmdWaypoint, payload)
}

// EmergencyStop cuts propulsion immediately.
func (c *Controller) EmergencyStop() error {
	return c.send(cmdEmergencyStop, nil)
}

// LastStatus returns the latest status snapshot and whether any reply has
// arrived yet.
func (c *Controller) LastStatus() (VehicleStatus, bool) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status, !c.status.Seen.IsZero()
}

func (c *Controller) send(id uint8, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	frame := encodeFrame(id, payload)
	n, err := c.port.Write(frame)
	if err != nil {
		return fmt.Errorf("failed to write frame 0x%02X: %w", id, err)
	}
	if n != len(frame) {
		return ErrWriteFailed
	}
	return nil
}

// ---
// Loops

func (c *Controller) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.SendHeartbeat(); err != nil {
				util.LogWarning("控制器心跳发送失败: %v", err)
			}
		}
	}
}

func (c *Controller) readLoop(ctx context.Context) {
	defer close(c.done)

	var scan frameScanner
	buf := make([]byte, 256)
	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			for _, f := range scan.feed(buf[:n]) {
				c.dispatch(f)
			}
		}
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				util.LogWarning("控制器串口读取失败: %v", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Controller) dispatch(f frame) {
	switch f.id {
	case cmdStatusReply:
		st, err := decodeStatusReply(f.payload)
		if err != nil {
			util.LogWarning("控制器状态应答无效: %v", err)
			return
		}
		c.statusMu.Lock()
		c.status = st
		c.statusMu.Unlock()
		util.LogDebug("控制器状态: 纬度 %.6f, 经度 %.6f, 航向 %.1f, 航速 %.1f, 电量 %d%%",
			st.Latitude, st.Longitude, st.Heading, st.Speed, st.Battery)
	default:
		util.LogDebug("控制器未知帧: 0x%02X (%d 字节)", f.id, len(f.payload))
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
