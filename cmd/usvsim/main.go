// USV link simulator.
//
// Development peer for the shore station: binds the command port, executes
// speed/heading and route commands against a simple motion model, and
// multicasts platform status and synthetic surface contacts on the
// telemetry groups.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"shorelink/internal/config"
	"shorelink/internal/protocol"
	"shorelink/internal/transport"
	"shorelink/internal/util"
)

// tickPeriod is the motion integration step.
const tickPeriod = 100 * time.Millisecond

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	configDir := flag.String("config", ".", "Config directory containing shorelink.yaml")
	vessel := flag.Int("vessel", 1, "Vessel number to simulate")
	lat := flag.Float64("lat", 31.05, "Initial latitude in degrees")
	lon := flag.Float64("lon", 122.30, "Initial longitude in degrees")
	statusPeriod := flag.Duration("statusPeriod", time.Second, "Status report interval")
	contactsPeriod := flag.Duration("contactsPeriod", 2*time.Second, "Contact report interval")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║          USV Link Simulator          ║")
	fmt.Println("╚══════════════════════════════════════╝")
	fmt.Println()

	cfg, err := config.Load(*configDir)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	code := cfg.Codebook().Resolve(*vessel)
	model := newVesselModel(*lat, *lon)

	cmdConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: cfg.Command.Port})
	if err != nil {
		util.LogError("failed to bind command port: %v", err)
		os.Exit(1)
	}

	statusConn, err := dialGroup(cfg.Telemetry.StatusGroup, cfg.Telemetry.Port)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	contactsConn, err := dialGroup(cfg.Telemetry.ContactsGroup, cfg.Telemetry.Port)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	util.LogInfo("模拟 %d号艇 (节点 0x%04X): 指令端口 :%d, 遥测组 %s / %s",
		*vessel, code, cfg.Command.Port, statusConn.RemoteAddr(), contactsConn.RemoteAddr())

	go commandLoop(ctx, cmdConn, code, model)
	telemetryLoop(ctx, statusConn, contactsConn, code, model, *statusPeriod, *contactsPeriod)

	util.LogInfo("模拟器已退出")
}

// dialGroup opens a send-only socket toward one multicast group.
func dialGroup(group string, port int) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(group, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group %s: %w", group, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry socket: %w", err)
	}
	return conn, nil
}

// ---------------------------------------------------------------------------
// Loops
// ---------------------------------------------------------------------------

// commandLoop receives and applies shore commands addressed to this
// vessel. One bad datagram never stops the loop.
func commandLoop(ctx context.Context, conn *net.UDPConn, code uint16, model *vesselModel) {
	defer conn.Close()

	buf := make([]byte, transport.MaxDatagram)
	for {
		conn.SetReadDeadline(time.Now().Add(transport.ReadTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			util.LogWarning("指令接收失败: %v", err)
			continue
		}
		handleCommand(buf[:n], code, model)
	}
}

func handleCommand(data []byte, code uint16, model *vesselModel) {
	h, err := protocol.ParseHeader(data)
	if err != nil {
		util.LogWarning("指令报文过短: %d 字节", len(data))
		return
	}
	if h.Receiver != code {
		util.LogDebug("忽略发往 0x%04X 的指令", h.Receiver)
		return
	}

	switch h.Param {
	case protocol.ParamSpeedHeading:
		cmd, err := protocol.DecodeSpeedHeading(data)
		if err != nil {
			util.LogWarning("速度航向指令无效: %v", err)
			return
		}
		model.SetSpeedHeading(cmd.Speed, cmd.Heading)
		util.LogInfo("收到速度航向指令: 航速 %.1f节, 航向 %.1f°", cmd.Speed, cmd.Heading)

	case protocol.ParamRoute:
		rt, err := protocol.DecodeRoute(data)
		if err != nil {
			util.LogWarning("航路指令无效: %v", err)
			return
		}
		model.SetRoute(rt.Waypoints)
		util.LogInfo("收到航路指令: %d 个航点", len(rt.Waypoints))

	default:
		util.LogWarning("未知指令参数标识: 0x%02X", h.Param)
	}
}

// telemetryLoop integrates the model and publishes status and contact
// reports at their configured rates.
func telemetryLoop(ctx context.Context, statusConn, contactsConn *net.UDPConn, code uint16,
	model *vesselModel, statusPeriod, contactsPeriod time.Duration) {
	defer statusConn.Close()
	defer contactsConn.Close()

	tick := time.NewTicker(tickPeriod)
	defer tick.Stop()

	var seq uint8
	last := time.Now()
	nextStatus := last
	nextContacts := last
	for {
		select {
		case <-ctx.Done():
			return

		case now := <-tick.C:
			model.Step(now.Sub(last).Seconds())
			last = now

			if !now.Before(nextStatus) {
				nextStatus = now.Add(statusPeriod)
				seq++
				st := model.Status(code, seq, protocol.DayStamp(now))
				if _, err := statusConn.Write(protocol.EncodeStatus(st)); err != nil {
					util.LogWarning("状态发送失败: %v", err)
				}
			}

			if !now.Before(nextContacts) {
				nextContacts = now.Add(contactsPeriod)
				seq++
				data, err := protocol.EncodeContacts(model.Contacts(code, seq, protocol.DayStamp(now)))
				if err != nil {
					util.LogWarning("目标批报编码失败: %v", err)
					continue
				}
				if _, err := contactsConn.Write(data); err != nil {
					util.LogWarning("目标批报发送失败: %v", err)
				}
			}
		}
	}
}
