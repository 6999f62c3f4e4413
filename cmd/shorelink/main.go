// Shorelink is the shore station CLI.
//
// It sends speed/heading and route commands to unmanned surface vessels
// over the UDP command link and receives the multicast telemetry streams
// (platform status and surface contacts). Optional services configured in
// shorelink.yaml: a WebSocket telemetry relay, a SQLite track recorder and
// a direct serial controller bridge.
//
// It runs the interactive command console by default, or the live
// telemetry display with -watch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"shorelink/internal/config"
	"shorelink/internal/console"
	"shorelink/internal/controller"
	"shorelink/internal/protocol"
	"shorelink/internal/recorder"
	"shorelink/internal/relay"
	"shorelink/internal/station"
	"shorelink/internal/util"
)

var version = "dev"

// Interactive menu entries.
const (
	optSpeedHeading = "速度航向指令"
	optRoute        = "航路指令"
	optEStop        = "紧急停止 (串口)"
	optQuit         = "退出"
)

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	configDir := flag.String("config", ".", "Config directory containing shorelink.yaml")
	watchMode := flag.Bool("watch", false, "Receive-only mode with the live telemetry display")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Shorelink v%s", version))
	pterm.Println()

	cfg, err := config.Load(*configDir)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	if cfg.LogLevel == "debug" {
		util.EnableDebug()
	}

	st, err := station.New(ctx, cfg)
	if err != nil {
		util.LogError("failed to start station: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	ctrl := attachServices(ctx, cfg, st)

	go st.Run(ctx)
	util.StartStatsReporter(ctx)
	util.LogInfo("链路已就绪: 指令 %s, 遥测组 %s/%s:%d",
		cfg.CommandAddr(), cfg.Telemetry.StatusGroup, cfg.Telemetry.ContactsGroup, cfg.Telemetry.Port)
	pterm.Println()

	if *watchMode {
		runWatch(ctx, cfg, st)
	} else {
		runConsole(ctx, cfg, st, ctrl)
	}

	// Cancel the link context before the deferred Close waits on the
	// transport loops; a menu quit must not sit out their timeouts.
	stop()
	if ctrl != nil {
		ctrl.Close()
	}

	util.LogInfo("岸基控制台已退出")
}

// attachServices wires the optional sinks and the serial bridge from the
// configuration. A configured service that fails to come up is fatal.
func attachServices(ctx context.Context, cfg *config.Config, st *station.Station) *controller.Controller {
	if cfg.Relay.Listen != "" {
		hub := relay.NewHub()
		if _, err := hub.Start(cfg.Relay.Listen); err != nil {
			util.LogError("%v", err)
			os.Exit(1)
		}
		st.AddSink(hub)
	}

	if cfg.Recorder.Path != "" {
		rec, err := recorder.Open(cfg.Recorder.Path)
		if err != nil {
			util.LogError("%v", err)
			os.Exit(1)
		}
		st.AddSink(rec)
		util.LogInfo("航迹记录已启用: %s", cfg.Recorder.Path)
	}

	if cfg.Serial.Device == "" {
		return nil
	}
	ctrl, err := controller.Open(cfg.Serial.Device, cfg.Serial.Baud)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	ctrl.Start(ctx)
	return ctrl
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// runConsole drives the interactive command loop until the operator exits.
func runConsole(ctx context.Context, cfg *config.Config, st *station.Station, ctrl *controller.Controller) {
	indices := cfg.Codebook().Indices()

	for ctx.Err() == nil {
		options := []string{optSpeedHeading, optRoute}
		if ctrl != nil {
			options = append(options, optEStop)
		}
		options = append(options, optQuit)

		choice, _ := pterm.DefaultInteractiveSelect.
			WithOptions(options).
			WithDefaultText("请选择指令类型").
			Show()
		pterm.Println()

		switch choice {
		case optSpeedHeading:
			sendSpeedHeading(ctx, st, indices)
		case optRoute:
			sendRoute(ctx, st, indices)
		case optEStop:
			if err := ctrl.EmergencyStop(); err != nil {
				util.LogError("紧急停止发送失败: %v", err)
			} else {
				util.LogInfo("紧急停止已发送")
			}
			pterm.Println()
		default:
			return
		}
	}
}

// runWatch attaches the live view and blocks until interrupted.
func runWatch(ctx context.Context, cfg *config.Config, st *station.Station) {
	view := console.NewView(cfg.VesselNames())
	if err := view.Start(); err != nil {
		util.LogError("failed to start display: %v", err)
		os.Exit(1)
	}
	defer view.Stop()
	st.AddSink(view)

	<-ctx.Done()
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func sendSpeedHeading(ctx context.Context, st *station.Station, indices []int) {
	vessel := askVessel(indices)
	speed := askFloat("请输入航速 (节, 负值表示倒车)")
	heading := askHeading()

	st.SendSpeedHeading(ctx, vessel, speed, heading)
	util.LogInfo("速度航向指令已下达: %d号艇, 航速 %.1f节, 航向 %.1f°", vessel, speed, heading)
	pterm.Println()
}

func sendRoute(ctx context.Context, st *station.Station, indices []int) {
	vessel := askVessel(indices)
	count := askWaypointCount()

	wps := make([]protocol.Waypoint, 0, count)
	for i := 1; i <= count; i++ {
		pterm.Println(fmt.Sprintf("航点 %d:", i))
		lon := askFloat("  经度 (度, 东经为正)")
		lat := askFloat("  纬度 (度, 北纬为正)")
		speed := askFloat("  航速 (节)")
		wps = append(wps, protocol.Waypoint{Longitude: lon, Latitude: lat, Speed: speed})
	}

	if err := st.SendRoute(ctx, vessel, wps); err != nil {
		util.LogError("航路指令编码失败: %v", err)
		return
	}
	util.LogInfo("航路指令已下达: %d号艇, %d 个航点", vessel, count)
	pterm.Println()
}

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

// askVessel prompts for a configured vessel number until one is entered.
func askVessel(indices []int) int {
	hint := formatIndices(indices)
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(fmt.Sprintf("请输入无人艇编号 %s", hint)).
			Show()

		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && contains(indices, v) {
			pterm.Println()
			return v
		}

		util.LogWarning("错误: 无人艇编号必须是 %s 之一", hint)
		pterm.Println()
	}
}

// askFloat prompts until a parsable number is entered.
func askFloat(prompt string) float64 {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(prompt).
			Show()

		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil {
			return v
		}

		util.LogWarning("输入错误: 请输入有效的数值")
		pterm.Println()
	}
}

// askHeading prompts for a heading in [0, 360).
func askHeading() float64 {
	for {
		v := askFloat("请输入航向 (度, 0-359.9)")
		if v >= 0 && v < 360 {
			return v
		}

		util.LogWarning("错误: 航向必须在0-359.9度之间")
		pterm.Println()
	}
}

// askWaypointCount prompts for the number of route legs the wire format
// can carry.
func askWaypointCount() int {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("请输入航点数量 (2-255)").
			Show()

		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && n >= 2 && n <= 255 {
			return n
		}

		util.LogWarning("错误: 航点数量必须在2-255之间")
		pterm.Println()
	}
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// formatIndices renders the selectable vessel numbers, collapsing the
// common contiguous case.
func formatIndices(indices []int) string {
	if len(indices) == 0 {
		return "(无)"
	}
	contiguous := len(indices) > 1
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			contiguous = false
			break
		}
	}
	if contiguous {
		return fmt.Sprintf("(%d-%d)", indices[0], indices[len(indices)-1])
	}

	parts := make([]string, len(indices))
	for i, v := range indices {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, "/") + ")"
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
