// Package console renders decoded telemetry as a live terminal view for
// the watch mode.
package console

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"shorelink/internal/protocol"
)

// contactTypes names the known contact classifications.
var contactTypes = map[uint16]string{
	0: "未知",
	1: "舰船",
	2: "小艇",
	3: "浮标",
}

// View is a station sink that repaints one terminal area with the latest
// telemetry packet. Until Start (and after Stop) packets are accepted and
// dropped quietly, so the view can stay registered while another mode owns
// the terminal.
type View struct {
	names map[uint16]string // node code -> display name

	mu   sync.Mutex
	area *pterm.AreaPrinter
}

// NewView builds the telemetry view over the configured vessel names.
func NewView(names map[uint16]string) *View {
	return &View{names: names}
}

// Start opens the live terminal area.
func (v *View) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	area, err := pterm.DefaultArea.WithFullscreen().Start("等待遥测数据...")
	if err != nil {
		return err
	}
	v.area = area
	return nil
}

// Stop closes the terminal area.
func (v *View) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.area != nil {
		v.area.Stop()
		v.area = nil
	}
}

// HandleStatus repaints the view with a platform status report.
func (v *View) HandleStatus(st *protocol.Status) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.area != nil {
		v.area.Update(v.renderStatus(st, time.Now()))
	}
	return nil
}

// HandleContacts repaints the view with a surface contact report.
func (v *View) HandleContacts(batch *protocol.ContactBatch) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.area != nil {
		v.area.Update(v.renderContacts(batch, time.Now()))
	}
	return nil
}

func (v *View) renderStatus(st *protocol.Status, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== 无人平台状态信息 | %s ===\n", now.Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&b, "平台: %s | 数据来源: %s | %s\n",
		v.vesselName(st.Header.Sender), sourceName(st.Header.Source), simName(st.Sim))

	b.WriteString("\n◆ 位置信息:\n")
	fmt.Fprintf(&b, "  • 经度: %s\n", formatGeo(st.Longitude, "E", "W"))
	fmt.Fprintf(&b, "  • 纬度: %s\n", formatGeo(st.Latitude, "N", "S"))
	fmt.Fprintf(&b, "  • 高度/深度: %d米\n", st.Altitude)

	b.WriteString("\n◆ 运动参数:\n")
	fmt.Fprintf(&b, "  • 航速: %.1f节\n", st.Speed)
	fmt.Fprintf(&b, "  • 航向: %.1f°\n", st.Heading)
	fmt.Fprintf(&b, "  • 艏向: %.1f°\n", st.Course)

	b.WriteString("\n◆ 平台状态:\n")
	fmt.Fprintf(&b, "  • 电/油余量: %d%%\n", st.Fuel)
	fmt.Fprintf(&b, "  • 载弹量: %d\n", st.Ammo)

	b.WriteString("\n◆ 其他信息:\n")
	fmt.Fprintf(&b, "  • 云台角度: %.1f°\n", st.Gimbal)
	fmt.Fprintf(&b, "  • 机身角度: %.1f°\n", st.BodyAngle)
	fmt.Fprintf(&b, "  • 序列号: %d\n", st.Header.Seq)
	fmt.Fprintf(&b, "  • 时间戳: %d\n", st.Header.Stamp)
	return b.String()
}

func (v *View) renderContacts(batch *protocol.ContactBatch, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== 水面目标信息 | %s ===\n", now.Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&b, "平台: %s | 数据来源: %s | 目标数量: %d\n",
		v.vesselName(batch.Header.Sender), sourceName(batch.Header.Source), len(batch.Contacts))

	if len(batch.Contacts) == 0 {
		b.WriteString("\n未探测到目标\n")
		return b.String()
	}
	for i, c := range batch.Contacts {
		fmt.Fprintf(&b, "\n◆ 目标 %d (批号: %d):\n", i+1, c.ID)
		fmt.Fprintf(&b, "  • 位置: %s, %s\n", formatGeo(c.Longitude, "E", "W"), formatGeo(c.Latitude, "N", "S"))
		fmt.Fprintf(&b, "  • 航行: 航速 %.1f节, 航向 %.1f°\n", c.Speed, c.Heading)
		fmt.Fprintf(&b, "  • 相对: 方位 %.1f°, 距离 %d米\n", c.Bearing, c.Range)
		fmt.Fprintf(&b, "  • 分类: %s, 特征码 0x%08X\n", contactTypeName(c.Type), c.Feature)
	}
	return b.String()
}

func (v *View) vesselName(code uint16) string {
	if name, ok := v.names[code]; ok {
		return name
	}
	return fmt.Sprintf("未知平台 (0x%04X)", code)
}

func contactTypeName(t uint16) string {
	if name, ok := contactTypes[t]; ok {
		return name
	}
	return fmt.Sprintf("未知类型(%d)", t)
}

func sourceName(src uint8) string {
	if src == protocol.SourceShore {
		return "岸基控制台"
	}
	return "无人平台"
}

func simName(sim uint8) string {
	if sim != 0 {
		return "模拟平台"
	}
	return "实装平台"
}

// formatGeo keeps the signed degree value and appends the hemisphere
// letter, matching the operator display convention.
func formatGeo(deg float64, pos, neg string) string {
	hemi := pos
	if deg < 0 {
		hemi = neg
	}
	return fmt.Sprintf("%.6f°%s", deg, hemi)
}
