package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shorelink/internal/protocol"
)

var testNames = map[uint16]string{
	0x5001: "无人艇 1号",
	0x5003: "无人艇 3号",
}

func TestRenderStatus(t *testing.T) {
	v := NewView(testNames)
	st := &protocol.Status{
		Header: protocol.Header{
			Seq:    42,
			Stamp:  450152505,
			Sender: 0x5003,
			Source: protocol.SourceVessel,
		},
		Longitude: 120.123456,
		Latitude:  -31.5,
		Altitude:  -2,
		Speed:     12.5,
		Heading:   87.5,
		Course:    90.0,
		Sim:       1,
		Fuel:      76,
		Ammo:      4,
	}

	out := v.renderStatus(st, time.Date(2026, 3, 14, 12, 30, 15, 0, time.Local))

	assert.Contains(t, out, "无人平台状态信息 | 2026-03-14 12:30:15.000")
	assert.Contains(t, out, "平台: 无人艇 3号")
	assert.Contains(t, out, "数据来源: 无人平台")
	assert.Contains(t, out, "模拟平台")
	assert.Contains(t, out, "经度: 120.123456°E")
	assert.Contains(t, out, "纬度: -31.500000°S")
	assert.Contains(t, out, "高度/深度: -2米")
	assert.Contains(t, out, "航速: 12.5节")
	assert.Contains(t, out, "航向: 87.5°")
	assert.Contains(t, out, "艏向: 90.0°")
	assert.Contains(t, out, "电/油余量: 76%")
	assert.Contains(t, out, "载弹量: 4")
	assert.Contains(t, out, "序列号: 42")
	assert.Contains(t, out, "时间戳: 450152505")
}

func TestRenderStatusUnknownSender(t *testing.T) {
	v := NewView(testNames)
	st := &protocol.Status{
		Header: protocol.Header{Sender: 0x9999, Source: protocol.SourceShore},
	}

	out := v.renderStatus(st, time.Now())

	assert.Contains(t, out, "未知平台 (0x9999)")
	assert.Contains(t, out, "数据来源: 岸基控制台")
	assert.Contains(t, out, "实装平台")
}

func TestRenderContacts(t *testing.T) {
	v := NewView(testNames)
	batch := &protocol.ContactBatch{
		Header: protocol.Header{Sender: 0x5001, Source: protocol.SourceVessel},
		Contacts: []protocol.Contact{
			{
				ID:        7,
				Longitude: 120.5,
				Latitude:  31.25,
				Bearing:   45.0,
				Range:     1500,
				Speed:     8.5,
				Heading:   270.0,
				Type:      1,
				Feature:   0x1234,
			},
			{ID: 8, Type: 9},
		},
	}

	out := v.renderContacts(batch, time.Now())

	assert.Contains(t, out, "平台: 无人艇 1号")
	assert.Contains(t, out, "目标数量: 2")
	assert.Contains(t, out, "目标 1 (批号: 7)")
	assert.Contains(t, out, "120.500000°E, 31.250000°N")
	assert.Contains(t, out, "航速 8.5节, 航向 270.0°")
	assert.Contains(t, out, "方位 45.0°, 距离 1500米")
	assert.Contains(t, out, "分类: 舰船, 特征码 0x00001234")
	assert.Contains(t, out, "目标 2 (批号: 8)")
	assert.Contains(t, out, "未知类型(9)")
}

func TestRenderContactsEmpty(t *testing.T) {
	v := NewView(testNames)
	batch := &protocol.ContactBatch{
		Header: protocol.Header{Sender: 0x5001},
	}

	out := v.renderContacts(batch, time.Now())

	assert.Contains(t, out, "目标数量: 0")
	assert.Contains(t, out, "未探测到目标")
}

// Sink calls before Start must be safe no-ops so the view can stay
// registered while the command prompt owns the terminal.
func TestViewIdleBeforeStart(t *testing.T) {
	v := NewView(testNames)

	assert.NoError(t, v.HandleStatus(&protocol.Status{}))
	assert.NoError(t, v.HandleContacts(&protocol.ContactBatch{}))
	v.Stop()
}

func TestFormatGeoHemispheres(t *testing.T) {
	cases := []struct {
		deg  float64
		want string
	}{
		{120.5, "120.500000°E"},
		{-73.9857, "-73.985700°W"},
		{0, "0.000000°E"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatGeo(tc.deg, "E", "W"))
	}
}
