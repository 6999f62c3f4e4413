package main

import (
	"math"
	"sync"

	"shorelink/internal/protocol"
)

// Motion tuning.
const (
	accelRate   = 1.0  // knots per second toward the commanded speed
	turnRate    = 15.0 // degrees per second toward the commanded heading
	arriveRange = 30.0 // metres to consider a waypoint reached
	knots2ms    = 0.514444
	mPerDegLat  = 111320.0
)

// vesselModel integrates first-order motion from the last shore command.
// Command updates arrive on the receive goroutine, ticks and snapshots on
// the telemetry loop.
type vesselModel struct {
	mu sync.Mutex

	lat, lon float64 // degrees
	speed    float64 // knots
	heading  float64 // degrees, north zero, clockwise

	wantSpeed   float64
	wantHeading float64

	route    []protocol.Waypoint
	routeIdx int

	fuel        float64
	contactSpin float64
}

func newVesselModel(lat, lon float64) *vesselModel {
	return &vesselModel{lat: lat, lon: lon, fuel: 100}
}

// SetSpeedHeading applies a direct setpoint, dropping any active route.
func (m *vesselModel) SetSpeedHeading(speed, heading float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wantSpeed = speed
	m.wantHeading = normalize(heading)
	m.route = nil
	m.routeIdx = 0
}

// SetRoute starts sequential execution of the uploaded waypoints.
func (m *vesselModel) SetRoute(wps []protocol.Waypoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route = wps
	m.routeIdx = 0
}

// Step advances the model by dt seconds.
func (m *vesselModel) Step(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steerRoute()

	m.speed = approach(m.speed, m.wantSpeed, accelRate*dt)
	m.heading = turnToward(m.heading, m.wantHeading, turnRate*dt)

	// Dead-reckon the position.
	dist := m.speed * knots2ms * dt
	rad := m.heading * math.Pi / 180
	m.lat += dist * math.Cos(rad) / mPerDegLat
	m.lon += dist * math.Sin(rad) / (mPerDegLat * math.Cos(m.lat*math.Pi/180))

	m.fuel = math.Max(0, m.fuel-math.Abs(m.speed)*dt/3600)
	m.contactSpin += dt
}

// steerRoute derives the setpoints from the active route leg, advancing
// past reached waypoints and stopping after the last one.
func (m *vesselModel) steerRoute() {
	for m.routeIdx < len(m.route) {
		wp := m.route[m.routeIdx]
		bearing, dist := bearingDistance(m.lat, m.lon, wp.Latitude, wp.Longitude)
		if dist <= arriveRange {
			m.routeIdx++
			continue
		}
		m.wantSpeed = wp.Speed
		m.wantHeading = bearing
		return
	}
	if len(m.route) > 0 {
		// Route complete: hold position.
		m.wantSpeed = 0
	}
}

// Status renders the current state as a status report.
func (m *vesselModel) Status(code uint16, seq uint8, stamp uint32) *protocol.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &protocol.Status{
		Header:    protocol.Header{Seq: seq, Stamp: stamp, Sender: code},
		Longitude: m.lon,
		Latitude:  m.lat,
		Speed:     m.speed,
		Heading:   m.heading,
		Course:    m.heading,
		Mode:      1,
		Sim:       1,
		Fuel:      uint8(math.Round(m.fuel)),
		Ammo:      4,
	}
}

// contactTracks are the synthetic targets orbiting the vessel.
var contactTracks = []struct {
	id      uint16
	rangeM  float64
	rate    float64 // degrees per second of bearing drift
	speed   float64
	typ     uint16
	feature uint32
}{
	{id: 1001, rangeM: 1500, rate: 1.5, speed: 8, typ: 1, feature: 0x00000001},
	{id: 1002, rangeM: 600, rate: -4, speed: 15, typ: 2, feature: 0x00000002},
}

// Contacts renders the synthetic target picture around the vessel.
func (m *vesselModel) Contacts(code uint16, seq uint8, stamp uint32) *protocol.ContactBatch {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := &protocol.ContactBatch{
		Header: protocol.Header{Seq: seq, Stamp: stamp, Sender: code},
	}
	for i, tr := range contactTracks {
		bearing := normalize(float64(i)*137 + tr.rate*m.contactSpin)
		rad := bearing * math.Pi / 180
		north := tr.rangeM * math.Cos(rad)
		east := tr.rangeM * math.Sin(rad)
		batch.Contacts = append(batch.Contacts, protocol.Contact{
			ID:        tr.id,
			Longitude: m.lon + east/(mPerDegLat*math.Cos(m.lat*math.Pi/180)),
			Latitude:  m.lat + north/mPerDegLat,
			Bearing:   bearing,
			Range:     uint16(tr.rangeM),
			Speed:     tr.speed,
			Heading:   normalize(bearing + 90),
			Type:      tr.typ,
			Feature:   tr.feature,
		})
	}
	return batch
}

// ---
// Geometry helpers

// bearingDistance returns the initial bearing (degrees, north zero,
// clockwise) and the distance in metres between two fixes, on a flat-earth
// approximation that is fine at route scale.
func bearingDistance(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	north := (lat2 - lat1) * mPerDegLat
	east := (lon2 - lon1) * mPerDegLat * math.Cos(lat1*math.Pi/180)
	bearing := math.Atan2(east, north) * 180 / math.Pi
	if bearing < 0 {
		bearing += 360
	}
	return bearing, math.Hypot(north, east)
}

func approach(current, target, step float64) float64 {
	diff := target - current
	if math.Abs(diff) <= step {
		return target
	}
	return current + math.Copysign(step, diff)
}

// turnToward takes the shorter way around the circle.
func turnToward(current, target, step float64) float64 {
	diff := math.Mod(target-current+540, 360) - 180
	if math.Abs(diff) <= step {
		return normalize(target)
	}
	return normalize(current + math.Copysign(step, diff))
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
