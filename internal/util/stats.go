package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide link counter.
var Stats = &stats{}

type stats struct {
	CmdSent     atomic.Int64 // commands handed to the UDP sender since start
	CmdBytes    atomic.Int64 // cumulative command bytes written
	StatusRecv  atomic.Int64 // decoded platform status reports
	ContactRecv atomic.Int64 // decoded surface contact batches
	BytesRecv   atomic.Int64 // raw telemetry bytes off the wire
	Dropped     atomic.Int64 // datagrams rejected by the decoders
}

func (s *stats) AddCommand(n int) { s.CmdSent.Add(1); s.CmdBytes.Add(int64(n)) }
func (s *stats) AddStatus()       { s.StatusRecv.Add(1) }
func (s *stats) AddContacts()     { s.ContactRecv.Add(1) }
func (s *stats) AddRecv(n int)    { s.BytesRecv.Add(int64(n)) }
func (s *stats) AddDropped()      { s.Dropped.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs link statistics every
// 10 seconds, skipping idle intervals. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevCmd, prevStatus, prevContact, prevBytes, prevDropped int64
		for {
			select {
			case <-ticker.C:
				cmd := Stats.CmdSent.Load()
				status := Stats.StatusRecv.Load()
				contact := Stats.ContactRecv.Load()
				recv := Stats.BytesRecv.Load()
				dropped := Stats.Dropped.Load()

				up := cmd - prevCmd
				down := (status - prevStatus) + (contact - prevContact)
				rate := float64(recv-prevBytes) / 10.0
				bad := dropped - prevDropped

				if up > 0 || down > 0 || bad > 0 {
					pterm.DefaultLogger.Info(formatStats(up, status-prevStatus, contact-prevContact, rate, bad))
				}

				prevCmd = cmd
				prevStatus = status
				prevContact = contact
				prevBytes = recv
				prevDropped = dropped

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns a formatted string of the current interval for the logger.
func formatStats(cmd, status, contact int64, rate float64, dropped int64) string {
	return fmt.Sprintf("指令 %2d↑ | 遥测 %s/s (状态 %d, 目标 %d) | 丢弃 %d",
		cmd,
		formatBytes(rate),
		status,
		contact,
		dropped,
	)
}
