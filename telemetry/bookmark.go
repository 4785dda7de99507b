package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkBounceSpike     BookmarkType = "bounce_spike"
	BookmarkPressureDrained BookmarkType = "pressure_drained"
	BookmarkFieldSettled    BookmarkType = "field_settled"
)

// Detection thresholds
const (
	bounceSpikeFactor  = 2.0  // bounce rate vs rolling average
	minSpikeBounces    = 10   // ignore spikes from a handful of entities
	drainedFraction    = 0.5  // drop in |total pressure| from recent peak
	minDrainedPeak     = 1.0  // ignore draining of a near-empty field
	settledStd         = 1e-3 // pressure std dev below which the field is uniform
	settledWindowCount = 5    // consecutive uniform windows before triggering
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPressurePeak float64 // peak |total pressure| since the last drain bookmark
	disturbed          bool    // field was non-uniform since the last settle bookmark
	settledWindows     int     // consecutive windows with a uniform field
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3 // minimum for a meaningful rolling average
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Bounce spike: bounce rate > 2x rolling average
		if b := bd.checkBounceSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Pressure drained: lost more than half of recent peak
		if b := bd.checkPressureDrained(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Field settled: uniform again after a disturbance
	if b := bd.checkFieldSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Update history
	bd.addToHistory(stats)

	if total := math.Abs(stats.PressureTotal); total > bd.recentPressurePeak {
		bd.recentPressurePeak = total
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkBounceSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	// Calculate rolling average bounce rate
	var totalBounces, totalAttempts int
	for _, h := range history {
		totalBounces += h.Bounces
		totalAttempts += h.Moves + h.Bounces
	}

	if totalAttempts == 0 || stats.Bounces == 0 {
		return nil
	}

	avgRate := float64(totalBounces) / float64(totalAttempts)
	if avgRate == 0 {
		return nil
	}

	if stats.BounceRate > avgRate*bounceSpikeFactor && stats.Bounces >= minSpikeBounces {
		return &Bookmark{
			Type:        BookmarkBounceSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Bounce rate %.2f is %.1fx average (%.2f)", stats.BounceRate, stats.BounceRate/avgRate, avgRate),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPressureDrained(stats WindowStats) *Bookmark {
	if bd.recentPressurePeak < minDrainedPeak {
		return nil
	}

	current := math.Abs(stats.PressureTotal)
	drop := 1.0 - current/bd.recentPressurePeak
	if drop > drainedFraction {
		// Reset the peak after triggering
		oldPeak := bd.recentPressurePeak
		bd.recentPressurePeak = current

		return &Bookmark{
			Type:        BookmarkPressureDrained,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Total pressure fell %.0f%% from peak %.2f to %.2f", drop*100, oldPeak, current),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkFieldSettled(stats WindowStats) *Bookmark {
	if stats.PressureStd >= settledStd {
		bd.disturbed = true
		bd.settledWindows = 0
		return nil
	}
	if !bd.disturbed {
		return nil
	}

	bd.settledWindows++
	if bd.settledWindows < settledWindowCount {
		return nil
	}

	// Trigger once per disturbance
	bd.disturbed = false
	bd.settledWindows = 0

	return &Bookmark{
		Type:        BookmarkFieldSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Field uniform at mean %.4f for %d windows", stats.PressureMean, settledWindowCount),
	}
}
