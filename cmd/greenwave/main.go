// Package main implements the greenwave CLI for analyzing traffic light
// capture files offline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/greenwave-dev/greenwave/pkg/isotime"
	"github.com/greenwave-dev/greenwave/pkg/pattern"
	"github.com/greenwave-dev/greenwave/pkg/strip"
)

var (
	date      = flag.String("date", "", "Timeline date as YYYY-MM-DD (default: today in the captures' zone)")
	hours     = flag.Int("hours", 24, "Timeline window in hours (clamped to 1-24)")
	tolerance = flag.Int64("tolerance", pattern.DefaultToleranceMS, "Validation tolerance in milliseconds")
	nowFlag   = flag.String("now", "", "Reference instant for the next-green prediction (ISO-8601, default: now)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	version   = flag.Bool("version", false, "Show version")
)

// captureRecord is one entry of the captures file, the same wire shape the
// API accepts.
type captureRecord struct {
	GreenStart string `json:"green_start"`
	GreenEnd   string `json:"green_end"`
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("greenwave CLI v1.2.0")
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <captures.json>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	starts, durations, err := loadCaptures(args[0])
	if err != nil {
		logger.Error("Failed to load captures", "path", args[0], "error", err)
		os.Exit(1)
	}
	logger.Debug("Loaded captures", "path", args[0], "count", len(starts))

	analyzer, err := pattern.New(starts, durations)
	if err != nil {
		logger.Error("Rejected capture data", "error", err)
		os.Exit(1)
	}

	now := time.Now()
	if *nowFlag != "" {
		now, err = isotime.Parse(*nowFlag)
		if err != nil {
			logger.Error("Invalid -now value", "error", err)
			os.Exit(1)
		}
	}

	analysis := analyzer.Analyze(now)
	printAnalysis(analysis)
	printValidation(analyzer.ValidatePattern(*tolerance))

	if !analysis.HasPattern {
		return
	}

	refDate := now.In(analyzer.Location())
	if *date != "" {
		refDate, err = isotime.ParseDate(*date)
		if err != nil {
			logger.Error("Invalid -date value", "error", err)
			os.Exit(1)
		}
	}

	windowHours := *hours
	if windowHours < 1 {
		windowHours = 1
	}
	if windowHours > 24 {
		windowHours = 24
	}

	intervals := analyzer.DailyTimeline(refDate, windowHours)
	y, m, d := refDate.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, analyzer.Location())

	out, err := strip.Render(intervals, dayStart, windowHours)
	if err != nil {
		logger.Error("Failed to render timeline", "error", err)
		os.Exit(1)
	}
	fmt.Println()
	fmt.Print(out)
}

// loadCaptures reads the captures file and computes each green duration,
// rejecting entries whose end does not follow their start.
func loadCaptures(path string) (starts []time.Time, durationsMS []int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read captures file: %w", err)
	}

	var records []captureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("parse captures file: %w", err)
	}

	starts = make([]time.Time, 0, len(records))
	durationsMS = make([]int64, 0, len(records))
	for i, rec := range records {
		start, err := isotime.Parse(rec.GreenStart)
		if err != nil {
			return nil, nil, fmt.Errorf("capture %d: bad green_start: %w", i, err)
		}
		end, err := isotime.Parse(rec.GreenEnd)
		if err != nil {
			return nil, nil, fmt.Errorf("capture %d: bad green_end: %w", i, err)
		}
		duration := end.Sub(start).Milliseconds()
		if duration <= 0 {
			return nil, nil, fmt.Errorf("capture %d: green_end must be after green_start", i)
		}
		starts = append(starts, start)
		durationsMS = append(durationsMS, duration)
	}
	return starts, durationsMS, nil
}

func printAnalysis(a pattern.Analysis) {
	fmt.Printf("\n🚦 Capture Analysis\n")
	fmt.Println(strings.Repeat("─", 50))

	fmt.Printf("📷 Captures:      %d\n", a.TotalCaptures)
	if a.LastCapture != nil {
		fmt.Printf("🕐 Last Capture:  %s\n", *a.LastCapture)
	}
	if a.AverageDurationMS != nil {
		fmt.Printf("🟢 Green Phase:   %s avg (min %s, max %s)\n",
			formatMS(*a.AverageDurationMS), formatMS(*a.MinDurationMS), formatMS(*a.MaxDurationMS))
	}
	if a.Regularity != "" {
		fmt.Printf("🎯 Regularity:    %s", regularityLabel(a.Regularity))
		if a.StdDevDurationMS != nil {
			fmt.Printf(" (stddev %.0fms)", *a.StdDevDurationMS)
		}
		fmt.Println()
	}

	if !a.HasPattern {
		fmt.Println(color.New(color.FgYellow).Sprint("⚠️  No repeating pattern could be inferred"))
		return
	}

	fmt.Printf("🔁 Cycle:         %s (red %s)\n",
		formatMS(*a.AverageCycleMS), formatMS(*a.RedDurationMS))
	if a.NextGreenStart != nil && a.NextGreenEnd != nil {
		fmt.Printf("⏭️  Next Green:    %s → %s\n", *a.NextGreenStart, *a.NextGreenEnd)
	}
}

func printValidation(v pattern.Validation) {
	verdict := color.New(color.FgRed).Sprint("FAIL")
	if v.IsValid {
		verdict = color.New(color.FgGreen).Sprint("PASS")
	}
	fmt.Printf("🧪 Validation:    %s (%d/%d captures on the projected grid, %.0f%%)\n",
		verdict, v.Matches, v.Total, v.MatchRate*100)
}

func regularityLabel(r pattern.Regularity) string {
	switch r {
	case pattern.Regular:
		return color.New(color.FgGreen).Sprint("regular")
	case pattern.SomewhatRegular:
		return color.New(color.FgYellow).Sprint("somewhat regular")
	case pattern.Irregular:
		return color.New(color.FgRed).Sprint("irregular")
	default:
		return string(r)
	}
}

func formatMS(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
