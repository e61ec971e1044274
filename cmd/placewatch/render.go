// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/models"
)

// renderText prints the batch report in a human-readable layout. Wall-clock
// times are shown when the event epoch resolves; otherwise only second
// offsets appear.
func renderText(w io.Writer, cfg *config.Config, report *models.BatchReport) {
	fmt.Fprintf(w, "placewatch run %s\n", report.RunID)
	renderWindow(w, cfg, report.Window)

	if report.Summary != nil {
		renderSummary(w, report.Summary)
	}
	if report.Activity != nil {
		renderActivity(w, report.Activity)
	}
	if report.Classifiers != nil {
		renderClassifiers(w, report.Classifiers)
	}
	if report.Bursts != nil {
		renderBursts(w, report.Bursts)
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n== errors ==\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.Analysis, e.Message)
		}
	}
}

func renderWindow(w io.Writer, cfg *config.Config, win models.Window) {
	if win.IsZero() {
		fmt.Fprintf(w, "window: full dataset\n")
		return
	}
	if epoch, err := cfg.Canvas.EventEpoch(); err == nil {
		fmt.Fprintf(w, "window: [%d, %d) seconds (%s to %s UTC)\n",
			win.StartSec, win.EndSec,
			epoch.Add(time.Duration(win.StartSec)*time.Second).Format(wallTimeLayout),
			epoch.Add(time.Duration(win.EndSec)*time.Second).Format(wallTimeLayout))
		return
	}
	fmt.Fprintf(w, "window: [%d, %d) seconds\n", win.StartSec, win.EndSec)
}

func renderSummary(w io.Writer, s *models.DatasetSummary) {
	fmt.Fprintf(w, "\n== dataset summary ==\n")
	fmt.Fprintf(w, "  placements:          %d\n", s.Rows)
	fmt.Fprintf(w, "  unique users:        %d\n", s.UniqueUsers)
	fmt.Fprintf(w, "  mean per-user std:   %.2fs\n", s.MeanUserStd)
	fmt.Fprintf(w, "  computed in:         %dms\n", s.ExecutionMs)
}

func renderActivity(w io.Writer, a *models.ActivityReport) {
	fmt.Fprintf(w, "\n== activity ==\n")
	if a.Empty {
		fmt.Fprintf(w, "  no placements in window\n")
		return
	}

	fmt.Fprintf(w, "  top colors by users: ")
	for i, c := range a.TopColors {
		if i > 0 {
			fmt.Fprintf(w, ", ")
		}
		fmt.Fprintf(w, "%s (%d)", c.Color, c.UserCount)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  mean session:        %.1fs over %d sessions\n",
		a.MeanSessionSeconds, a.SessionCount)
	fmt.Fprintf(w, "  pixels per user:     ")
	for i, q := range a.PixelCountQuantiles {
		if i > 0 {
			fmt.Fprintf(w, ", ")
		}
		fmt.Fprintf(w, "p%g=%.0f", q.Quantile*100, q.Value)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  first-time users:    %d\n", a.FirstTimeUsers)
	fmt.Fprintf(w, "  computed in:         %dms\n", a.ExecutionMs)
}

func renderClassifiers(w io.Writer, c *models.ClassifierReport) {
	fmt.Fprintf(w, "\n== behavioral classifiers ==\n")
	fmt.Fprintf(w, "  eligible users (> %d placements): %d\n", c.MinActivity, c.EligibleUsers)
	for _, r := range c.Results {
		fmt.Fprintf(w, "  %-20s %d flagged", r.Rule, r.Count)
		if n := len(r.UserIDs); n > 0 && n <= 10 {
			fmt.Fprintf(w, "  %v", r.UserIDs)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  computed in:         %dms\n", c.ExecutionMs)
}

func renderBursts(w io.Writer, b *models.BurstReport) {
	fmt.Fprintf(w, "\n== coordinated bursts ==\n")
	fmt.Fprintf(w, "  hot zones:           %d (cell threshold %.1f)\n", b.ZoneCount, b.ZoneThreshold)
	fmt.Fprintf(w, "  bursts detected:     %d\n", b.BurstCount)
	fmt.Fprintf(w, "  participants:        %d\n", b.UniqueUsers)

	if len(b.TopBursts) > 0 {
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  event\tcenter\tstart\tduration\tactive\tpixels\tusers")
		for _, burst := range b.TopBursts {
			fmt.Fprintf(tw, "  %s\t(%d,%d)\t%d\t%ds\t%d\t%d\t%d\n",
				burst.EventID(),
				burst.Center.X, burst.Center.Y,
				burst.StartSec,
				burst.DurationSeconds(),
				burst.ActiveSeconds,
				burst.TotalPixels,
				burst.UniqueUsers)
		}
		tw.Flush()
	}
	fmt.Fprintf(w, "  computed in:         %dms\n", b.ExecutionMs)
}
