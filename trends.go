package main

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	trendImproving = "improving"
	trendDeclining = "declining"
	trendStable    = "stable"
)

// directionThreshold is the minimum gap between the half-window means (on the
// 0-100 score scale) before a trend counts as improving or declining.
const directionThreshold = 5.0

// errEmptyWindow means no entries fell inside the requested window. Callers
// render a "not enough data" response, never a crash.
var errEmptyWindow = errors.New("no mood entries in the requested window")

// computeTrends summarizes the entries whose timestamps fall within
// [now - windowDays, now]. Direction compares the mean of the first half of
// the in-window entries against the second half, split at the chronological
// midpoint; fewer than 2 entries is always stable.
func computeTrends(entries []moodEntry, windowDays int, now time.Time) (trendSummary, error) {
	if windowDays <= 0 {
		return trendSummary{}, fmt.Errorf("windowDays must be positive, got %d", windowDays)
	}

	start := now.AddDate(0, 0, -windowDays)
	var window []moodEntry
	for _, e := range entries {
		if e.CreatedAt.Before(start) || e.CreatedAt.After(now) {
			continue
		}
		window = append(window, e)
	}
	if len(window) == 0 {
		return trendSummary{}, errEmptyWindow
	}

	// The store returns entries ordered, but the contract doesn't require it.
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].CreatedAt.Before(window[j].CreatedAt)
	})

	var scoreSum, stressSum float64
	categories := make(map[string]int)
	emotions := make(map[string]int)
	for _, e := range window {
		scoreSum += e.DerivedScore
		stressSum += float64(e.StressLevel)
		if e.MoodCategory != "" {
			categories[e.MoodCategory]++
		}
		for _, em := range e.PrimaryEmotions {
			emotions[em]++
		}
	}

	direction := trendStable
	if len(window) >= 2 {
		mid := len(window) / 2
		firstMean := meanScore(window[:mid])
		secondMean := meanScore(window[mid:])
		switch {
		case secondMean > firstMean+directionThreshold:
			direction = trendImproving
		case secondMean < firstMean-directionThreshold:
			direction = trendDeclining
		}
	}

	return trendSummary{
		PeriodDays:     windowDays,
		AverageScore:   round1(scoreSum / float64(len(window))),
		AverageStress:  round1(stressSum / float64(len(window))),
		EntryCount:     len(window),
		Direction:      direction,
		CategoryCounts: categories,
		TopEmotions:    topEmotions(emotions, 5),
	}, nil
}

func meanScore(entries []moodEntry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.DerivedScore
	}
	return sum / float64(len(entries))
}

// round1 rounds to one decimal place, the precision used for all reported scores.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// topEmotions returns the n most frequent emotions, ties broken
// alphabetically so the output is deterministic.
func topEmotions(counts map[string]int, n int) []emotionCount {
	ranked := make([]emotionCount, 0, len(counts))
	for emotion, count := range counts {
		ranked = append(ranked, emotionCount{Emotion: emotion, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Emotion < ranked[j].Emotion
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

/* ─── Quick tips ─────────────────────────────────────────────────────── */

// computeInsights maps recent entries onto a fixed tip catalog. Pure and
// deterministic — this is the quick-tips path, which must keep working when
// the AI advisor is down.
func computeInsights(entries []moodEntry) []string {
	if len(entries) == 0 {
		return nil
	}

	var scoreSum, stressSum float64
	warnings := false
	for _, e := range entries {
		scoreSum += e.DerivedScore
		stressSum += float64(e.StressLevel)
		if len(e.WarningSigns) > 0 {
			warnings = true
		}
	}
	avgScore := scoreSum / float64(len(entries))
	avgStress := stressSum / float64(len(entries))

	var tips []string
	switch {
	case avgScore >= 70:
		tips = append(tips, "Your mood has been consistently positive recently. Keep up whatever you're doing!")
	case avgScore >= 50:
		tips = append(tips, "Your mood has been fairly stable. Consider making more time for activities that bring you joy.")
	default:
		tips = append(tips, "Your mood has been lower than usual. Reaching out to someone you trust can help.")
		tips = append(tips, "Consider speaking with a mental health professional.")
	}

	switch {
	case avgStress >= 7:
		tips = append(tips,
			"Your stress levels have been high. Try a short deep-breathing exercise when tension builds.",
			"Progressive muscle relaxation before bed can make it easier to unwind.")
	case avgStress >= 4:
		tips = append(tips,
			"Your stress levels are moderate. A regular exercise routine helps keep them in check.",
			"A few minutes of mindfulness or meditation each day can help maintain balance.")
	}

	if warnings {
		tips = append(tips, "Some concerning patterns were noted in your recent check-ins. Consider reaching out for professional support.")
	}

	if len(tips) < 3 {
		tips = append(tips,
			"Continue checking in with your mood regularly.",
			"Maintaining consistent sleep habits supports a steadier mood.")
	}
	if len(tips) > 5 {
		tips = tips[:5]
	}
	return tips
}
