package main

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

/* ─── Request types ──────────────────────────────────────────────────── */

// logMoodRequest is the request body for POST /api/mood/log.
type logMoodRequest struct {
	QuizAnswers     []quizAnswer `json:"quiz_answers"`
	AdditionalNotes string       `json:"additional_notes"`
}

// validateQuizAnswers rejects empty quizzes and answers that are neither a
// number nor a non-empty string, before anything reaches the AI.
func validateQuizAnswers(answers []quizAnswer) string {
	if len(answers) == 0 {
		return "quiz_answers must be a non-empty array"
	}
	for _, qa := range answers {
		if strings.TrimSpace(qa.Question) == "" {
			return "each quiz answer needs a question"
		}
		switch v := qa.Answer.(type) {
		case float64:
			// numeric rating, fine
		case string:
			if strings.TrimSpace(v) == "" {
				return "answers must not be empty"
			}
		default:
			return "answers must be numbers or strings"
		}
	}
	return ""
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// logMood handles POST /api/mood/log: validates the quiz, gets an AI analysis,
// and persists the entry. The derived score is clamped to 0-100 no matter
// what the model returns.
func (h *Handler) logMood(c *gin.Context) {
	userID := c.GetString("user_id")

	var body logMoodRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateQuizAnswers(body.QuizAnswers); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	// Profile personalizes the analysis but is never required.
	profile, err := h.store.userProfile(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[mood] profile lookup failed for %s: %v", userID, err)
	}

	analysis, err := h.advisor.analyzeMood(c.Request.Context(), body.QuizAnswers, profile)
	if err != nil {
		log.Printf("[mood] analysis failed: %v", err)
		apiError(c, http.StatusBadGateway, "mood analysis is unavailable right now, please try again")
		return
	}

	entry := moodEntry{
		UserID:          userID,
		QuizAnswers:     body.QuizAnswers,
		DerivedScore:    round1(clampScore(analysis.MoodScore)),
		MoodCategory:    analysis.MoodCategory,
		StressLevel:     analysis.StressLevel,
		PrimaryEmotions: analysis.PrimaryEmotions,
		WarningSigns:    analysis.WarningSigns,
		AITip:           tipFromAnalysis(analysis),
	}
	if notes := strings.TrimSpace(body.AdditionalNotes); notes != "" {
		entry.Notes = &notes
	}

	saved, err := h.store.saveMoodEntry(c.Request.Context(), entry)
	if err != nil {
		log.Printf("[mood] save failed: %v", err)
		apiError(c, http.StatusInternalServerError, "failed to save mood entry")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"log_id":        saved.ID,
		"derived_score": saved.DerivedScore,
		"ai_tip":        saved.AITip,
		"analysis":      analysis,
	})
}

// tipFromAnalysis picks the entry's stored tip: the first recommendation when
// there is one, the insight text otherwise.
func tipFromAnalysis(a moodAnalysis) string {
	if len(a.Recommendations) > 0 {
		return a.Recommendations[0]
	}
	return a.Insights
}

// getMoodHistory handles GET /api/mood/history?limit=N. Entries newest-first;
// limit defaults to 30 and is clamped to 1..100.
func (h *Handler) getMoodHistory(c *gin.Context) {
	userID := c.GetString("user_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil || limit < 1 {
		limit = 30
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := h.store.moodHistory(c.Request.Context(), userID, limit)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch mood history")
		return
	}
	// Empty array (not null) in JSON
	if entries == nil {
		entries = []moodEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"mood_history": entries,
		"count":        len(entries),
	})
}

// getMoodTrends handles GET /api/mood/trends?days=N. Days defaults to 30 and
// is clamped to 7..90. An empty window is a 404-style "not enough data"
// response, never an error page.
func (h *Handler) getMoodTrends(c *gin.Context) {
	userID := c.GetString("user_id")

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "days must be an integer")
		return
	}
	if days < 7 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	now := time.Now()
	entries, err := h.store.moodEntriesSince(c.Request.Context(), userID, now.AddDate(0, 0, -days))
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch mood entries")
		return
	}

	summary, err := computeTrends(entries, days, now)
	if err == errEmptyWindow {
		apiError(c, http.StatusNotFound, "not enough mood data for the requested period")
		return
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to compute trends")
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": summary})
}

// insightsWindowDays is the lookback for the quick-tips path.
const insightsWindowDays = 14

// getMoodInsights handles GET /api/mood/insights: deterministic tips from the
// last two weeks of entries. No AI call — this works when the advisor is down.
func (h *Handler) getMoodInsights(c *gin.Context) {
	userID := c.GetString("user_id")

	since := time.Now().AddDate(0, 0, -insightsWindowDays)
	entries, err := h.store.moodEntriesSince(c.Request.Context(), userID, since)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch mood entries")
		return
	}

	if len(entries) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"tips":    []string{},
			"message": "No recent mood data available for insights",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tips":             computeInsights(entries),
		"based_on_entries": len(entries),
	})
}
