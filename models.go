package main

import (
	"time"
)

/* ─── Domain structs ─────────────────────────────────────────────────── */

// quizAnswer is one question/answer pair from the mood quiz. Answer is either
// a number (e.g. a 1-10 rating) or a short free-text string.
type quizAnswer struct {
	Question string `json:"question"`
	Answer   any    `json:"answer"`
}

// moodEntry maps to mood_entries. One row per submitted quiz, immutable once
// stored. quiz_answers is a jsonb column; pgx scans it through encoding/json.
type moodEntry struct {
	ID              string       `json:"id" db:"id"`
	UserID          string       `json:"user_id" db:"user_id"`
	QuizAnswers     []quizAnswer `json:"quiz_answers" db:"quiz_answers"`
	DerivedScore    float64      `json:"derived_score" db:"derived_score"`
	MoodCategory    string       `json:"mood_category" db:"mood_category"`
	StressLevel     int          `json:"stress_level" db:"stress_level"`
	PrimaryEmotions []string     `json:"primary_emotions" db:"primary_emotions"`
	WarningSigns    []string     `json:"warning_signs" db:"warning_signs"`
	AITip           string       `json:"ai_tip" db:"ai_tip"`
	Notes           *string      `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// emotionCount is one entry in the trend summary's top-emotions list.
type emotionCount struct {
	Emotion string `json:"emotion"`
	Count   int    `json:"count"`
}

// trendSummary is the response shape for GET /api/mood/trends. Computed on
// demand from the entries in the requested window; never persisted.
type trendSummary struct {
	PeriodDays     int            `json:"period_days"`
	AverageScore   float64        `json:"average_score"`
	AverageStress  float64        `json:"average_stress"`
	EntryCount     int            `json:"entry_count"`
	Direction      string         `json:"direction"`
	CategoryCounts map[string]int `json:"mood_category_distribution"`
	TopEmotions    []emotionCount `json:"top_emotions"`
}

// moodAnalysis is the structured result of an AI mood analysis.
// MoodScore is on the 0-100 scale and is clamped before use.
type moodAnalysis struct {
	MoodScore       float64  `json:"mood_score"`
	MoodCategory    string   `json:"mood_category"`
	PrimaryEmotions []string `json:"primary_emotions"`
	StressLevel     int      `json:"stress_level"`
	Insights        string   `json:"insights"`
	Recommendations []string `json:"recommendations"`
	WarningSigns    []string `json:"warning_signs"`
}

// userProfile maps to the users table. The profile fields personalize AI
// prompts; all of them are optional.
type userProfile struct {
	ID               string     `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	DisplayName      *string    `json:"display_name" db:"display_name"`
	Age              *int       `json:"age" db:"age"`
	HealthConditions []string   `json:"health_conditions" db:"health_conditions"`
	StressTriggers   []string   `json:"stress_triggers" db:"stress_triggers"`
	Goals            []string   `json:"goals" db:"goals"`
	CreatedAt        *time.Time `json:"created_at" db:"created_at"`
}

// helpline is a single crisis hotline entry.
type helpline struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Available string `json:"available"`
}

// crisisResourceSet is a per-country list of crisis helplines, cached in
// crisis_resources after the first AI lookup.
type crisisResourceSet struct {
	Country   string     `json:"country"`
	Helplines []helpline `json:"helplines"`
	Notes     string     `json:"notes,omitempty"`
}
