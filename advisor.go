package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"
)

// aiAdvisor is the capability interface over the generative-AI service. The
// core never depends on real AI output — handlers only need to invoke it (or
// bypass it, on the crisis path), so tests use a deterministic fake.
type aiAdvisor interface {
	analyzeMood(ctx context.Context, answers []quizAnswer, profile *userProfile) (moodAnalysis, error)
	converse(ctx context.Context, history []chatTurn, message string) (string, error)
	findCrisisResources(ctx context.Context, country string) (crisisResourceSet, error)
}

/* ─── Prompt constants ───────────────────────────────────────────────── */

const chatSystemPrompt = `CORE IDENTITY:
You are StressBot, an AI companion from the StressEase app. Your purpose is to provide a supportive, non-judgmental space for users to express their feelings and work through stress.

TONE AND LANGUAGE:
Your tone must always be warm, patient, and empathetic. Use simple, clear language. Avoid clinical jargon. Validate the user's feelings first before offering gentle guidance.

CRITICAL SAFETY BOUNDARY:
You are NOT a licensed therapist or a medical professional. You are strictly forbidden from diagnosing any condition, prescribing medication, or giving medical advice. Your role is that of a supportive peer.

CONVERSATION STYLE:
Keep responses concise (2-4 sentences). Be genuinely curious about the user's experience and end with a gentle, open-ended question when appropriate.`

const moodAnalysisPromptHeader = `You are a mental health assistant for the StressEase app. Analyze the following mood quiz responses and reply with a JSON object:

{
  "mood_score": <number 0-100, where 0 is very poor mood and 100 is excellent mood>,
  "mood_category": "<one of: excellent, good, fair, poor, very_poor>",
  "primary_emotions": ["<2-3 primary emotions detected>"],
  "stress_level": <integer 1-10, where 1 is no stress and 10 is extreme stress>,
  "insights": "<2-3 sentences explaining the analysis>",
  "recommendations": ["<3-5 specific, actionable recommendations>"],
  "warning_signs": ["<concerning patterns, empty array if none>"]
}

Reply with valid JSON only, no explanation.

QUIZ RESPONSES:
`

const crisisResourcesPromptTemplate = `List real crisis support helplines for %s. Reply with a JSON object:

{
  "country": "%s",
  "helplines": [{"name": "<organization>", "phone": "<number>", "available": "<hours>"}],
  "notes": "<one short sentence of guidance>"
}

Include 3-5 well-known helplines. Reply with valid JSON only.`

/* ─── Gemini HTTP client ─────────────────────────────────────────────── */

const (
	geminiModel = "gemini-1.5-flash"

	// 1 initial attempt + 2 retries on transient failures. Every retry is
	// logged; failures are never retried silently beyond this.
	maxGenerateAttempts = 3
)

// retryDelay is the base backoff between attempts; a var so tests can shrink it.
var retryDelay = 500 * time.Millisecond

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  map[string]any  `json:"generationConfig,omitempty"`
}

// geminiClient calls the Gemini generateContent REST API with raw net/http.
// No SDK: the upstream surface is one endpoint, and a thin HTTP layer with an
// overridable base URL keeps it mockable in tests.
type geminiClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newGeminiClient(apiKey, baseURL string) *geminiClient {
	return &geminiClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// generate sends one generateContent request and returns the first candidate's
// text. Retries transient failures (network errors, 429, 5xx) with a short
// backoff, up to maxGenerateAttempts total.
func (g *geminiClient) generate(ctx context.Context, system string, contents []geminiContent, jsonMode bool) (string, error) {
	reqBody := geminiRequest{
		Contents:         contents,
		GenerationConfig: map[string]any{"temperature": 0.4},
	}
	if system != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if jsonMode {
		reqBody.GenerationConfig["responseMimeType"] = "application/json"
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, geminiModel, g.apiKey)

	var lastErr error
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("[gemini] retrying after error (attempt %d/%d): %v", attempt, maxGenerateAttempts, lastErr)
			select {
			case <-time.After(time.Duration(attempt-1) * retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, retryable, err := g.doGenerate(ctx, url, bodyBytes)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", fmt.Errorf("gemini request failed after %d attempts: %w", maxGenerateAttempts, lastErr)
}

func (g *geminiClient) doGenerate(ctx context.Context, url string, body []byte) (text string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", false, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), false, nil
}

/* ─── Capability implementations ─────────────────────────────────────── */

func (g *geminiClient) analyzeMood(ctx context.Context, answers []quizAnswer, profile *userProfile) (moodAnalysis, error) {
	var prompt strings.Builder
	prompt.WriteString(moodAnalysisPromptHeader)
	for _, qa := range answers {
		fmt.Fprintf(&prompt, "- %s: %v\n", qa.Question, qa.Answer)
	}
	if ctxText := profileContext(profile); ctxText != "" {
		prompt.WriteString("\nUSER CONTEXT:\n")
		prompt.WriteString(ctxText)
	}

	content, err := g.generate(ctx, "", []geminiContent{
		{Role: "user", Parts: []geminiPart{{Text: prompt.String()}}},
	}, true)
	if err != nil {
		return moodAnalysis{}, err
	}

	var analysis moodAnalysis
	if err := json.Unmarshal([]byte(extractJSON(content)), &analysis); err != nil {
		return moodAnalysis{}, fmt.Errorf("parse mood analysis: %w", err)
	}
	analysis.MoodScore = clampScore(analysis.MoodScore)
	if analysis.MoodCategory == "" {
		analysis.MoodCategory = categoryForScore(analysis.MoodScore)
	}
	return analysis, nil
}

func (g *geminiClient) converse(ctx context.Context, history []chatTurn, message string) (string, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == roleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: turn.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: message}}})

	reply, err := g.generate(ctx, chatSystemPrompt, contents, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (g *geminiClient) findCrisisResources(ctx context.Context, country string) (crisisResourceSet, error) {
	prompt := fmt.Sprintf(crisisResourcesPromptTemplate, country, country)
	content, err := g.generate(ctx, "", []geminiContent{
		{Role: "user", Parts: []geminiPart{{Text: prompt}}},
	}, true)
	if err != nil {
		return crisisResourceSet{}, err
	}

	var set crisisResourceSet
	if err := json.Unmarshal([]byte(extractJSON(content)), &set); err != nil {
		return crisisResourceSet{}, fmt.Errorf("parse crisis resources: %w", err)
	}
	if len(set.Helplines) == 0 {
		return crisisResourceSet{}, fmt.Errorf("no helplines returned for %s", country)
	}
	if set.Country == "" {
		set.Country = country
	}
	return set, nil
}

/* ─── Helpers ────────────────────────────────────────────────────────── */

// profileContext renders the optional user profile as prompt lines.
func profileContext(p *userProfile) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	if p.Age != nil {
		fmt.Fprintf(&sb, "- Age: %d\n", *p.Age)
	}
	if len(p.HealthConditions) > 0 {
		fmt.Fprintf(&sb, "- Health considerations: %s\n", strings.Join(p.HealthConditions, ", "))
	}
	if len(p.StressTriggers) > 0 {
		fmt.Fprintf(&sb, "- Known stress triggers: %s\n", strings.Join(p.StressTriggers, ", "))
	}
	if len(p.Goals) > 0 {
		fmt.Fprintf(&sb, "- Personal goals: %s\n", strings.Join(p.Goals, ", "))
	}
	return sb.String()
}

// extractJSON strips any text around the outermost JSON object — the model
// sometimes wraps its JSON in code fences despite the response MIME type.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

// clampScore keeps derived scores inside the fixed 0-100 range regardless of
// what the model returns.
func clampScore(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

// categoryForScore maps a 0-100 score onto the mood category scale, used when
// the model omits the category.
func categoryForScore(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	case score >= 20:
		return "poor"
	default:
		return "very_poor"
	}
}
