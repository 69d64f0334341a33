package main

import (
	"regexp"
	"strings"
)

/* ─── Crisis detection ───────────────────────────────────────────────── */

// crisisPhrasesVersion identifies the phrase list in logs so flagged sessions
// can be traced back to the list that matched them.
const crisisPhrasesVersion = "v1"

// crisisPhrases is the fixed high-risk phrase list. Matching is plain
// substring containment on normalized text — deterministic on purpose, so the
// safety path never depends on model output. Phrases use single spaces; the
// normalizer collapses whitespace runs before matching.
var crisisPhrases = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"killing myself",
	"self-harm",
	"self harm",
	"hurt myself",
	"hurting myself",
	"end my life",
	"end it all",
	"ending it all",
	"want to die",
	"wish i was dead",
	"better off dead",
	"no reason to live",
	"take my own life",
}

// distressPhrases are lower-risk signals. They never short-circuit the chat
// flow; they only set severity to low so the caller can log the signal.
var distressPhrases = []string{
	"hopeless",
	"worthless",
	"can't go on",
	"no way out",
}

type crisisSeverity string

const (
	severityNone crisisSeverity = "none"
	severityLow  crisisSeverity = "low"
	severityHigh crisisSeverity = "high"
)

// crisisSignal is the per-message detection result. Ephemeral — it is never
// persisted, only attached to the session as a flag when severity is high.
type crisisSignal struct {
	MatchedPhrases []string
	Severity       crisisSeverity
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeText lower-cases and collapses whitespace so that casing and extra
// spaces cannot hide a listed phrase.
func normalizeText(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// detectCrisis scans a message for crisis indicators. It must run before any
// AI call on the same text: a high result replaces the AI reply with the fixed
// crisis response and flags the session.
func detectCrisis(text string) crisisSignal {
	normalized := normalizeText(text)

	var matched []string
	for _, phrase := range crisisPhrases {
		if strings.Contains(normalized, phrase) {
			matched = append(matched, phrase)
		}
	}
	if len(matched) > 0 {
		return crisisSignal{MatchedPhrases: matched, Severity: severityHigh}
	}

	for _, phrase := range distressPhrases {
		if strings.Contains(normalized, phrase) {
			matched = append(matched, phrase)
		}
	}
	if len(matched) > 0 {
		return crisisSignal{MatchedPhrases: matched, Severity: severityLow}
	}

	return crisisSignal{Severity: severityNone}
}

/* ─── Fixed safety responses ─────────────────────────────────────────── */

// crisisResponseMessage is returned instead of an AI reply whenever a message
// matches the crisis phrase list.
const crisisResponseMessage = "It sounds like you are going through a lot right now, and it's brave of you to share that. " +
	"For immediate support, please reach out to a crisis hotline or a mental health professional. " +
	"You can find helplines in the app's crisis support section. If you are in the US, you can call or text 988 at any time."

// fallbackCrisisResources is the static helpline list served when the
// per-country lookup is unavailable.
var fallbackCrisisResources = crisisResourceSet{
	Country: "International",
	Helplines: []helpline{
		{Name: "988 Suicide & Crisis Lifeline (US)", Phone: "988", Available: "24/7"},
		{Name: "Samaritans (UK & Ireland)", Phone: "116 123", Available: "24/7"},
		{Name: "Kiran Mental Health Helpline (India)", Phone: "1800-599-0019", Available: "24/7"},
		{Name: "International Association for Suicide Prevention", Phone: "https://www.iasp.info/resources/Crisis_Centres/", Available: "directory"},
	},
	Notes: "If you are in immediate danger, contact your local emergency number.",
}

/* ─── AI reply validation ────────────────────────────────────────────── */

// diagnosisPhrases and medicationPhrases catch AI replies that drift into
// clinical territory the assistant is forbidden from entering.
var diagnosisPhrases = []string{
	"you have ", "you are suffering from", "you might have", "you probably have",
	"sounds like you have", "diagnosis", "diagnose", "disorder",
	"clinical depression", "clinical anxiety", "psychiatric condition",
}

var medicationPhrases = []string{
	"you should take", "you need to take", "prescribe", "medication", "dosage",
	"treatment plan", "medical treatment", "therapy regimen",
}

const diagnosisRedirect = "I'm here to listen and support you, but I can't provide medical diagnoses or clinical advice. " +
	"Consider discussing your feelings with a healthcare professional who can give personalized guidance. " +
	"How else can I support you today?"

const medicationRedirect = "I'm here to provide emotional support, but I can't recommend specific treatments or medications. " +
	"A healthcare professional would be the best person to discuss treatment options with you. " +
	"Is there something else on your mind you'd like to talk about?"

const emptyReplyFallback = "I'm sorry, I couldn't come up with a helpful response. How else can I support you today?"

// validateReply is the deterministic safety net over AI output: replies that
// mention crisis phrases, diagnoses, or treatment advice are replaced with a
// fixed safe alternative. Same phrase-matching rules as detectCrisis.
func validateReply(reply string) string {
	normalized := normalizeText(reply)
	if normalized == "" {
		return emptyReplyFallback
	}
	for _, phrase := range crisisPhrases {
		if strings.Contains(normalized, phrase) {
			return crisisResponseMessage
		}
	}
	for _, phrase := range diagnosisPhrases {
		if strings.Contains(normalized, phrase) {
			return diagnosisRedirect
		}
	}
	for _, phrase := range medicationPhrases {
		if strings.Contains(normalized, phrase) {
			return medicationRedirect
		}
	}
	return reply
}
