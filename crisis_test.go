package main

import (
	"strings"
	"testing"
)

func TestDetectCrisisMatchesEveryListedPhrase(t *testing.T) {
	for _, phrase := range crisisPhrases {
		t.Run(phrase, func(t *testing.T) {
			// Casing and extra whitespace must not hide a phrase.
			spaced := strings.ReplaceAll(phrase, " ", "   ")
			message := "I feel like\t" + strings.ToUpper(spaced) + "  lately"

			signal := detectCrisis(message)
			if signal.Severity != severityHigh {
				t.Fatalf("severity = %q, want high", signal.Severity)
			}
			if len(signal.MatchedPhrases) == 0 {
				t.Fatal("no matched phrases reported")
			}
		})
	}
}

func TestDetectCrisisSpecificMessages(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    crisisSeverity
	}{
		{"end it all", "I want to end it all", severityHigh},
		{"mixed case self harm", "thinking about Self-Harm again", severityHigh},
		{"distress only", "everything feels hopeless", severityLow},
		{"cant go on", "I can't go on like this", severityLow},
		{"neutral stress", "work has been really stressful this week", severityNone},
		{"near miss", "my deadline is killing me", severityNone},
		{"empty", "", severityNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			signal := detectCrisis(tc.message)
			if signal.Severity != tc.want {
				t.Errorf("detectCrisis(%q) severity = %q, want %q", tc.message, signal.Severity, tc.want)
			}
		})
	}
}

func TestDetectCrisisReportsAllMatches(t *testing.T) {
	signal := detectCrisis("I feel suicidal and want to end my life")
	if signal.Severity != severityHigh {
		t.Fatalf("severity = %q, want high", signal.Severity)
	}
	if len(signal.MatchedPhrases) < 2 {
		t.Errorf("expected multiple matches, got %v", signal.MatchedPhrases)
	}
}

func TestNormalizeText(t *testing.T) {
	got := normalizeText("  Hello\t\tWORLD \n again ")
	if got != "hello world again" {
		t.Errorf("normalizeText = %q", got)
	}
}

func TestValidateReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"empty", "   ", emptyReplyFallback},
		{"crisis echo", "Have you considered suicide prevention hotlines?", crisisResponseMessage},
		{"diagnosis", "It sounds like you have an anxiety disorder.", diagnosisRedirect},
		{"diagnosis hedge", "You might have clinical depression.", diagnosisRedirect},
		{"medication", "You should take medication for that.", medicationRedirect},
		{"treatment", "A structured treatment plan would fix this.", medicationRedirect},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := validateReply(tc.reply); got != tc.want {
				t.Errorf("validateReply(%q) = %q, want %q", tc.reply, got, tc.want)
			}
		})
	}
}

func TestValidateReplyPassesSafeText(t *testing.T) {
	reply := "That sounds really tough. What usually helps you unwind after a day like that?"
	if got := validateReply(reply); got != reply {
		t.Errorf("safe reply was rewritten to %q", got)
	}
}
