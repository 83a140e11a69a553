package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	verdictFake = "🚨 *FAKE JOB*"
	verdictReal = "✅ *REAL JOB*"

	// FailureNoticeText replaces the report when classification fails and
	// failure notices are enabled.
	FailureNoticeText = "⚠️ JobShield is temporarily unable to check this message. Please try again later."
)

// Verdict returns the verdict line for a classifier label.
func Verdict(label int) string {
	if label == 1 {
		return verdictFake
	}
	return verdictReal
}

// RiskPercent converts a probability to a percentage rounded to two
// decimal places in a single step, half to even on exact ties.
func RiskPercent(p float64) float64 {
	pct, _ := strconv.ParseFloat(strconv.FormatFloat(p*100, 'f', 2, 64), 64)
	return pct
}

// FormatRisk prints a percentage in its shortest form with at least one
// decimal digit: 91.0, 83.7, 4.25.
func FormatRisk(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatReport renders the classification reply.
func FormatReport(c Classification) string {
	return fmt.Sprintf("🛡️ *JobShield AI Report*\n\n📌 Verdict: %s\n⚠️ Risk Score: %s%%",
		Verdict(c.Label), FormatRisk(RiskPercent(c.Probability)))
}
