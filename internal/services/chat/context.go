package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iyunix/go-medreport/internal/domain"
)

// truncateText cuts input to maxLen runes without splitting a character.
func truncateText(input string, maxLen int) string {
	if input == "" || maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= maxLen {
		return input
	}
	var b strings.Builder
	count := 0
	for _, r := range input {
		if count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// sanitizeForPrompt strips NULs, normalizes line endings and collapses
// long runs of blank lines.
func sanitizeForPrompt(input string) string {
	s := strings.ReplaceAll(input, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}

// renderHistory writes the most recent turns as "User:"/"Doctor:" lines.
func renderHistory(history []domain.ChatTurn, maxTurns, maxRunes int) string {
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	var b strings.Builder
	for _, turn := range history {
		content := sanitizeForPrompt(turn.Content)
		if content == "" {
			continue
		}
		label := "Doctor"
		if strings.EqualFold(turn.Role, domain.RoleUser) {
			label = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, truncateText(content, maxRunes))
	}
	if b.Len() == 0 {
		return "(no previous messages)"
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderReports formats each analysis as a labelled block, or returns
// noReports when there is nothing to show.
func renderReports(analyses []domain.MedicalReportAnalysis, noReports string) string {
	if len(analyses) == 0 {
		return noReports
	}
	var b strings.Builder
	for i, a := range analyses {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Report %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", a.Title)
		if a.ReportDate != "" {
			fmt.Fprintf(&b, "Date: %s\n", a.ReportDate)
		}
		fmt.Fprintf(&b, "Summary: %s\n", a.Summary)
		fmt.Fprintf(&b, "Analysis: %s\n", a.Analysis)
		fmt.Fprintf(&b, "Conclusion: %s\n", a.Conclusion)
	}
	return strings.TrimRight(b.String(), "\n")
}

// mergeAnalyses puts pinned analyses first and drops retrieved duplicates
// of them.
func mergeAnalyses(pinned, retrieved []domain.MedicalReportAnalysis) []domain.MedicalReportAnalysis {
	if len(pinned) == 0 {
		return retrieved
	}
	out := make([]domain.MedicalReportAnalysis, 0, len(pinned)+len(retrieved))
	seen := make(map[string]bool, len(pinned))
	for _, a := range pinned {
		if a.ReportID != "" {
			seen[a.ReportID] = true
		}
		out = append(out, a)
	}
	for _, a := range retrieved {
		if a.ReportID != "" && seen[a.ReportID] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// truncateBytes cuts s to at most n bytes on a rune boundary.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
