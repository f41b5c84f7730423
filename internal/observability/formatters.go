// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/skill-matcher/internal/agent"
	"github.com/jonathan/skill-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMatches outputs the ranked candidates of a match run.
func (p *Printer) PrintMatches(out *types.MatchOutput) {
	if out == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Skills:     %s\n", strings.Join(out.SearchedSkills, ", ")))
	sb.WriteString(fmt.Sprintf("Algorithm:  %s\n", out.Algorithm))
	sb.WriteString(fmt.Sprintf("Scanned:    %d\n", out.CandidatesScanned))

	if len(out.Matches) == 0 {
		sb.WriteString("\nNo matching candidates.")
		p.printBox("MATCHES", sb.String())
		return
	}
	sb.WriteString("\n")

	count := min(len(out.Matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := out.Matches[i]
		sb.WriteString(fmt.Sprintf("#%d  %s  (%.4f)\n", i+1, m.Name, m.CosineSimilarity))
		sb.WriteString(fmt.Sprintf("    ID: %s\n", m.ID))
		if len(m.MatchedSkills) > 0 {
			sb.WriteString(fmt.Sprintf("    Matched %d/%d: %s\n", m.MatchScore, m.TotalSkills,
				truncate(strings.Join(m.MatchedSkills, ", "), 30)))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(out.Matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(out.Matches)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("MATCHES (%d)", out.TotalFound), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDraft outputs an introduction draft. The body is wrapped, not truncated.
func (p *Printer) PrintDraft(draft *types.IntroDraft) {
	if draft == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From:     %s\n", draft.SenderName))
	sb.WriteString(fmt.Sprintf("To:       %s\n", draft.RecipientName))
	if draft.ProjectTitle != "" {
		sb.WriteString(fmt.Sprintf("Project:  %s\n", draft.ProjectTitle))
	}
	sb.WriteString("\n")
	for _, line := range wrap(draft.Subject, boxWidth-4) {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	for _, para := range strings.Split(draft.Body, "\n") {
		for _, line := range wrap(para, boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}

	p.printBox("INTRODUCTION DRAFT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintToolCalls outputs the tool call log of a turn.
func (p *Printer) PrintToolCalls(records []types.ToolCallRecord) {
	if len(records) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range records {
		status := "✓"
		if r.Error != "" {
			status = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s at %s\n", status, i+1, r.Tool, r.Timestamp.Format("15:04:05")))
		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", r.Error))
		}
	}

	p.printBox("TOOL CALLS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResponse outputs a full agent turn: the message, then any matches,
// draft and tool calls it carries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResponse(resp *agent.Response) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("State:  %s\n", resp.State))
	if len(resp.ExtractedSkills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills: %s\n", strings.Join(resp.ExtractedSkills, ", ")))
	}
	sb.WriteString("\n")
	for _, para := range strings.Split(resp.Message, "\n") {
		for _, line := range wrap(para, boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}
	p.printBox("AGENT", strings.TrimSuffix(sb.String(), "\n"))

	if len(resp.Matches) > 0 {
		p.PrintMatches(&types.MatchOutput{
			Matches:        resp.Matches,
			SearchedSkills: resp.ExtractedSkills,
			TotalFound:     len(resp.Matches),
			Algorithm:      resp.Algorithm,
		})
	}
	p.PrintDraft(resp.Draft)
	p.PrintToolCalls(resp.ToolCalls)

	if resp.ApprovalTicket != "" {
		fmt.Fprintf(p.out, "Approval ticket: %s\n", resp.ApprovalTicket)
	}
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// wrap breaks text into lines of at most width runes on word boundaries.
// Words longer than width are truncated.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line strings.Builder
	lineLen := 0
	for _, w := range words {
		w = truncate(w, width)
		n := len([]rune(w))
		if lineLen > 0 && lineLen+1+n > width {
			lines = append(lines, line.String())
			line.Reset()
			lineLen = 0
		}
		if lineLen > 0 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(w)
		lineLen += n
	}
	return append(lines, line.String())
}
