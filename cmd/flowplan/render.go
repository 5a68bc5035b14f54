package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/myrjola/yogaflow/internal/errors"
	"github.com/myrjola/yogaflow/internal/flow"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// renderer writes plan to w. candidates may be empty.
type renderer func(w io.Writer, plan flow.Plan, candidates []flow.Entry) error

func rendererFor(format string) (renderer, error) {
	switch strings.ToLower(format) {
	case "json":
		return renderJSON, nil
	case "markdown", "md":
		return renderMarkdown, nil
	case "html":
		return renderHTML, nil
	default:
		return nil, errors.Wrap(errUnknownFormat, format)
	}
}

func renderJSON(w io.Writer, plan flow.Plan, _ []flow.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return nil
}

func renderMarkdown(w io.Writer, plan flow.Plan, candidates []flow.Entry) error {
	if _, err := w.Write(markdown(plan, candidates)); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

func renderHTML(w io.Writer, plan flow.Plan, candidates []flow.Entry) error {
	if err := htmlRenderer.Convert(markdown(plan, candidates), w); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	return nil
}

func markdown(plan flow.Plan, candidates []flow.Entry) []byte {
	var (
		b        bytes.Buffer
		state    = plan.BodyState
		guidance = flow.GuidanceFor(state.Phase)
	)

	fmt.Fprintf(&b, "# Yoga flow for the %s phase (day %d)\n\n", state.Phase, state.DayInCycle)

	b.WriteString("| Body state | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Intensity | %s |\n", state.Intensity)
	fmt.Fprintf(&b, "| Energy | %d/5 |\n", state.Energy)
	fmt.Fprintf(&b, "| Pain | %d/5 |\n", state.Pain)
	fmt.Fprintf(&b, "| Duration | %s |\n", flow.FormatDuration(state.DurationMinutes))
	fmt.Fprintf(&b, "| Allowed | %s |\n", state.Allowed)
	if !state.Focus.IsEmpty() {
		fmt.Fprintf(&b, "| Focus | %s |\n", state.Focus)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "> Phase guidance: %s intensity, %s energy, focus on %s.\n\n",
		humanize(guidance.RecommendedIntensity), guidance.EnergyTrend, humanize(guidance.Focus))

	if plan.Structure.Rationale != "" {
		fmt.Fprintf(&b, "%s.\n\n", plan.Structure.Rationale)
	}
	if plan.Structure.Shortfall > 0 {
		fmt.Fprintf(&b, "The session is %s shorter than the usual breathing and cool-down time.\n\n",
			flow.FormatDuration(plan.Structure.Shortfall))
	}

	for i, sec := range plan.Structure.Sections {
		fmt.Fprintf(&b, "## %s (%s)\n\n", sectionTitle(sec.Name), flow.FormatDuration(sec.Minutes))
		if sec.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", sec.Description)
		}
		if i < len(plan.Sequence.Sections) && plan.Sequence.Sections[i].Section == sec.Name {
			writePicks(&b, plan.Sequence.Sections[i].Picks)
		}
	}

	if len(candidates) > 0 {
		b.WriteString("## Candidate poses\n\n")
		for _, c := range candidates {
			fmt.Fprintf(&b, "- %s (%s): %s\n", c.Name, c.Difficulty, c.Categories)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Plan `%s`\n", plan.ID)
	return b.Bytes()
}

func writePicks(b *bytes.Buffer, picks []flow.Pick) {
	if len(picks) == 0 {
		return
	}
	for _, p := range picks {
		switch {
		case p.Reps > 0:
			fmt.Fprintf(b, "- **%s**, %d reps: %s\n", p.Pose, p.Reps, p.Notes)
		case p.Duration != "":
			fmt.Fprintf(b, "- **%s**, %s: %s\n", p.Pose, p.Duration, p.Notes)
		default:
			fmt.Fprintf(b, "- **%s**: %s\n", p.Pose, p.Notes)
		}
	}
	b.WriteString("\n")
}

// sectionTitle turns cool_down into "Cool down".
func sectionTitle(name flow.SectionName) string {
	return capitalize(humanize(string(name)))
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
