// Package report renders property test results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/shipq/propcheck/config"
	"github.com/shipq/propcheck/proptest"
)

// styles holds the lipgloss styles used by a rendering.
type styles struct {
	pass    lipgloss.Style
	fail    lipgloss.Style
	label   lipgloss.Style
	minimal lipgloss.Style
	dim     lipgloss.Style
}

var (
	plainStyles = styles{
		pass:    lipgloss.NewStyle(),
		fail:    lipgloss.NewStyle(),
		label:   lipgloss.NewStyle(),
		minimal: lipgloss.NewStyle(),
		dim:     lipgloss.NewStyle(),
	}

	terminalStyles = styles{
		pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		minimal: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF7DB")).Background(lipgloss.Color("63")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

// Text renders res as plain text.
func Text(res *proptest.Result) string {
	return render(res, plainStyles)
}

// Styled renders res with terminal colors. Colors degrade to plain text
// when the output is not a terminal.
func Styled(res *proptest.Result) string {
	return render(res, terminalStyles)
}

// JSON renders res as indented JSON.
func JSON(res *proptest.Result) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result of %q: %w", res.TestName, err)
	}
	return data, nil
}

// ReproduceHint returns the environment assignment that replays a run.
func ReproduceHint(seed int64) string {
	return fmt.Sprintf("%s=%d", config.EnvSeed, seed)
}

// FormatInputs renders inputs as compact JSON, falling back to Go syntax
// for values JSON cannot encode.
func FormatInputs(in proptest.Inputs) string {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Sprintf("%#v", []any(in))
	}
	return string(data)
}

func render(res *proptest.Result, st styles) string {
	var b strings.Builder

	status := st.pass.Render("PASS")
	if !res.Success {
		status = st.fail.Render("FAIL")
	}
	fmt.Fprintf(&b, "%s %s (seed %d, %d tests, %s)\n",
		status, res.TestName, res.Seed, res.TotalTests, res.ExecutionTime.Round(time.Microsecond))

	for i, f := range res.Failures {
		renderFailure(&b, st, res, i, f)
	}

	if len(res.InvariantViolations) > 0 {
		fmt.Fprintf(&b, "  %s\n", st.label.Render("invariant violations:"))
		for _, v := range res.InvariantViolations {
			flags := string(v.Category)
			if v.Critical {
				flags += ", critical"
			}
			fmt.Fprintf(&b, "    %s: %s [%s]: %s\n", caseLabel(v.TestCase), v.Invariant, flags, v.Message)
		}
	}

	s := res.Statistics
	fmt.Fprintf(&b, "  %s attempted %d, passed %d, failed %d, skipped %d, examples %d, cache hits %d (%.1f%%)\n",
		st.label.Render("stats:"), s.Attempted, s.Passed, s.Failed, s.Skipped, s.ExamplesRun,
		s.CacheHits, s.CacheHitRate*100)

	g := s.Generation
	fmt.Fprintf(&b, "  %s %d generated, %d rejected (%.1f%%), size avg %.1f median %.1f p90 %.1f\n",
		st.label.Render("generation:"), g.TotalGenerated, g.Rejected, g.RejectionRate*100,
		g.AverageSize, g.MedianSize, g.P90Size)

	if !res.Success {
		fmt.Fprintf(&b, "  %s %s\n", st.label.Render("reproduce:"), st.dim.Render(ReproduceHint(res.Seed)))
	}
	return b.String()
}

func renderFailure(b *strings.Builder, st styles, res *proptest.Result, i int, f *proptest.Failure) {
	msg := "unknown failure"
	if f.Error != nil {
		msg = f.Error.Error()
	}
	fmt.Fprintf(b, "  %s %s: %s\n", st.fail.Render(fmt.Sprintf("failure %d:", i+1)), caseLabel(f.TestCase), msg)
	fmt.Fprintf(b, "    inputs:  %s\n", FormatInputs(f.Inputs))

	if f.MinimalCounterexample == nil {
		return
	}
	line := "    minimal: " + st.minimal.Render(FormatInputs(f.MinimalCounterexample))
	for _, sr := range res.ShrinkingResults {
		if sr.TestCase == f.TestCase {
			line += st.dim.Render(fmt.Sprintf(" (%d steps, %d attempts)", sr.Steps, sr.Attempts))
			break
		}
	}
	b.WriteString(line + "\n")
}

func caseLabel(testCase int) string {
	if testCase == proptest.ExampleCase {
		return "example"
	}
	return fmt.Sprintf("case %d", testCase)
}
