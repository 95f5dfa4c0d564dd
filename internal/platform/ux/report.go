// Package ux renders results for people: the end-of-run screen and the
// archive listing.
package ux

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
	"github.com/MRamiBalles/CasaEmbrujada/internal/engine"
	"github.com/MRamiBalles/CasaEmbrujada/internal/infra/storage"
)

var (
	ColorBlood   = lipgloss.Color("#C0392B") // ghost wins, banners
	ColorEcto    = lipgloss.Color("#2ECC71") // hunters win, checked evidence
	ColorSpectre = lipgloss.Color("#9B59B6") // victory banner
	ColorFog     = lipgloss.Color("#7F8C8D") // muted text
	ColorCandle  = lipgloss.Color("#F4D03F") // afraid hunters
)

// styles are bound to the renderer of one writer, so colour is only emitted
// when that writer is a terminal.
type styles struct {
	banner  lipgloss.Style
	victory lipgloss.Style
	win     lipgloss.Style
	lose    lipgloss.Style
	check   lipgloss.Style
	muted   lipgloss.Style
	afraid  lipgloss.Style
	box     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		banner:  r.NewStyle().Bold(true).Foreground(ColorBlood),
		victory: r.NewStyle().Bold(true).Foreground(ColorSpectre),
		win:     r.NewStyle().Bold(true).Foreground(ColorEcto),
		lose:    r.NewStyle().Bold(true).Foreground(ColorBlood),
		check:   r.NewStyle().Foreground(ColorEcto),
		muted:   r.NewStyle().Foreground(ColorFog),
		afraid:  r.NewStyle().Foreground(ColorCandle),
		box: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(0, 3),
	}
}

// RenderReport writes the end-of-run screen.
func RenderReport(w io.Writer, r *engine.Report) error {
	s := newStyles(w)
	var b strings.Builder

	b.WriteString("\n" + s.box.BorderForeground(ColorBlood).Render(s.banner.Render("FINAL RESULTS!")) + "\n\n")
	for _, h := range r.Hunters {
		reason := string(h.Reason)
		if h.Reason == engine.ReasonAfraid {
			reason = s.afraid.Render(reason)
		}
		fmt.Fprintf(&b, "[✗] Hunter %s (ID %d) exited because of [%s] (bored=%d fear=%d).\n",
			h.Name, h.ID, reason, h.Boredom, h.Fear)
	}

	b.WriteString("\nShared Case File Checklist:\n")
	b.WriteString(checklist(s, r.Collected))

	b.WriteString("\n" + s.box.BorderForeground(ColorSpectre).Render(s.victory.Render("VICTORY RESULTS!")) + "\n\n")
	fmt.Fprintf(&b, "- Hunters exited after identifying the ghost: %d/%d\n", r.EvidenceExits, len(r.Hunters))
	fmt.Fprintf(&b, "- Actual Ghost Type: %s\n", r.GhostName)
	fmt.Fprintf(&b, "- %s\n", s.muted.Render(fmt.Sprintf("run %s in %s", r.RunID, r.Duration().Round(time.Microsecond))))

	verdict := s.lose.Render(r.Verdict())
	if r.HuntersWon {
		verdict = s.win.Render(r.Verdict())
	}
	b.WriteString("\nOverall Result: " + verdict + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// checklist renders one line per evidence type, ticked when collected.
func checklist(s styles, collected evidence.Set) string {
	var b strings.Builder
	for _, t := range evidence.All() {
		mark := " "
		if collected.Has(t) {
			mark = s.check.Render("✔")
		}
		fmt.Fprintf(&b, " - [%s] %s\n", mark, t)
	}
	return b.String()
}

// RenderHistory writes a table of archived runs, newest first.
func RenderHistory(w io.Writer, runs []storage.RunRecord) error {
	s := newStyles(w)
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, s.muted.Render("No archived runs."))
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-19s  %-16s  %-7s  %s\n", "RUN", "STARTED", "GHOST", "EXITS", "RESULT")
	for _, run := range runs {
		result := s.lose.Render("Ghost Wins!")
		if run.HuntersWon {
			result = s.win.Render("Hunters Win!")
		}
		fmt.Fprintf(&b, "%-36s  %-19s  %-16s  %-7d  %s\n",
			run.RunID, run.StartedAt.Format("2006-01-02 15:04:05"), run.GhostType, run.EvidenceExits, result)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderTimeline writes an actor's rebuilt path.
func RenderTimeline(w io.Writer, tl *storage.Timeline) error {
	s := newStyles(w)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.victory.Render(tl.ActorID))
	fmt.Fprintf(&b, "  path:     %s\n", strings.Join(tl.Rooms, " → "))
	if len(tl.Evidence) > 0 {
		fmt.Fprintf(&b, "  evidence: %s\n", strings.Join(tl.Evidence, ", "))
	}
	fmt.Fprintf(&b, "  fear=%d boredom=%d", tl.Fear, tl.Boredom)
	if tl.Reason != "" {
		fmt.Fprintf(&b, " exit=%s", tl.Reason)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
