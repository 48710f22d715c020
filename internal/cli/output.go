package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	boundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	unboundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// RecordInfo is a printable snapshot of one loaded record.
type RecordInfo struct {
	Ref            uint32   `json:"ref"`
	Record         string   `json:"record"`
	Tag            string   `json:"tag"`
	LibVersion     string   `json:"lib_version"`
	Semver         string   `json:"semver,omitempty"`
	BuildID        string   `json:"build_id,omitempty"`
	LibraryBuildID string   `json:"library_build_id,omitempty"`
	Exports        []string `json:"exports,omitempty"`
	BindingVersion uint16   `json:"binding_version"`
	Bound          bool     `json:"bound"`
}

// Printer writes RecordInfo in the configured format.
type Printer struct {
	Writer io.Writer
	Format string
	styled bool
}

// NewPrinter creates a printer. Text output is styled only when w is a
// terminal.
func NewPrinter(w io.Writer, format string) *Printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{Writer: w, Format: format, styled: styled}
}

// Print writes one titled record snapshot.
func (p *Printer) Print(title string, info *RecordInfo) error {
	if p.Format == "json" {
		enc := json.NewEncoder(p.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Title string      `json:"title"`
			Info  *RecordInfo `json:"record"`
		}{title, info})
	}

	var b strings.Builder
	b.WriteString(p.style(titleStyle, title))
	b.WriteByte('\n')

	p.row(&b, "ref", fmt.Sprint(info.Ref))
	p.row(&b, "record", info.Record)
	p.row(&b, "tag", info.Tag)
	p.row(&b, "lib_version", fmt.Sprintf("%q", info.LibVersion))
	if info.Semver != "" {
		p.row(&b, "semver", info.Semver)
	}
	if info.BuildID != "" {
		p.row(&b, "build_id", info.BuildID)
	}
	p.row(&b, "binding_version", fmt.Sprint(info.BindingVersion))

	if info.Bound {
		p.row(&b, "handle", p.style(boundStyle, "bound"))
		if info.LibraryBuildID != "" {
			p.row(&b, "library_build_id", info.LibraryBuildID)
		}
		p.row(&b, "exports", strings.Join(info.Exports, ", "))
	} else {
		p.row(&b, "handle", p.style(unboundStyle, "unbound"))
	}

	_, err := io.WriteString(p.Writer, b.String())
	return err
}

func (p *Printer) row(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "  %s %s\n", p.style(keyStyle, fmt.Sprintf("%-17s", key+":")), value)
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}
