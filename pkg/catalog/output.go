package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
)

type OutputFormat int

const (
	TableFormat OutputFormat = iota
	JSONFormat
)

// ListOutput renders a listing as a table or JSON.
type ListOutput struct {
	Entries []Entry
	Format  OutputFormat
}

func NewListOutput(entries []Entry, format OutputFormat) *ListOutput {
	if entries == nil {
		entries = []Entry{}
	}
	return &ListOutput{Entries: entries, Format: format}
}

func (o *ListOutput) Render(w io.Writer) error {
	if o.Format == JSONFormat {
		return o.renderJSON(w)
	}
	return o.renderTable(w)
}

func (o *ListOutput) renderJSON(w io.Writer) error {
	type jsonOutput struct {
		Agents []Entry `json:"agents"`
		Total  int     `json:"total"`
	}

	jsonData, err := json.MarshalIndent(jsonOutput{Agents: o.Entries, Total: len(o.Entries)}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error generating JSON output")
	}

	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	idStyle     = cellStyle.Foreground(lipgloss.Color("6"))
)

func (o *ListOutput) renderTable(w io.Writer) error {
	if len(o.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No agents found matching criteria")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return idStyle
			default:
				return cellStyle
			}
		}).
		Headers("ID", "Name", "Domain", "Summary", "Version", "Tags")

	for _, e := range o.Entries {
		t.Row(e.ID, e.Name, e.Domain, e.Summary, e.Version, shortTags(e.Tags))
	}

	_, err := fmt.Fprintf(w, "Available Agents (%d found)\n%s\n", len(o.Entries), t.String())
	return err
}
