package sheet

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column describes one rendered column of a row type.
type Column[R Row] struct {
	Title string
	Width int
	Value func(R) string
}

// Styles maps row states to terminal styles.
type Styles struct {
	Header    lipgloss.Style
	Unchanged lipgloss.Style
	Created   lipgloss.Style
	Updated   lipgloss.Style
	Deleted   lipgloss.Style
}

// DefaultStyles marks created rows green, updated rows yellow and tombstones red with
// a strikethrough.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Underline(true),
		Unchanged: lipgloss.NewStyle(),
		Created:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Updated:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Deleted:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Strikethrough(true),
	}
}

func (s Styles) forState(state State) lipgloss.Style {
	switch state {
	case Created:
		return s.Created
	case Updated:
		return s.Updated
	case Deleted:
		return s.Deleted
	default:
		return s.Unchanged
	}
}

var stateMarks = map[State]string{
	Unchanged: " ",
	Created:   "+",
	Updated:   "~",
	Deleted:   "-",
}

// Render draws entries as a table, one line per row, each prefixed by a change mark.
func Render[R Row](entries []Entry[R], columns []Column[R], styles Styles) string {
	var b strings.Builder

	header := make([]string, 0, len(columns)+1)
	header = append(header, " ")
	for _, col := range columns {
		header = append(header, pad(col.Title, col.Width))
	}
	b.WriteString(styles.Header.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	for _, e := range entries {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, stateMarks[e.State])
		for _, col := range columns {
			cells = append(cells, pad(col.Value(e.Row), col.Width))
		}
		b.WriteString(styles.forState(e.State).Render(strings.Join(cells, " ")))
		b.WriteString("\n")
	}
	return b.String()
}

// Summary is a one-line count of entries by state.
func Summary[R Row](entries []Entry[R]) string {
	counts := map[State]int{}
	for _, e := range entries {
		counts[e.State]++
	}
	return fmt.Sprintf("%d rows: %d created, %d updated, %d deleted",
		len(entries)-counts[Deleted], counts[Created], counts[Updated], counts[Deleted])
}

func pad(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) > width {
		r = append(r[:width-1], '…')
	}
	return lipgloss.NewStyle().Width(width).Render(string(r))
}
