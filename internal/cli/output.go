package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Format selects how command results are written
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	TitleStyle   = lipgloss.NewStyle().Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewTable returns a table styled like every other listing
func NewTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Emit writes v as JSON or YAML, or calls render for the table format
func (c *Context) Emit(v any, render func(w io.Writer) error) error {
	w := c.Stdout()
	switch c.Output {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return render(w)
	}
}

// Printf writes to stdout
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

// Println writes to stdout
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

// Notifier reports gesture and workflow outcomes on the terminal
type Notifier struct {
	Out io.Writer
}

func (n Notifier) Success(msg string) {
	fmt.Fprintln(n.Out, SuccessStyle.Render("✓ "+msg))
}

// Info reports an outcome that changed nothing
func (n Notifier) Info(msg string) {
	fmt.Fprintln(n.Out, MutedStyle.Render(msg))
}

func (n Notifier) Error(msg string) {
	fmt.Fprintln(n.Out, ErrorStyle.Render("❌ "+msg))
}

// Notifier writes outcomes to stderr so they never mix with --output data
func (c *Context) Notifier() Notifier {
	return Notifier{Out: c.Stderr()}
}
