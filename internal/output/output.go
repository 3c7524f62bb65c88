// Package output renders operation results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// statusWidth is the width of the widest backup status.
const statusWidth = len("FAILED")

// Renderer writes responses in one format.
type Renderer struct {
	w      io.Writer
	format Format
	ok     *color.Color
	fail   *color.Color
	faint  *color.Color
}

// New creates a renderer. Colours are used only when w is a terminal and NO_COLOR is unset.
func New(w io.Writer, format Format) *Renderer {
	return NewWithColor(w, format, colorSupported(w))
}

// NewWithColor creates a renderer with colours forced on or off.
func NewWithColor(w io.Writer, format Format, useColor bool) *Renderer {
	r := &Renderer{
		w:      w,
		format: format,
		ok:     color.New(color.FgGreen, color.Bold),
		fail:   color.New(color.FgRed, color.Bold),
		faint:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.ok, r.fail, r.faint} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func colorSupported(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Identity renders a connection test result.
func (r *Renderer) Identity(resp models.TestConnectionResponse) error {
	if r.format != FormatTable {
		return r.encode(resp)
	}
	if !resp.OK {
		return r.failure(resp.Error)
	}

	info := resp.Info
	year := info.Year
	if year == "" {
		year = r.faint.Sprint("unknown")
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", r.ok.Sprint("Connection OK"))
	fmt.Fprintf(tw, "Version:\t%s\n", info.ProductVersion)
	fmt.Fprintf(tw, "Release:\tSQL Server %s\n", year)
	fmt.Fprintf(tw, "Level:\t%s\n", info.ProductLevel)
	fmt.Fprintf(tw, "Edition:\t%s\n", info.Edition)
	return tw.Flush()
}

// Databases renders a database listing.
func (r *Renderer) Databases(resp models.ListDatabasesResponse) error {
	if r.format != FormatTable {
		return r.encode(resp)
	}
	if !resp.OK {
		return r.failure(resp.Error)
	}

	if len(resp.Databases) == 0 {
		_, err := fmt.Fprintln(r.w, r.faint.Sprint("no online user databases"))
		return err
	}
	for _, name := range resp.Databases {
		if _, err := fmt.Fprintln(r.w, name); err != nil {
			return err
		}
	}
	return nil
}

// Backup renders a backup batch result.
func (r *Renderer) Backup(resp models.BackupResponse) error {
	if r.format != FormatTable {
		return r.encode(resp)
	}
	if !resp.OK {
		return r.failure(resp.Error)
	}

	// Status is padded before colouring and kept out of the tabwriter cells,
	// which would count escape sequences as width.
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "DATABASE\t%-*s  DETAIL\n", statusWidth, "STATUS")

	failed := 0
	for _, o := range resp.Results {
		if o.OK {
			fmt.Fprintf(tw, "%s\t%s  %s\n", o.Database, r.ok.Sprintf("%-*s", statusWidth, "OK"), o.File)
			continue
		}
		failed++
		fmt.Fprintf(tw, "%s\t%s  %s\n", o.Database, r.fail.Sprintf("%-*s", statusWidth, "FAILED"), o.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d of %d backups succeeded", len(resp.Results)-failed, len(resp.Results))
	if failed > 0 {
		summary = r.fail.Sprint(summary)
	} else {
		summary = r.ok.Sprint(summary)
	}
	_, err := fmt.Fprintf(r.w, "\n%s %s\n", summary, r.faint.Sprintf("(batch %s)", resp.BatchID))
	return err
}

func (r *Renderer) failure(msg string) error {
	_, err := fmt.Fprintf(r.w, "%s %s\n", r.fail.Sprint("FAILED"), msg)
	return err
}

func (r *Renderer) encode(v interface{}) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", r.format)
	}
}
