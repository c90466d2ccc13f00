package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/stargazerhq/stargazer/internal/model"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

// Column widths
const (
	colLogin    = 22
	colName     = 24
	colEmail    = 32
	colLocation = 20
)

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	// Only use hyperlinks if stdout is a terminal
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// truncate shortens s to fit within maxWidth display columns, accounting
// for wide characters.
func truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// cell truncates and pads a value to its column width.
func cell(s string, width int) string {
	s = truncate(s, width)
	pad := width - runewidth.StringWidth(s)
	if pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// Format outputs the extraction result as a table
func (f *TableFormatter) Format(result *model.ExtractionResult, w io.Writer) error {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	repo := result.Repository
	bold.Fprintln(w, repo.FullName)
	if repo.Description != "" {
		fmt.Fprintln(w, repo.Description)
	}
	faint.Fprintf(w, "%d stars, %d forks", repo.StargazersCount, repo.ForksCount)
	if repo.Language != "" {
		faint.Fprintf(w, ", %s", repo.Language)
	}
	fmt.Fprintln(w)

	if result.Stargazers != nil {
		fmt.Fprintln(w)
		bold.Fprintf(w, "Stargazers (%d of %d)\n", len(result.Stargazers), result.TotalStargazers)
		f.userTable(result.Stargazers, w)
	}
	if result.Forkers != nil {
		fmt.Fprintln(w)
		bold.Fprintf(w, "Forkers (%d of %d)\n", len(result.Forkers), result.TotalForkers)
		f.userTable(result.Forkers, w)
	}

	return nil
}

func (f *TableFormatter) userTable(users []model.User, w io.Writer) {
	if len(users) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}

	header := color.New(color.Faint, color.Underline)
	header.Fprintf(w, "%s %s %s %s\n",
		cell("LOGIN", colLogin),
		cell("NAME", colName),
		cell("EMAIL", colEmail),
		cell("LOCATION", colLocation),
	)

	for _, u := range users {
		login := cell(u.Login, colLogin)
		fmt.Fprintf(w, "%s %s %s %s\n",
			hyperlink(login, u.HTMLURL),
			cell(u.Name, colName),
			cell(u.Email, colEmail),
			cell(u.Location, colLocation),
		)
	}
}
