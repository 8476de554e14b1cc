package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
)

func renderTable(out io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func printCandidates(out io.Writer, candidates []mood.Candidate) error {
	rows := make([][]string, len(candidates))
	for i, c := range candidates {
		rows[i] = []string{
			mood.EmojiFor(c.Mood) + " " + c.Mood.Label(),
			strconv.FormatFloat(c.Confidence, 'f', 0, 64) + "%",
			strings.Join(c.MatchedKeywords, ", "),
		}
	}
	return renderTable(out, []string{"Mood", "Confidence", "Keywords"}, rows)
}

func printMoods(out io.Writer) error {
	var rows [][]string
	for _, m := range mood.All() {
		p, _ := mood.ProfileFor(m)
		t := p.Targets()
		rows = append(rows, []string{
			mood.EmojiFor(m) + " " + m.Label(),
			formatTarget(t.Valence),
			formatTarget(t.Energy),
			formatTarget(t.Danceability),
			p.Vibe(),
			strings.Join(p.SearchTerms, ", "),
			mood.ColorTag(m),
		})
	}
	return renderTable(out, []string{"Mood", "Valence", "Energy", "Danceability", "Vibe", "Search terms", "Color"}, rows)
}

func formatTarget(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func printDraft(out io.Writer, d playlist.Draft) error {
	fmt.Fprintf(out, "%s\n%s\n\n", d.Name, d.Description)
	if len(d.Tracks) == 0 {
		fmt.Fprintln(out, "No tracks found.")
		return nil
	}

	rows := make([][]string, len(d.Tracks))
	for i, t := range d.Tracks {
		rows[i] = []string{strconv.Itoa(i + 1), t.Name, t.ArtistLine(), formatDuration(t.DurationSeconds)}
	}
	return renderTable(out, []string{"#", "Track", "Artists", "Length"}, rows)
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
