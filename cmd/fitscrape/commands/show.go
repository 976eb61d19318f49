package commands

import (
	"encoding/json"
	"fitscrape/internal/catalog"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	showIn     string
	showSearch string
	showLimit  int
	showFormat string
)

func init() {
	showCmd.Flags().StringVar(&showIn, "in", "", "The exercise dump to read. (default from config, dump.json)")
	showCmd.Flags().StringVar(&showSearch, "search", "", "Only show exercises whose title resembles this.")
	showCmd.Flags().IntVar(&showLimit, "limit", 10, "The maximum number of search results, 0 shows all of them.")
	showCmd.Flags().StringVar(&showFormat, "format", "table", "The output format, one of table, json or yaml.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [--in <path/to/dump.json>] [--search <title>] [--limit <n>] [--format table|json|yaml]",
	Short: "Prints the exercises of a dump as a table.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		in := showIn
		if in == "" {
			in = config.Output
		}

		result, err := catalog.ReadFile(in)
		if err != nil {
			fatal("failed to read dump", err)
		}

		exercises := result.Exercises()
		var matches []catalog.Match
		if showSearch != "" {
			matches = result.Search(showSearch, showLimit)
			exercises = make([]catalog.Exercise, len(matches))
			for i, m := range matches {
				exercises[i] = m.Exercise
			}
		}

		out := cmd.OutOrStdout()
		switch showFormat {
		case "table":
			if showSearch != "" {
				RenderMatches(out, matches)
				return
			}
			RenderExercises(out, exercises)
		case "json":
			err = RenderJSON(out, exercises)
		case "yaml":
			err = RenderYAML(out, exercises)
		default:
			err = fmt.Errorf("unknown format %q", showFormat)
		}
		if err != nil {
			fatal("failed to render", err)
		}
	},
}

func RenderJSON(out io.Writer, exercises []catalog.Exercise) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(exercises)
}

func RenderYAML(out io.Writer, exercises []catalog.Exercise) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	err := enc.Encode(exercises)
	if err != nil {
		return err
	}
	return enc.Close()
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// formatMusclesWorked renders involvement as "Chest 80%, Triceps 40%", by
// descending percentage, values that are not numbers go last.
func formatMusclesWorked(musclesWorked map[string]string) string {
	muscles := make([]string, 0, len(musclesWorked))
	for muscle := range musclesWorked {
		muscles = append(muscles, muscle)
	}
	slices.SortFunc(muscles, func(a, b string) int {
		pa, errA := strconv.ParseFloat(musclesWorked[a], 64)
		pb, errB := strconv.ParseFloat(musclesWorked[b], 64)
		switch {
		case errA == nil && errB != nil:
			return -1
		case errA != nil && errB == nil:
			return 1
		case errA == nil && errB == nil && pa != pb:
			if pa > pb {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})

	parts := make([]string, len(muscles))
	for i, muscle := range muscles {
		parts[i] = fmt.Sprintf("%s %s%%", muscle, musclesWorked[muscle])
	}
	return strings.Join(parts, ", ")
}

func RenderExercises(out io.Writer, exercises []catalog.Exercise) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Title", "Equipment", "Primary Muscles", "Muscles Worked"})
	for _, e := range exercises {
		t.AppendRow(table.Row{e.Title, e.Equipment, e.PrimaryMuscles, formatMusclesWorked(e.MusclesWorked)})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d exercises", len(exercises))})
	t.Render()
}

func RenderMatches(out io.Writer, matches []catalog.Match) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Title", "Similarity", "Equipment", "Url"})
	for _, m := range matches {
		t.AppendRow(table.Row{
			m.Exercise.Title,
			fmt.Sprintf("%.2f", m.Similarity),
			m.Exercise.Equipment,
			m.Exercise.Url,
		})
	}
	t.Render()
}
