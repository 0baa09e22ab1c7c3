package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/smazurov/liltpanel/internal/locator"
)

const locateTimeout = 15 * time.Second

// CreateLocateCmd creates the locate command.
func CreateLocateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "locate [name...]",
		Short: "Resolve lilt and its helper tools on PATH",
		Long: `Looks up each named executable on PATH and prints its location and version. ` +
			`Without arguments, checks lilt, sox, ffmpeg and ffprobe. Exits non-zero when a required binary is missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), locateTimeout)
			defer cancel()

			statuses := locator.CheckBinaries(ctx, locator.PathLocator{}, requirementsFor(args))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(statuses); err != nil {
					return err
				}
			} else {
				printStatuses(out, statuses, shouldColorize(out))
			}

			if missing := missingRequired(statuses); len(missing) > 0 {
				cmd.SilenceUsage = true
				return fmt.Errorf("missing required binaries: %v", missing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

// requirementsFor treats explicitly named binaries as required.
func requirementsFor(names []string) []locator.Requirement {
	if len(names) == 0 {
		return locator.DefaultRequirements()
	}
	reqs := make([]locator.Requirement, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, locator.Requirement{Name: name, Command: name})
	}
	return reqs
}

func missingRequired(statuses []locator.Status) []string {
	var missing []string
	for _, st := range statuses {
		if !st.Optional && !st.Available {
			missing = append(missing, st.Name)
		}
	}
	return missing
}

func printStatuses(w io.Writer, statuses []locator.Status, color bool) {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		state := colorize(color, "found", text.FgGreen)
		switch {
		case !st.Available && st.Optional:
			state = colorize(color, "missing (optional)", text.FgYellow)
		case !st.Available:
			state = colorize(color, "missing", text.FgRed, text.Bold)
		}

		path := st.Path
		if path == "" {
			path = st.Detail
		}
		rows = append(rows, []string{st.Name, state, path, st.Version})
	}
	fmt.Fprintln(w, renderTable([]string{"Binary", "Status", "Path", "Version"}, rows))
}
