package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkgrab/internal/config"
	"linkgrab/internal/history"
	"linkgrab/internal/ui"
)

var flagHistoryList bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Re-run a download from history",
	Long: `Pick a previous download and run it again. Files that are already on
disk are skipped, so this completes partial or failed downloads.`,
	Args: cobra.NoArgs,
	RunE: historyRun,
}

func init() {
	historyCmd.Flags().BoolVarP(&flagHistoryList, "list", "l", false, "Print history instead of picking an entry")
}

func historyRun(cmd *cobra.Command, args []string) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	entries, err := store.Load(cmd.Context())
	store.Close()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history entries found.")
		return nil
	}

	items := history.FormatForDisplay(entries)
	if flagHistoryList {
		for i, item := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n    %s\n", item, entries[i].SourceURL)
		}
		return nil
	}

	idx, err := ui.Select("History", items)
	if err != nil {
		return err
	}
	selected := entries[idx]

	a := newApp(cfg)
	a.log.Debugw("re-running", "title", selected.Title, "url", selected.SourceURL)

	// Media URLs expire, so the link is resolved again.
	res, err := a.resolve(cmd.Context(), selected.SourceURL)
	if err != nil {
		return err
	}
	_, err = a.download(cmd.Context(), res)
	return err
}
