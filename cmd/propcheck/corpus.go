package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shipq/propcheck/cli"
	"github.com/shipq/propcheck/report"
)

func newCorpusCmd(out *cli.Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage recorded failures",
	}
	cmd.AddCommand(newCorpusListCmd(out))
	cmd.AddCommand(newCorpusShowCmd(out))
	cmd.AddCommand(newCorpusDeleteCmd(out))
	cmd.AddCommand(newCorpusPruneCmd(out))
	return cmd
}

func newCorpusListCmd(out *cli.Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [test-name]",
		Short: "List recorded failures",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var testName string
			if len(args) == 1 {
				testName = args[0]
			}
			entries, err := store.List(cmd.Context(), testName)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				out.Info("No recorded failures.")
				return nil
			}

			w := tabwriter.NewWriter(out.Out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTEST\tSEED\tKIND\tHITS\tLAST SEEN")
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%s\n",
					e.ID, e.TestName, e.Seed, e.Kind, e.Hits, e.LastSeen.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print entries as JSON")
	return cmd
}

func newCorpusShowCmd(out *cli.Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, e)
			}
			out.Infof("Entry:          %d", e.ID)
			out.Infof("Test:           %s", e.TestName)
			out.Infof("Kind:           %s", e.Kind)
			out.Infof("Message:        %s", e.Message)
			out.Infof("Counterexample: %s", e.Counterexample)
			out.Infof("Fingerprint:    %s", e.Fingerprint)
			out.Infof("Hits:           %d", e.Hits)
			out.Infof("First seen:     %s", e.FirstSeen.Format(time.RFC3339))
			out.Infof("Last seen:      %s", e.LastSeen.Format(time.RFC3339))
			out.Infof("Reproduce:      %s go test -run '<test>'", report.ReproduceHint(e.Seed))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the entry as JSON")
	return cmd
}

func newCorpusDeleteCmd(out *cli.Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete recorded failures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range ids {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				out.Successf("Deleted entry %d", id)
			}
			return nil
		},
	}
}

func newCorpusPruneCmd(out *cli.Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete failures not seen recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			out.Successf("Pruned %d entries not seen in %s", n, olderThan)
			return nil
		},
	}
	cmd.Flags().Duration("older-than", 30*24*time.Hour, "remove entries last seen before this long ago")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

func writeJSON(out *cli.Output, v any) error {
	enc := json.NewEncoder(out.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
