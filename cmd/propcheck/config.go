package main

import (
	"github.com/spf13/cobra"

	"github.com/shipq/propcheck/cli"
)

func newConfigCmd(out *cli.Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect run settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if url, _ := cmd.Flags().GetString("corpus"); url != "" {
				s.CorpusURL = url
			}
			data, err := s.Marshal()
			if err != nil {
				return err
			}
			_, err = out.Out.Write(data)
			return err
		},
	})
	return cmd
}
