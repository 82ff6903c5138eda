// Command propcheck inspects and maintains a property test failure corpus.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/shipq/propcheck/cli"
	"github.com/shipq/propcheck/config"
	"github.com/shipq/propcheck/corpus"
)

// Build information, set via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd(cli.Stdio()).Execute(); err != nil {
		cli.FatalErr("propcheck", err)
	}
}

func newRootCmd(out *cli.Output) *cobra.Command {
	root := &cobra.Command{
		Use:   "propcheck",
		Short: "Inspect and maintain the property test failure corpus",
		Long: `propcheck manages the failure corpus written by harness.Check.

Failing seeds are replayed before new cases on every run. Use the corpus
commands to list, inspect, delete or prune recorded failures, and
'config show' to see the settings a test run would use.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out.Out)
	root.SetErr(out.Err)

	root.PersistentFlags().String("config", "", "settings file (default: propcheck.yaml in the current directory or project root)")
	root.PersistentFlags().String("corpus", "", "corpus database URL (overrides corpus_url)")

	root.AddCommand(newCorpusCmd(out))
	root.AddCommand(newConfigCmd(out))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out.Infof("propcheck version %s", version)
			out.Infof("  commit: %s", commit)
			out.Infof("  platform: %s/%s", runtime.GOOS, runtime.GOARCH)
		},
	})
	return root
}

// loadSettings reads the settings file named by --config, or the default
// propcheck.yaml, and applies environment overrides.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.LoadDefault()
	}
	s, err := config.Load(path)
	if err != nil {
		return config.Settings{}, err
	}
	return config.FromEnv(s, os.LookupEnv)
}

func openStore(cmd *cobra.Command) (*corpus.Store, error) {
	url, _ := cmd.Flags().GetString("corpus")
	if url == "" {
		s, err := loadSettings(cmd)
		if err != nil {
			return nil, err
		}
		url = s.CorpusURL
	}
	if url == "" {
		return nil, fmt.Errorf("no corpus configured: set corpus_url, %s or --corpus", config.EnvCorpus)
	}
	return corpus.Open(cmd.Context(), url)
}
