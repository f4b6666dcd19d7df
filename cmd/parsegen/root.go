package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parsegen",
	Short: "Analyze an LL(k) grammar and generate an AST-typing report",
	Long: `parsegen provides two features:
- Computes FIRST_k/FOLLOW_k over a grammar and builds a per-non-terminal
  lookahead-DFA, choosing the smallest disambiguating k.
- Infers AST struct/enum types and a symbol table from the same grammar,
  without requiring a full parse.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var rootFlags = struct {
	config *string
}{}

func init() {
	rootFlags.config = rootCmd.PersistentFlags().StringP("config", "c", "parsegen.toml", "path to a parsegen.toml config file")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
