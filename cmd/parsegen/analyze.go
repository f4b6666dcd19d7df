package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/parsegen/parsegen/analysis"
	"github.com/parsegen/parsegen/asttype"
	"github.com/parsegen/parsegen/cfgspec"
	"github.com/parsegen/parsegen/config"
	"github.com/parsegen/parsegen/lookahead"
	"github.com/parsegen/parsegen/perr"
	"github.com/parsegen/parsegen/report"
	"github.com/parsegen/parsegen/symtab"
)

var analyzeFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Run the full grammar-flow and AST-type analysis, writing a JSON report",
		Example: `  parsegen analyze grammar.json -o grammar-report.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runAnalyze,
	}
	analyzeFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var src io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("cannot open %s: %w", args[0], err)
		}
		defer f.Close()
		src = f
	}

	var doc cfgspec.Document
	if err := json.NewDecoder(src).Decode(&doc); err != nil {
		return fmt.Errorf("cannot parse grammar document: %w", err)
	}

	g, terminalNames, err := doc.Compile()
	if err != nil {
		return err
	}

	cfgPath := *rootFlags.config
	conf, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("cannot load %s: %w", cfgPath, err)
	}

	gram, err := analysis.Compile(g, conf.MaxK)
	if err != nil {
		return err
	}

	firstCache := analysis.NewFirstCache()
	followCache := analysis.NewFollowCache()

	tables := map[string]*lookahead.Table{}
	var specErrs perr.SpecErrors
	for _, nt := range g.NonTerminals() {
		tbl, err := lookahead.Build(gram, nt, firstCache, followCache, conf.Parallelism)
		if err != nil {
			if se, ok := err.(*perr.SpecError); ok {
				specErrs = append(specErrs, se)
				continue
			}
			return err
		}
		tables[nt] = tbl
	}
	if len(specErrs) > 0 {
		return specErrs
	}

	tab := symtab.New()
	result, err := asttype.Infer(g, tab, terminalNames)
	if err != nil {
		return err
	}

	rep := report.Build(tables, tab, result)

	return writeReport(rep, *analyzeFlags.output)
}

func writeReport(rep *report.Report, path string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	fmt.Fprintf(w, "%s\n", b)
	return nil
}
