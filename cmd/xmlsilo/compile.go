package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmlsilo/xmlsilo"
)

func compileCmd() *cobra.Command {
	var (
		out         string
		literalText bool
		nativeLangs []string
		ignoreBad   bool
	)

	cmd := &cobra.Command{
		Use:   "compile [sources...]",
		Short: "Compile one or more XML sources into a silo archive",
		Long: `compile imports each source file in order, merges their
top-level elements into a single document, and writes the result as a
binary silo archive.

Examples:
  xmlsilo compile catalog.xml -o catalog.silo
  xmlsilo compile en.xml fr.xml -o catalog.silo --native-lang en-US`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("compile: -o/--out is required")
			}
			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("compile: %s already exists (use --force to overwrite)", out)
				}
			}

			b := xmlsilo.New()
			b.CollapseWhitespace(!literalText)
			b.IgnoreInvalid(ignoreBad, func(msg string, off int) {
				logf("skipped malformed subtree at byte %d: %s", off, msg)
			})
			if len(nativeLangs) > 0 {
				if err := b.AddLocale(nativeLangs...); err != nil {
					return err
				}
			}

			for _, src := range args {
				logf("importing %s", src)
				if err := b.ImportFile(src); err != nil {
					return err
				}
			}

			flags := xmlsilo.CompileNone
			if literalText {
				flags |= xmlsilo.CompileLiteralText
			}
			if len(nativeLangs) > 0 {
				flags |= xmlsilo.CompileNativeLangs
			}
			if ignoreBad {
				flags |= xmlsilo.CompileIgnoreInvalid
			}

			silo, err := b.Compile(flags)
			if err != nil {
				return err
			}
			if err := silo.SaveToFile(out); err != nil {
				return err
			}
			logf("wrote %s (guid %x)", out, silo.GUID())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output silo path (required)")
	cmd.Flags().BoolVar(&literalText, "literal-text", false, "preserve text whitespace verbatim")
	cmd.Flags().StringSliceVar(&nativeLangs, "native-lang", nil, "locale preferences, most-preferred first (enables translation filtering)")
	cmd.Flags().BoolVar(&ignoreBad, "ignore-invalid", false, "skip malformed subtrees instead of aborting")

	return cmd
}
