package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmlsilo/xmlsilo"
	"github.com/xmlsilo/xmlsilo/xerr"
)

func exportCmd() *cobra.Command {
	var (
		out       string
		indent    bool
		addHeader bool
		query     string
	)

	cmd := &cobra.Command{
		Use:   "export <silo>",
		Short: "Render a silo (or a query match within it) back to XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			silo, err := xmlsilo.LoadFromFile(args[0], xmlsilo.LoadNone, nil)
			if err != nil {
				return err
			}
			defer silo.Close()

			flags := xmlsilo.ExportNone
			if indent {
				flags |= xmlsilo.ExportIndent
			}
			if addHeader {
				flags |= xmlsilo.ExportAddHeader
			}

			var text string
			if query != "" {
				match, err := silo.QueryFirst(query)
				if err != nil {
					return err
				}
				text, err = match.Export(flags)
				if err != nil {
					return err
				}
			} else {
				text, err = silo.ToXML(flags)
				if err != nil {
					return err
				}
			}

			if out == "" {
				fmt.Println(text)
				return nil
			}
			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("export: %s already exists (use --force to overwrite)", out)
				}
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return xerr.Wrap(xerr.IO, err, "writing %s", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent nested elements")
	cmd.Flags().BoolVar(&addHeader, "header", false, "prepend an XML declaration")
	cmd.Flags().StringVarP(&query, "query", "q", "", "export only the first match of this xpath-subset query")

	return cmd
}
