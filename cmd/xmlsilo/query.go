package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmlsilo/xmlsilo"
)

func queryCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "query <silo> <xpath>",
		Short: "Run a restricted XPath-subset query against a silo",
		Long: `query evaluates an xpath-subset expression against the whole
document and prints each match.

Examples:
  xmlsilo query catalog.silo "catalog/item[@id=\"42\"]"
  xmlsilo query catalog.silo "catalog/item[number(price)<10]" --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			silo, err := xmlsilo.LoadFromFile(args[0], xmlsilo.LoadNone, nil)
			if err != nil {
				return err
			}
			defer silo.Close()

			matches, err := silo.Query(args[1], limit)
			if err != nil {
				return err
			}
			logf("%d match(es)", len(matches))

			switch format {
			case "xml":
				for _, m := range matches {
					text, err := m.Export(xmlsilo.ExportNone)
					if err != nil {
						return err
					}
					fmt.Println(text)
				}
			case "json":
				return printJSON(matches)
			default:
				return fmt.Errorf("query: unsupported --format %q (want xml or json)", format)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of matches (0 = unlimited)")
	cmd.Flags().StringVar(&format, "format", "xml", "output format: xml or json")

	return cmd
}

type queryResult struct {
	Element string            `json:"element"`
	Text    string            `json:"text,omitempty"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

func printJSON(matches []xmlsilo.Node) error {
	results := make([]queryResult, 0, len(matches))
	for _, m := range matches {
		name, err := m.Element()
		if err != nil {
			return err
		}
		text, _, err := m.Text()
		if err != nil {
			return err
		}
		attrs, err := m.Attrs()
		if err != nil {
			return err
		}
		r := queryResult{Element: name, Text: text}
		if len(attrs) > 0 {
			r.Attrs = make(map[string]string, len(attrs))
			for _, a := range attrs {
				r.Attrs[a.Name] = a.Value
			}
		}
		results = append(results, r)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
