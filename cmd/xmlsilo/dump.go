package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xmlsilo/xmlsilo"
)

func dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <silo>",
		Short: "Print a silo's header and top-level element names",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			silo, err := xmlsilo.LoadFromFile(args[0], xmlsilo.LoadNone, nil)
			if err != nil {
				return err
			}
			defer silo.Close()

			fmt.Printf("guid: %x\n", silo.GUID())
			root, err := silo.Root()
			if err != nil {
				return err
			}
			children, err := root.Children()
			if err != nil {
				return err
			}
			fmt.Printf("top-level elements: %d\n", len(children))
			for _, c := range children {
				name, err := c.Element()
				if err != nil {
					return err
				}
				depth, err := c.Depth()
				if err != nil {
					return err
				}
				fmt.Printf("  <%s> (depth %d)\n", name, depth)
			}
			return nil
		},
	}
	return cmd
}
