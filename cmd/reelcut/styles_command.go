package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelcut/internal/captions"
)

func newStylesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "styles",
		Short:       "List caption styles",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			styles := captions.Styles()
			rows := make([][]string, 0, len(styles))
			for i, s := range styles {
				rows = append(rows, []string{strconv.Itoa(i + 1), s.Key, s.Name, s.Hex(), string(s.Weight)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(rows, ">#", "Key", "Name", "Colour", "Weight"))
			fmt.Fprintf(cmd.OutOrStdout(), "Highlighted keywords are drawn in %s regardless of style.\n",
				fmt.Sprintf("#%02X%02X%02X", captions.AccentColor.R, captions.AccentColor.G, captions.AccentColor.B))
			return nil
		},
	}
}
