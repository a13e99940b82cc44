package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vjovkovs/narrate/internal/app"
	"github.com/vjovkovs/narrate/internal/model"
)

var showAll bool

var chaptersCmd = &cobra.Command{
	Use:   "chapters <book.epub>",
	Short: "List the book's documents and which ones look like chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, items, err := app.Inspect(args[0])
		if err != nil {
			return reportErr(err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s by %s\n\n", book.Title, book.Author)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tCHAPTER\tCHARS\tNAME")
		for _, it := range items {
			if it.Type != model.ItemDocument && !showAll {
				continue
			}
			mark := "-"
			if it.Chapter {
				mark = "yes"
			}
			if it.Type != model.ItemDocument {
				mark = it.Type.String()
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", it.Ordinal, mark, it.Chars, it.Name)
		}
		return w.Flush()
	},
}

func init() {
	chaptersCmd.Flags().BoolVarP(&showAll, "all", "a", false, "include non-document items")
}
