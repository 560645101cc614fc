package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zenibako/arga-golang/arga"
)

var (
	taxaDataset  string
	taxaPage     int
	taxaPageSize int
	taxaFuzzy    bool
	taxaAttrs    bool
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the taxonomy datasets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := client.Datasets(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable("ID", "SHORT NAME", "NAME")
		for _, d := range page.Records {
			t.Row(d.ID, d.ShortName, d.Name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var taxaCmd = &cobra.Command{
	Use:   "taxa [query]",
	Short: "Search the reference taxonomy",
	Long: `Lists one page of taxa, optionally filtered by a search query and a dataset.

With --fuzzy the page is ranked locally by how closely each name matches the
query, closest first. With --attributes the recorded attributes of every
listed taxon are printed too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTaxa,
}

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "List the name lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := client.NameLists(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable("ID", "TYPE", "NAME")
		for _, l := range page.Records {
			t.Row(l.ID, l.ListType, l.Name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

func init() {
	taxaCmd.Flags().StringVar(&taxaDataset, "dataset", "", "only taxa of this dataset id")
	taxaCmd.Flags().IntVar(&taxaPage, "page", 1, "page to show")
	taxaCmd.Flags().IntVar(&taxaPageSize, "page-size", 20, "taxa per page")
	taxaCmd.Flags().BoolVar(&taxaFuzzy, "fuzzy", false, "rank the page by fuzzy match against the query")
	taxaCmd.Flags().BoolVar(&taxaAttrs, "attributes", false, "print the attributes of each taxon")
}

func runTaxa(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	}

	params := arga.TaxaParams{Page: taxaPage, PageSize: taxaPageSize, DatasetID: taxaDataset}
	if !taxaFuzzy {
		params.Search = query
	}
	page, err := client.Taxa(cmd.Context(), params)
	if err != nil {
		return err
	}

	taxa := page.Records
	if taxaFuzzy {
		taxa = arga.RankTaxa(taxa, query)
	}

	out := cmd.OutOrStdout()
	tbl := newTable("ID", "SCIENTIFIC NAME", "RANK", "STATUS")
	for _, t := range taxa {
		tbl.Row(t.ID, t.ScientificName, t.TaxonRank, t.TaxonomicStatus)
	}
	fmt.Fprintln(out, tbl)
	fmt.Fprintf(out, "%d of %d taxa\n", len(taxa), page.Total)

	if !taxaAttrs {
		return nil
	}
	for _, t := range taxa {
		attrs, err := client.TaxonAttributes(cmd.Context(), t.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch attributes of %s: %w", t.ScientificName, err)
		}
		fmt.Fprintf(out, "\n%s\n", t.ScientificName)
		for _, a := range attrs {
			fmt.Fprintf(out, "  %s: %s\n", a.Name, a.Value)
		}
	}
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
