package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zenibako/arga-golang/arga"
	"github.com/zenibako/arga-golang/sheet"
	"github.com/zenibako/arga-golang/templates"
)

var (
	listDescription string
	genGenus        string
	genEpithets     []string
	genInfra        []string
	genTemplatePath string
)

var userTaxaCmd = &cobra.Command{
	Use:   "user-taxa",
	Short: "Show and edit user taxa lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := client.UserTaxaLists(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable("ID", "NAME", "DESCRIPTION")
		for _, l := range page.Records {
			t.Row(l.ID, l.Name, l.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var userTaxaCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty user taxa list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := client.CreateUserTaxa(cmd.Context(), arga.UserTaxa{Name: args[0], Description: listDescription})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created list %s (%s)\n", list.Name, list.ID)
		return nil
	},
}

var userTaxaDeleteCmd = &cobra.Command{
	Use:   "delete <list>",
	Short: "Delete a user taxa list and its rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := client.GetUserTaxa(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ok, err := confirmer().ConfirmCommit(cmd.Context(), fmt.Sprintf("Delete list %q and all its rows", list.Name))
		if err != nil || !ok {
			return err
		}
		return client.DeleteUserTaxa(cmd.Context(), list.ID)
	},
}

var userTaxaItemsCmd = &cobra.Command{
	Use:   "items <list>",
	Short: "Show the rows of a user taxa list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := arga.NewUserTaxaSession(client, args[0], sessionOptions())
		drift, err := s.Load(cmd.Context())
		if err != nil {
			return err
		}
		reportDrift(drift)
		entries := s.Tracker().Entries()
		fmt.Fprint(cmd.OutOrStdout(), sheet.Render(entries, userTaxonColumns, sheet.DefaultStyles()))
		fmt.Fprintln(cmd.OutOrStdout(), sheet.Summary(entries))
		return nil
	},
}

var userTaxaExportCmd = &cobra.Command{
	Use:   "export <list> <file>",
	Short: "Write the rows of a user taxa list to CSV or JSON",
	Long: `Writes every row of the list to file. A .json file gets the list and its
rows as JSON; anything else is written as CSV with one column per field.`,
	Args: cobra.ExactArgs(2),
	RunE: runUserTaxaExport,
}

var userTaxaSyncCmd = &cobra.Command{
	Use:   "sync <list> <file.csv>",
	Short: "Make a user taxa list match a CSV file",
	Long: `Compares the CSV file with the rows on the server and stages the difference:
rows missing from the file are deleted, changed rows are updated and rows
with a new or empty id are created. The staged rows are shown and committed
after confirmation.`,
	Args: cobra.ExactArgs(2),
	RunE: runUserTaxaSync,
}

var userTaxaGenerateCmd = &cobra.Command{
	Use:   "generate <list>",
	Short: "Add species rows of one genus to a user taxa list",
	Long: `Builds one row per --epithet from a template and commits them as new rows.

Example:
  arga-admin user-taxa generate L1 --genus Acacia --epithet dealbata --epithet baileyana`,
	Args: cobra.ExactArgs(1),
	RunE: runUserTaxaGenerate,
}

var userTaxaDuplicateCmd = &cobra.Command{
	Use:   "duplicate <list> <id>",
	Short: "Copy a row of a user taxa list under a new id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadUserTaxa(cmd, args[0])
		if err != nil {
			return err
		}
		if _, err := s.Duplicate(args[1]); err != nil {
			return err
		}
		return commitStaged(cmd, s, userTaxonColumns, describeUserTaxon)
	},
}

var userTaxaRemoveCmd = &cobra.Command{
	Use:   "remove <list> <id>...",
	Short: "Delete rows of a user taxa list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadUserTaxa(cmd, args[0])
		if err != nil {
			return err
		}
		if err := s.Remove(args[1:]...); err != nil {
			return err
		}
		return commitStaged(cmd, s, userTaxonColumns, describeUserTaxon)
	},
}

func init() {
	userTaxaCreateCmd.Flags().StringVar(&listDescription, "description", "", "list description")

	userTaxaGenerateCmd.Flags().StringVar(&genGenus, "genus", "", "genus of every generated row")
	userTaxaGenerateCmd.Flags().StringArrayVar(&genEpithets, "epithet", nil, "specific epithet, repeatable")
	userTaxaGenerateCmd.Flags().StringArrayVar(&genInfra, "infra", nil, "intraspecific epithet for the epithet at the same position, repeatable")
	userTaxaGenerateCmd.Flags().StringVar(&genTemplatePath, "template", "", "YAML file with the rank, status and classification of the new rows")
	_ = userTaxaGenerateCmd.MarkFlagRequired("genus")
	_ = userTaxaGenerateCmd.MarkFlagRequired("epithet")

	userTaxaCmd.AddCommand(
		userTaxaCreateCmd,
		userTaxaDeleteCmd,
		userTaxaItemsCmd,
		userTaxaExportCmd,
		userTaxaSyncCmd,
		userTaxaGenerateCmd,
		userTaxaDuplicateCmd,
		userTaxaRemoveCmd,
	)
}

func loadUserTaxa(cmd *cobra.Command, listID string) (*arga.Session[arga.UserTaxon], error) {
	s := arga.NewUserTaxaSession(client, listID, sessionOptions())
	drift, err := s.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	reportDrift(drift)
	return s, nil
}

func runUserTaxaExport(cmd *cobra.Command, args []string) error {
	listID, path := args[0], args[1]

	list, err := client.GetUserTaxa(cmd.Context(), listID)
	if err != nil {
		return err
	}
	items, err := client.AllUserTaxaItems(cmd.Context(), listID)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := arga.ToJSON(list, items, true)
		if err != nil {
			return err
		}
		if _, err := f.WriteString(data + "\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	} else if err := arga.WriteUserTaxaCSV(f, items); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Infof("Exported %d rows of %s to %s", len(items), list.Name, path)
	return f.Close()
}

func runUserTaxaSync(cmd *cobra.Command, args []string) error {
	listID, path := args[0], args[1]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	edited, err := arga.ReadUserTaxaCSV(f, listID)
	f.Close()
	if err != nil {
		return err
	}

	s, err := loadUserTaxa(cmd, listID)
	if err != nil {
		return err
	}
	n := s.Sync(edited)
	log.Debugf("Staged %d edits from %s", n, path)
	return commitStaged(cmd, s, userTaxonColumns, describeUserTaxon)
}

func runUserTaxaGenerate(cmd *cobra.Command, args []string) error {
	listID := args[0]

	req := templates.GenerationRequest{
		ListID:   listID,
		Genus:    genGenus,
		Epithets: genEpithets,
		Infra:    genInfra,
	}
	if genTemplatePath != "" {
		tmpl, err := loadTemplate(genTemplatePath)
		if err != nil {
			return err
		}
		req.Template = tmpl
	}

	rows, result := arga.GenerateUserTaxa(req)
	for _, msg := range result.Errors {
		log.Warn("Skipped", "reason", msg)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows to add")
	}

	s, err := loadUserTaxa(cmd, listID)
	if err != nil {
		return err
	}
	s.Append(rows...)
	return commitStaged(cmd, s, userTaxonColumns, describeUserTaxon)
}

func loadTemplate(path string) (templates.TaxonTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return templates.TaxonTemplate{}, fmt.Errorf("failed to read template: %w", err)
	}
	var tmpl templates.TaxonTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return templates.TaxonTemplate{}, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	return tmpl, nil
}
