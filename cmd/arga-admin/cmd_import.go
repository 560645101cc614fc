package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zenibako/arga-golang/arga"
)

var (
	importName        string
	importDescription string
	importWorker      string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Upload a file and queue it for import",
}

var importTaxaCmd = &cobra.Command{
	Use:   "taxa <file>",
	Short: "Import a file of taxa as a new user taxa list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := uploadFile(cmd, args[0])
		if err != nil {
			return err
		}
		err = client.QueueTaxaImport(cmd.Context(), arga.TaxaImport{
			File:        fileID,
			Name:        importName,
			Description: importDescription,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued %s for import as taxa list %q\n", filepath.Base(args[0]), importName)
		return nil
	},
}

var importListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "Import a file as a name list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := uploadFile(cmd, args[0])
		if err != nil {
			return err
		}
		err = client.QueueListImport(cmd.Context(), arga.ListImport{
			File:        fileID,
			Name:        importName,
			Worker:      importWorker,
			Description: importDescription,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued %s for import as list %q\n", filepath.Base(args[0]), importName)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{importTaxaCmd, importListCmd} {
		c.Flags().StringVar(&importName, "name", "", "name of the new list")
		c.Flags().StringVar(&importDescription, "description", "", "description of the new list")
		_ = c.MarkFlagRequired("name")
	}
	importListCmd.Flags().StringVar(&importWorker, "worker", arga.DefaultListImportWorker, "import worker that reads the file")

	importCmd.AddCommand(importTaxaCmd, importListCmd)
}

func uploadFile(cmd *cobra.Command, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return client.UploadFile(cmd.Context(), filepath.Base(path), f)
}
