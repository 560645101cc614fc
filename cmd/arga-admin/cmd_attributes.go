package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenibako/arga-golang/arga"
)

var (
	attrName        string
	attrType        string
	attrDescription string
	attrReference   string
)

var attributesCmd = &cobra.Command{
	Use:   "attributes",
	Short: "List and edit the attribute definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, err := client.AllAttributes(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable("ID", "NAME", "TYPE", "DESCRIPTION")
		for _, a := range attrs {
			t.Row(a.ID, a.Name, a.DataType, a.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var attributesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Define a new attribute",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadAttributes(cmd)
		if err != nil {
			return err
		}
		s.Append(arga.Attribute{
			Name:         attrName,
			DataType:     attrType,
			Description:  attrDescription,
			ReferenceURL: attrReference,
		})
		return commitStaged(cmd, s, attributeColumns, describeAttribute)
	},
}

var attributesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the definition of an attribute",
	Long:  `Only the flags given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadAttributes(cmd)
		if err != nil {
			return err
		}

		rows := s.Tracker().Rows()
		found := false
		for i := range rows {
			if rows[i].ID != args[0] {
				continue
			}
			found = true
			flags := cmd.Flags()
			if flags.Changed("name") {
				rows[i].Name = attrName
			}
			if flags.Changed("type") {
				rows[i].DataType = attrType
			}
			if flags.Changed("description") {
				rows[i].Description = attrDescription
			}
			if flags.Changed("reference") {
				rows[i].ReferenceURL = attrReference
			}
		}
		if !found {
			return fmt.Errorf("no attribute %s", args[0])
		}

		s.Sync(rows)
		return commitStaged(cmd, s, attributeColumns, describeAttribute)
	},
}

var attributesRemoveCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Delete attribute definitions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadAttributes(cmd)
		if err != nil {
			return err
		}
		if err := s.Remove(args...); err != nil {
			return err
		}
		return commitStaged(cmd, s, attributeColumns, describeAttribute)
	},
}

func init() {
	for _, c := range []*cobra.Command{attributesAddCmd, attributesEditCmd} {
		c.Flags().StringVar(&attrName, "name", "", "attribute name")
		c.Flags().StringVar(&attrType, "type", "", "data type, e.g. String, Array, Boolean")
		c.Flags().StringVar(&attrDescription, "description", "", "what the attribute records")
		c.Flags().StringVar(&attrReference, "reference", "", "reference URL")
	}
	_ = attributesAddCmd.MarkFlagRequired("name")
	_ = attributesAddCmd.MarkFlagRequired("type")

	attributesCmd.AddCommand(attributesAddCmd, attributesEditCmd, attributesRemoveCmd)
}

func loadAttributes(cmd *cobra.Command) (*arga.Session[arga.Attribute], error) {
	s := arga.NewAttributeSession(client, sessionOptions())
	drift, err := s.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	reportDrift(drift)
	return s, nil
}
