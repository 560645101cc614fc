package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zenibako/arga-golang/arga"
	"github.com/zenibako/arga-golang/sheet"
)

var userTaxonColumns = []sheet.Column[arga.UserTaxon]{
	{Title: "ID", Width: 12, Value: func(t arga.UserTaxon) string { return t.ID }},
	{Title: "SCIENTIFIC NAME", Width: 44, Value: func(t arga.UserTaxon) string { return t.ScientificName }},
	{Title: "RANK", Width: 12, Value: func(t arga.UserTaxon) string { return t.TaxonRank }},
	{Title: "STATUS", Width: 12, Value: func(t arga.UserTaxon) string { return t.TaxonomicStatus }},
}

var attributeColumns = []sheet.Column[arga.Attribute]{
	{Title: "ID", Width: 12, Value: func(a arga.Attribute) string { return a.ID }},
	{Title: "NAME", Width: 24, Value: func(a arga.Attribute) string { return a.Name }},
	{Title: "TYPE", Width: 10, Value: func(a arga.Attribute) string { return a.DataType }},
	{Title: "DESCRIPTION", Width: 40, Value: func(a arga.Attribute) string { return a.Description }},
}

func describeUserTaxon(t arga.UserTaxon) string {
	return fmt.Sprintf("%s (%s, %s)", t.ScientificName, t.TaxonRank, t.TaxonomicStatus)
}

func describeAttribute(a arga.Attribute) string {
	return fmt.Sprintf("%s [%s] %s", a.Name, a.DataType, a.Description)
}

func changed[R sheet.Row](entries []sheet.Entry[R]) []sheet.Entry[R] {
	var out []sheet.Entry[R]
	for _, e := range entries {
		if e.State != sheet.Unchanged {
			out = append(out, e)
		}
	}
	return out
}

func reportDrift(d sheet.Drift) {
	if d.IsEmpty() {
		return
	}
	log.Warn("Rows changed on the server since your last commit",
		"created", d.Created, "updated", d.Updated, "deleted", d.Deleted)
}

// commitStaged shows the staged rows of s and commits them once confirmed.
func commitStaged[R sheet.Row](cmd *cobra.Command, s *arga.Session[R], columns []sheet.Column[R], describe func(R) string) error {
	out := cmd.OutOrStdout()
	tracker := s.Tracker()
	if !tracker.HasChanges() {
		fmt.Fprintln(out, "No changes to commit")
		return nil
	}

	entries := tracker.Entries()
	fmt.Fprint(out, sheet.Render(changed(entries), columns, sheet.DefaultStyles()))
	fmt.Fprintln(out, sheet.Summary(entries))

	s.SetConfirmer(confirmer())
	if !assumeYes {
		s.SetResolver(arga.HuhResolver[R]{Describe: describe})
	}

	result, err := s.Commit(cmd.Context())
	switch {
	case errors.Is(err, arga.ErrCommitDeclined):
		fmt.Fprintln(out, "Nothing committed")
		return nil
	case err != nil:
		for _, f := range result.Failed {
			log.Error("Row not saved", "id", f.ID, "op", f.Kind, "reason", arga.ErrorMessage(f.Err))
		}
		if result.Retained {
			log.Info("Failed rows are still staged in this run only; fix the input and run the command again")
		}
		return err
	}

	fmt.Fprintf(out, "Committed %d rows\n", result.Batch.Len())
	return nil
}
