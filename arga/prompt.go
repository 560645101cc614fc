package arga

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/zenibako/arga-golang/sheet"
)

// Confirmer asks whether a staged batch should be committed.
type Confirmer interface {
	ConfirmCommit(ctx context.Context, summary string) (bool, error)
}

// AutoConfirmer approves every commit, for non-interactive runs.
type AutoConfirmer struct{}

func (AutoConfirmer) ConfirmCommit(_ context.Context, summary string) (bool, error) {
	log.Infof("Committing without confirmation: %s", summary)
	return true, nil
}

// HuhConfirmer asks on the terminal.
type HuhConfirmer struct {
	Title string
}

func (h HuhConfirmer) ConfirmCommit(ctx context.Context, summary string) (bool, error) {
	title := h.Title
	if title == "" {
		title = "Commit staged changes?"
	}

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(summary).
				Affirmative("Commit").
				Negative("Cancel").
				Value(&ok),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("failed to get user confirmation: %w", err)
	}
	return ok, nil
}

// HuhResolver asks on the terminal how each conflict should be resolved. Describe
// renders a row for the prompt; rows are printed with %v when it is nil.
type HuhResolver[R sheet.Row] struct {
	Describe func(R) string
}

func (h HuhResolver[R]) describe(row R) string {
	if h.Describe != nil {
		return h.Describe(row)
	}
	return fmt.Sprintf("%v", row)
}

func (h HuhResolver[R]) ResolveConflicts(ctx context.Context, conflicts []sheet.Conflict[R]) (map[string]sheet.Choice, error) {
	if len(conflicts) == 0 {
		return nil, nil
	}

	log.Infof("Found %d conflicts that require your attention", len(conflicts))

	choices := make(map[string]sheet.Choice, len(conflicts))
	for i, conflict := range conflicts {
		log.Infof("Conflict %d/%d: %s", i+1, len(conflicts), conflict.Description)

		description := "Yours:  " + h.describe(conflict.Local)
		keepServer := "Keep server version (drop my edit)"
		if conflict.Kind == sheet.ConflictServerModified {
			description += "\nServer: " + h.describe(conflict.Server)
		} else {
			keepServer = "Accept server deletion (drop my edit)"
		}

		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("How would you like to resolve the conflict for row %s?", conflict.ID)).
					Description(description).
					Options(
						huh.NewOption("Use my version (overwrite server)", string(sheet.ChoiceUseLocal)),
						huh.NewOption(keepServer, string(sheet.ChoiceKeepServer)),
					).
					Value(&choice),
			),
		)
		if err := form.RunWithContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to get user input for conflict resolution: %w", err)
		}

		switch sheet.Choice(choice) {
		case sheet.ChoiceUseLocal, sheet.ChoiceKeepServer:
			choices[conflict.ID] = sheet.Choice(choice)
			log.Infof("User chose %s for row %s", choice, conflict.ID)
		default:
			return nil, fmt.Errorf("unexpected choice: %s", choice)
		}
	}

	log.Info("All conflicts resolved by user")
	return choices, nil
}
