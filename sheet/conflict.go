package sheet

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
)

// ConflictKind is how the server copy of a staged row moved since the baseline.
type ConflictKind string

const (
	ConflictServerModified ConflictKind = "server_modified" // staged locally, changed on the server
	ConflictServerDeleted  ConflictKind = "server_deleted"  // staged locally, gone from the server
)

// Conflict is a staged row whose server version no longer matches the baseline it
// was edited from.
type Conflict[R Row] struct {
	ID          string
	Kind        ConflictKind
	Staged      State // Updated or Deleted
	Local       R     // displayed version
	Server      R     // fresh server version, zero for ConflictServerDeleted
	Description string
}

// FindConflicts compares freshly fetched rows with the baseline of t and returns the
// staged updates and deletions whose server row changed or disappeared since then.
// Created rows cannot conflict: the server has never seen them.
func FindConflicts[R Row](t *Tracker[R], fresh []R, equal EqualFunc[R]) []Conflict[R] {
	baseline := indexByID(t.Baseline())
	server := indexByID(fresh)
	local := indexByID(t.Rows())

	var staged []string
	staged = append(staged, t.UpdatedIDs()...)
	staged = append(staged, t.DeletedIDs()...)
	sort.Strings(staged)

	var conflicts []Conflict[R]
	for _, id := range staged {
		base, ok := baseline[id]
		if !ok {
			continue
		}
		state := t.State(id)
		remote, exists := server[id]

		var c Conflict[R]
		switch {
		case !exists:
			c = Conflict[R]{
				ID:          id,
				Kind:        ConflictServerDeleted,
				Description: fmt.Sprintf("Row %s is staged as %s but was deleted on the server", id, state),
			}
		case !equal(base, remote):
			c = Conflict[R]{
				ID:          id,
				Kind:        ConflictServerModified,
				Server:      remote,
				Description: fmt.Sprintf("Row %s is staged as %s but was modified on the server", id, state),
			}
		default:
			continue
		}
		c.Staged = state
		c.Local = local[id]
		conflicts = append(conflicts, c)
		log.Debug("Identified conflict", "id", id, "kind", c.Kind, "staged", state)
	}
	return conflicts
}

// Choice is a resolution for one conflict.
type Choice string

const (
	ChoiceUseLocal   Choice = "use_local"   // keep the staged edit and overwrite the server
	ChoiceKeepServer Choice = "keep_server" // drop the staged edit
)

// ApplyResolutions reverts every row whose conflict was resolved in favour of the
// server. Conflicts without a choice keep their staged edit.
func ApplyResolutions[R Row](t *Tracker[R], conflicts []Conflict[R], choices map[string]Choice) {
	for _, c := range conflicts {
		choice, ok := choices[c.ID]
		if !ok {
			continue
		}
		switch choice {
		case ChoiceKeepServer:
			t.Revert(c.ID)
			log.Infof("Keeping server version of row %s", c.ID)
		case ChoiceUseLocal:
			log.Infof("Keeping staged %s of row %s", c.Staged, c.ID)
		default:
			log.Warnf("Ignoring unknown resolution %q for row %s", choice, c.ID)
		}
	}
}
