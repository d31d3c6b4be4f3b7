package reconcile

import (
	"fmt"

	"github.com/google/uuid"

	"notioncal/internal/model"
)

// OrphanPolicy decides what happens to events whose description does not
// name a fetched record.
type OrphanPolicy string

const (
	// OrphansDelete deletes every unmatched event, including events this
	// program never created. Only safe on a dedicated calendar.
	OrphansDelete OrphanPolicy = "delete"
	// OrphansManaged deletes unmatched events only when their description
	// is a Notion page id.
	OrphansManaged OrphanPolicy = "managed"
	// OrphansKeep never deletes.
	OrphansKeep OrphanPolicy = "keep"
)

// ParseOrphanPolicy validates s. Empty selects OrphansDelete.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(s); p {
	case "":
		return OrphansDelete, nil
	case OrphansDelete, OrphansManaged, OrphansKeep:
		return p, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q (want delete, managed or keep)", s)
}

// ParseDoneStyle validates s. Empty selects DoneMarker.
func ParseDoneStyle(s string) (DoneStyle, error) {
	switch d := DoneStyle(s); d {
	case "":
		return DoneMarker, nil
	case DoneMarker, DoneStrikethrough:
		return d, nil
	}
	return "", fmt.Errorf("unknown done style %q (want marker or strikethrough)", s)
}

func (p OrphanPolicy) deletes(ev model.TargetEvent) bool {
	switch p {
	case OrphansKeep:
		return false
	case OrphansManaged:
		return looksLikePageID(ev.Description)
	default:
		return true
	}
}

// looksLikePageID accepts Notion page ids in dashed or compact form.
func looksLikePageID(s string) bool {
	if len(s) != 36 && len(s) != 32 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
