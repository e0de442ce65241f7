package rules

import (
	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/models"
	"github.com/notemover/notemover/internal/vault"
)

// Matcher decides a destination for a note. Both rule engines implement it;
// configuration selects which one runs.
type Matcher interface {
	// Destination returns the destination folder for the note, or ok=false
	// when no rule matches. It never fails: internal errors are no-match.
	Destination(note *models.Note) (string, bool)
}

// TreeAdapter exposes the legacy tree matcher as a Matcher, gathering the
// note's tags from the vault itself.
type TreeAdapter struct {
	matcher *TreeMatcher
	vault   vault.Vault
	logger  *events.Logger
	nodes   []*models.RuleNode
}

// NewTreeAdapter wraps a tree matcher and its rule tree.
func NewTreeAdapter(matcher *TreeMatcher, v vault.Vault, nodes []*models.RuleNode, logger *events.Logger) *TreeAdapter {
	return &TreeAdapter{
		matcher: matcher,
		vault:   v,
		logger:  logger.WithField("component", "tree_adapter"),
		nodes:   nodes,
	}
}

// Destination evaluates the legacy tree against the note's current tags.
func (a *TreeAdapter) Destination(note *models.Note) (string, bool) {
	tags, err := a.vault.ListTags(note.Path)
	if err != nil {
		a.logger.WithError(err).WithField("note", note.Path).Debug("Tag listing failed, no match")
		return "", false
	}

	matched := a.matcher.EvaluateRules(a.nodes, tags, note)
	if matched == nil {
		return "", false
	}
	return matched.Path, true
}
