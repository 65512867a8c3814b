// Package migrate runs rule sets over a markup fragment and assembles the
// migration result.
package migrate

import (
	"fmt"
	"runtime/debug"
	"slices"

	"go.uber.org/zap"

	"bsmig/markup"
	"bsmig/rules"
)

// Migrator is safe for concurrent use, every call to Migrate works on its own
// tree and change log.
type Migrator struct {
	log      *zap.Logger
	parser   *markup.Parser
	sets     []rules.RuleSet
	coverage bool
	dump     func(stage, tree string)
}

// Option configures Migrator.
type Option func(*Migrator)

// WithRules replaces the rule sets, they are always run in priority order.
func WithRules(sets ...rules.RuleSet) Option {
	return func(m *Migrator) {
		m.sets = rules.Sorted(sets)
	}
}

// WithKinds restricts default rule sets to the requested change types.
// Unknown names are ignored, validate them with rules.Select beforehand.
func WithKinds(kinds ...rules.ChangeType) Option {
	return func(m *Migrator) {
		m.sets = slices.DeleteFunc(rules.Default(), func(rs rules.RuleSet) bool {
			return !slices.Contains(kinds, rs.Kind())
		})
	}
}

// WithCoverage enables legacy vocabulary coverage statistics.
func WithCoverage(on bool) Option {
	return func(m *Migrator) {
		m.coverage = on
	}
}

// WithTreeDump calls fn with textual dump of the element tree right after
// parsing (stage "parsed") and after all rule sets ran (stage "migrated").
// fn may be called concurrently when Migrator is shared.
func WithTreeDump(fn func(stage, tree string)) Option {
	return func(m *Migrator) {
		m.dump = fn
	}
}

// New creates migrator with default rule sets unless options say otherwise.
func New(log *zap.Logger, opts ...Option) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Migrator{
		log:  log.Named("migrate"),
		sets: rules.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.parser = markup.NewParser(m.log)
	return m
}

// Rules returns rule sets in the order they are applied.
func (m *Migrator) Rules() []rules.RuleSet {
	return slices.Clone(m.sets)
}

// Migrate converts src. Parse failure results in unsuccessful result carrying
// original text, rule set faults are reported in Errors and do not stop
// remaining rule sets.
func (m *Migrator) Migrate(src string) *Result {
	res := &Result{OriginalHTML: src}

	doc, err := m.parser.Parse(src)
	if err != nil {
		m.log.Debug("Unable to parse input", zap.Error(err))
		res.HTML = src
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Warnings = append(res.Warnings, doc.Warnings...)
	m.dumpTree("parsed", doc.Tree)

	var before []string
	if m.coverage {
		before = doc.Tree.LegacyTokens()
	}

	sink := &rules.Sink{}
	for _, rs := range m.sets {
		recorded := sink.Len()
		if err := m.apply(rs, doc.Tree, sink); err != nil {
			m.log.Warn("Rule set failed", zap.String("rule", rs.Name()), zap.Error(err))
			res.Errors = append(res.Errors, fmt.Sprintf("Error in %s: %s", rs.Name(), err.Error()))
		}
		m.log.Debug("Rule set applied", zap.String("rule", rs.Name()), zap.Int("changes", sink.Len()-recorded))
	}
	res.Changes = sink.Entries()
	m.dumpTree("migrated", doc.Tree)

	out, err := markup.Serialize(doc.Tree)
	if err != nil {
		m.log.Debug("Unable to serialize result", zap.Error(err))
		res.HTML = src
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Success = true
	res.HTML = out

	for _, c := range res.Changes {
		if len(c.Warning) > 0 {
			res.Warnings = append(res.Warnings, c.Warning)
		}
	}

	res.Stats = newStats(res.Changes)
	if m.coverage {
		res.Stats.Coverage = newCoverage(before, doc.Tree.LegacyTokens())
	}
	return res
}

func (m *Migrator) dumpTree(stage string, tree *markup.Tree) {
	if m.dump != nil {
		m.dump(stage, tree.Dump())
	}
}

// apply isolates rule set faults, including panics.
func (m *Migrator) apply(rs rules.RuleSet, tree *markup.Tree, sink *rules.Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Debug("Recovered from panic", zap.String("rule", rs.Name()), zap.ByteString("stack", debug.Stack()))
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	return rs.Apply(tree, sink)
}
