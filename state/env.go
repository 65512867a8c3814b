// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"bsmig/config"
	"bsmig/journal"
	"bsmig/migrate"
	"bsmig/rules"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg     *config.Config
	Rpt     *config.Report
	Log     *zap.Logger
	Journal *journal.Journal

	// used by migrate subcommand
	NoDirs    bool
	Overwrite bool
	InPlace   bool
	CodePage  encoding.Encoding

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Migrator builds migration engine according to current configuration.
func (e *LocalEnv) Migrator(opts ...migrate.Option) (*migrate.Migrator, error) {
	var base []migrate.Option
	if e.Cfg != nil {
		if names := e.Cfg.Migration.Rules; len(names) > 0 {
			kinds := make([]rules.ChangeType, 0, len(names))
			for _, name := range names {
				k, err := rules.ParseChangeType(name)
				if err != nil {
					return nil, fmt.Errorf("unable to select rule sets: %w", err)
				}
				kinds = append(kinds, k)
			}
			base = append(base, migrate.WithKinds(kinds...))
		}
		base = append(base, migrate.WithCoverage(e.Cfg.Migration.Coverage))
	}
	return migrate.New(e.Log, append(base, opts...)...), nil
}

// OpenJournal opens run journal when configuration asks for one.
func (e *LocalEnv) OpenJournal() error {
	if e.Journal != nil || e.Cfg == nil || len(e.Cfg.Journal.Destination) == 0 {
		return nil
	}
	j, err := journal.Open(e.Cfg.Journal.Destination, e.Log)
	if err != nil {
		return err
	}
	e.Journal = j
	e.Rpt.Store("journal.db", j.Path())
	return nil
}

// CloseJournal is safe to call when journal was never opened.
func (e *LocalEnv) CloseJournal() error {
	if e.Journal == nil {
		return nil
	}
	err := e.Journal.Close()
	e.Journal = nil
	return err
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
