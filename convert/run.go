package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"bsmig/archive"
	"bsmig/config"
	"bsmig/differ"
	"bsmig/journal"
	"bsmig/migrate"
	"bsmig/state"
)

// StdinName as source selects stdin to stdout filter mode.
const StdinName = "-"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("run")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if err := applyFlags(cmd, env, log); err != nil {
		return err
	}
	// validate rule selection once instead of failing on every file
	if _, err := env.Migrator(); err != nil {
		return err
	}

	if src == StdinName {
		if cmd.Args().Len() > 1 {
			log.Warn("Reading from stdin, ignoring destination", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
		}
		return processStream(ctx, os.Stdin, os.Stdout, log)
	}

	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// applyFlags puts command line overrides on top of configuration.
func applyFlags(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) error {
	env.NoDirs, env.Overwrite, env.InPlace = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("inplace")

	if cmd.IsSet("changes") {
		format, err := config.ParseChangeLogFormat(cmd.String("changes"))
		if err != nil {
			return fmt.Errorf("unable to use requested change log format: %w", err)
		}
		env.Cfg.Output.Changes = format
	}
	if cmd.IsSet("diff") {
		env.Cfg.Output.Diff = cmd.Bool("diff")
	}
	if cmd.IsSet("coverage") {
		env.Cfg.Migration.Coverage = cmd.Bool("coverage")
	}
	if cmd.IsSet("rules") {
		env.Cfg.Migration.Rules = cmd.StringSlice("rules")
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		enc, err := ianaindex.IANA.Encoding(cp)
		if err != nil || enc == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			env.CodePage = enc
			n, _ := ianaindex.IANA.Name(enc)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}
	return nil
}

// process determines the input type (directory, archive with optional path
// inside, or single file) and processes it accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return processDir(ctx, head, dst, log)
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			inner := strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, inner, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			return nil
		}

		isMarkup, err := isMarkupFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if isMarkup && len(tail) == 0 {
			data, err := os.ReadFile(head)
			if err != nil {
				return fmt.Errorf("unable to read input: %w", err)
			}
			return processFile(ctx, data, filepath.Base(head), head, dst, log)
		}
		return fmt.Errorf("input was not recognized as markup (%s)", head)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// processDir walks directory tree finding markup files and archives and
// processes them. Failures are logged and collected, walking continues.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	var errs error
	count := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.IsDir() {
			if path != dir && path == dst {
				// do not migrate our own output
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
			}
			return nil
		}

		isMarkup, err := isMarkupFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isMarkup {
			log.Debug("Skipping file, not recognized as markup or archive", zap.String("file", path))
			return nil
		}

		count++
		data, err := os.ReadFile(path)
		if err == nil {
			err = processFile(ctx, data, rel, path, dst, log)
		}
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
		return nil
	})
	if err == nil && errs == nil && count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return multierr.Append(err, errs)
}

// processArchive migrates markup files inside archive located under pathIn.
// Output is placed under pathOut relative to destination.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	prefix := filepath.ToSlash(pathIn)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, "/") && !isMarkupName(prefix) {
		prefix += "/"
	}

	var errs error
	count := 0

	err := archive.Walk(path, archive.Filter{Prefix: prefix, Match: isMarkupName, CodePage: env.CodePage}, func(arc string, m archive.Member) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		isMarkup, err := isMarkupInArchive(m.Name, m.File)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", m.Name), zap.Error(err))
			return nil
		}
		if !isMarkup {
			log.Debug("Skipping file, not recognized as markup", zap.String("archive", arc), zap.String("file", m.Name))
			return nil
		}

		count++
		data, err := readMember(m)
		if err == nil {
			err = processFile(ctx, data, filepath.Join(pathOut, filepath.FromSlash(m.Name)), "", dst, log)
		}
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", m.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", m.Name, err))
		}
		return nil
	})
	if err == nil && errs == nil && count == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return multierr.Append(err, errs)
}

func readMember(m archive.Member) ([]byte, error) {
	r, err := m.File.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// migration is a single run of the engine over one input.
type migration struct {
	runID    string
	source   string
	encoding string
	text     string
	started  time.Time
	kinds    []string
	res      *migrate.Result
}

func runMigration(env *state.LocalEnv, data []byte, src string, log *zap.Logger) (*migration, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate run id: %w", err)
	}
	mg := &migration{runID: id.String(), source: src, started: time.Now()}

	if mg.text, mg.encoding, err = decodeMarkup(data); err != nil {
		return nil, err
	}
	if mg.encoding != "utf-8" {
		log.Warn("Output is always UTF-8, charset declaration in markup may need update", zap.String("file", src), zap.String("encoding", mg.encoding))
	}

	m, err := env.Migrator(treeDump(env.Rpt, mg.runID)...)
	if err != nil {
		return nil, err
	}
	for _, rs := range m.Rules() {
		mg.kinds = append(mg.kinds, rs.Kind().String())
	}

	mg.res = m.Migrate(mg.text)
	for _, w := range mg.res.Warnings {
		log.Warn("Review migrated markup", zap.String("file", src), zap.String("warning", w))
	}
	for _, c := range mg.res.Changes {
		log.Debug("Change", zap.String("rule", c.Rule), zap.String("selector", c.Selector), zap.String("description", c.Description))
	}
	return mg, nil
}

func (mg *migration) failure() error {
	if mg.res.Success {
		return nil
	}
	return fmt.Errorf("unable to migrate %s: %s", mg.source, strings.Join(mg.res.Errors, "; "))
}

// record stores migration in journal when one is configured. Journal problems
// never fail the migration itself.
func (mg *migration) record(env *state.LocalEnv, dst string, log *zap.Logger) {
	if env.Journal == nil {
		return
	}
	e := journal.Entry{
		RunID:       mg.runID,
		Source:      mg.source,
		Destination: dst,
		Success:     mg.res.Success,
		Changes:     mg.res.Stats.TotalChanges,
		Affected:    mg.res.Stats.AffectedElements,
		Warnings:    len(mg.res.Warnings),
		Errors:      len(mg.res.Errors),
		Started:     mg.started,
		Elapsed:     time.Since(mg.started),
	}
	if err := env.Journal.Record(e, mg.res.Changes); err != nil {
		log.Warn("Unable to record migration in journal", zap.String("run", mg.runID), zap.Error(err))
	}
}

func treeDump(rpt *config.Report, runID string) []migrate.Option {
	if rpt == nil {
		return nil
	}
	return []migrate.Option{migrate.WithTreeDump(func(stage, tree string) {
		rpt.StoreData(fmt.Sprintf("tree-%s-%s.txt", runID, stage), []byte(tree))
	})}
}

// processFile migrates single markup document. "src" is part of the source
// path (always including file name) relative to the original path. When
// actual file was specified it will be just base file name. When looking
// inside archive or directory it will be relative path inside archive or
// directory. "origin" is the file on disk data came from, empty for archive
// members. "dst" is the destination directory.
func processFile(ctx context.Context, data []byte, src, origin, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Migration starting", zap.String("from", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Migration ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("migration panic: %v", r)
		} else if rerr == nil {
			log.Info("Migration completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	mg, err := runMigration(env, data, src, log)
	if err != nil {
		return err
	}
	env.Rpt.StoreData(fmt.Sprintf("source-%s%s", mg.runID, filepath.Ext(src)), data)

	if err := mg.failure(); err != nil {
		mg.record(env, "", log)
		return err
	}

	values := newValues(config.NameTemplateFieldName, src, mg.runID, mg.kinds, mg.res.Stats.TotalChanges, mg.started)
	outputName = buildOutputPath(src, dst, values, env)

	replacing := len(origin) > 0 && sameFile(outputName, origin)
	if replacing && !env.InPlace {
		return fmt.Errorf("output would replace source %s, use different destination, output extension or --inplace", origin)
	}

	err = writeOutput(outputName, env.Overwrite || replacing, log, func(w io.Writer) error {
		_, err := io.WriteString(w, mg.res.HTML)
		return err
	})
	if err != nil {
		return err
	}

	if format := env.Cfg.Output.Changes; format != config.ChangeLogFormatNone {
		cl := newChangeLog(mg.runID, src, outputName, mg.encoding, mg.started, mg.res)
		err := writeOutput(outputName+format.Ext(), env.Overwrite, log, func(w io.Writer) error {
			return writeChangeLog(w, format, cl)
		})
		if err != nil {
			return err
		}
	}

	if env.Cfg.Output.Diff {
		patch, err := differ.New(mg.text, mg.res.HTML, mg.res.Changes).Unified(filepath.ToSlash(src), filepath.Base(outputName), env.Cfg.Output.DiffContext)
		if err != nil {
			return err
		}
		if len(patch) > 0 {
			err = writeOutput(outputName+".diff", env.Overwrite, log, func(w io.Writer) error {
				_, err := io.WriteString(w, patch)
				return err
			})
			if err != nil {
				return err
			}
		}
	}

	mg.record(env, outputName, log)
	env.Rpt.Store(fmt.Sprintf("result-%s%s", mg.runID, filepath.Ext(outputName)), outputName)
	return nil
}

// processStream migrates markup read from r and writes result to w. Change
// details only go to the log.
func processStream(ctx context.Context, r io.Reader, w io.Writer, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read input: %w", err)
	}

	mg, err := runMigration(env, data, StdinName, log)
	if err != nil {
		return err
	}
	if err := mg.failure(); err != nil {
		mg.record(env, "", log)
		return err
	}
	if _, err := io.WriteString(w, mg.res.HTML); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	mg.record(env, StdinName, log)

	log.Info("Migration completed",
		zap.String("run", mg.runID),
		zap.Int("changes", mg.res.Stats.TotalChanges),
		zap.Int("affected", mg.res.Stats.AffectedElements),
		zap.Int("warnings", len(mg.res.Warnings)),
		zap.Int("errors", len(mg.res.Errors)))
	return nil
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// writeOutput creates file making missing directories. Existing files are
// only replaced when overwrite is requested.
func writeOutput(name string, overwrite bool, log *zap.Logger, fill func(io.Writer) error) (err error) {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := fill(f); err != nil {
		return fmt.Errorf("unable to write %s: %w", name, err)
	}
	return nil
}
