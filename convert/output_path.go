package convert

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"bsmig/config"
	"bsmig/state"
)

// buildOutputPath returns output file path for source src (relative to the
// processed root, always including file name). It uses either default naming
// scheme or user-defined template and takes into account whether to preserve
// source directory structure on the output.
func buildOutputPath(src, dst string, values Values, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	ext := outputExtension(src, env)

	if env.Cfg.Output.NameTemplate == "" {
		return filepath.Join(outDir, buildDefaultFileName(src, env)+ext)
	}

	expandedName := expandOutputNameTemplate(values, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, buildDefaultFileName(src, env)+ext)
	}
	return assemblePathWithSubdirs(outDir, expandedName, ext, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func outputExtension(src string, env *state.LocalEnv) string {
	if ext := env.Cfg.Output.Extension; len(ext) > 0 {
		return ext
	}
	return filepath.Ext(src)
}

func buildDefaultFileName(src string, env *state.LocalEnv) string {
	return cleanPathSegment(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), env)
}

func expandOutputNameTemplate(values Values, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(config.NameTemplateFieldName, env.Cfg.Output.NameTemplate, values)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(strings.TrimSpace(expandedName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName, ext string, env *state.LocalEnv) string {
	segments := splitAndCleanPath(expandedName)
	if len(segments) == 0 {
		return filepath.Join(outDir, config.CleanFileName("")+ext)
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for _, segment := range segments[:len(segments)-1] {
		parts = append(parts, cleanPathSegment(segment, env))
	}
	parts = append(parts, cleanPathSegment(segments[len(segments)-1], env)+ext)
	return filepath.Join(parts...)
}

// splitAndCleanPath splits path into segments dropping empty, "." and ".."
// ones so template cannot point outside of output directory.
func splitAndCleanPath(path string) []string {
	segments := make([]string, 0, 8)
	for _, s := range strings.Split(filepath.ToSlash(path), "/") {
		if s != "" && s != "." && s != ".." {
			segments = append(segments, s)
		}
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Output.Transliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
