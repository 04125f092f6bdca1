package scanner

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/memgraph/memgraph/logger"
	"github.com/memgraph/memgraph/memerr"
	"github.com/memgraph/memgraph/pipeline"
	"github.com/memgraph/memgraph/scanner/lang"
	"github.com/memgraph/memgraph/schema"
	"github.com/pkg/errors"
)

// Scanner wires the mutation pipeline to the five-stage discover →
// incremental → parse → map → ingest pipeline described in spec.md §4.7.
type Scanner struct {
	Pipeline *pipeline.Pipeline
	Registry *schema.Registry
	Parsers  *lang.Registry
}

// New returns a Scanner with the built-in parser registry.
func New(p *pipeline.Pipeline, reg *schema.Registry) *Scanner {
	return &Scanner{Pipeline: p, Registry: reg, Parsers: lang.NewRegistry()}
}

// Scan runs one full pass: discover, incremental filtering, parse, map,
// and (unless DryRun) ingest. A remote target (detected by URL shape) is
// shallow-cloned first and the clone is unconditionally removed on exit.
func (s *Scanner) Scan(ctx context.Context, opts Options) (Result, error) {
	result := Result{DryRun: opts.DryRun, SkipCounts: map[SkipReason]int{}}

	root := opts.Target
	if isRemoteTarget(opts.Target) {
		dir, cleanup, err := shallowClone(ctx, opts.Target, opts.Remote)
		if err != nil {
			return result, err
		}
		defer cleanup()
		root = dir
	} else if info, err := os.Stat(opts.Target); err != nil || !info.IsDir() {
		return result, errors.Wrapf(memerr.Target, "scan target %q is not a directory", opts.Target)
	}

	files, err := discover(root, opts.Include, opts.Exclude)
	if err != nil {
		return result, err
	}
	result.FilesDiscovered = len(files)
	filesScannedTotal.Add(float64(len(files)))

	previous, err := loadFingerprints(root)
	if err != nil {
		return result, err
	}

	current := make(FingerprintStore, len(files))
	for _, f := range files {
		current[f.relativePath] = FileFingerprint{Hash: f.hash, Size: f.size, ModTime: f.modTime}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			result.FilesRemoved++
		}
	}

	languageFilter := toSet(opts.Languages)
	start := time.Now()

	var mapped []mappedEntity
	for _, f := range files {
		if languageFilter != nil && !languageFilter[f.language] {
			result.FilesSkipped++
			result.SkipCounts[SkipUnparseable]++
			continue
		}

		prior, hadPrior := previous[f.relativePath]
		if hadPrior && prior.Hash == f.hash {
			result.FilesSkipped++
			result.SkipCounts[SkipUnchanged]++
			continue
		}

		parser := s.Parsers.For(f.language)
		artifacts, parseErr := parser.Parse(f.relativePath, f.content)
		if parseErr != nil {
			result.SkipCounts[SkipParseError]++
			logger.Warn("scanner: parse error in %s: %v", f.relativePath, parseErr)
			continue
		}
		result.FilesParsed++

		for _, a := range artifacts {
			raw := RawArtifact{
				Kind: ArtifactKind(a.Kind), Name: a.Name, FilePath: a.FilePath,
				Language: a.Language, Meta: a.Meta, Refs: convertRefs(a.Refs),
			}
			me, ok := applyMapping(opts.Mappings, raw)
			if !ok || !s.Registry.HasLabel(me.label) {
				result.EntitiesUnmapped++
				continue
			}
			mapped = append(mapped, me)
		}
	}

	ingest(ctx, s.Pipeline, root, mapped, opts.Actor, opts.DryRun, &result)
	entitiesUpsertedTotal.Add(float64(result.EntitiesUpserted))
	scanDuration.Observe(time.Since(start).Seconds())

	if !opts.DryRun {
		if err := saveFingerprints(root, current); err != nil {
			return result, err
		}
	}

	return result, nil
}

func convertRefs(refs []lang.Ref) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		out = append(out, Ref{Kind: RefKind(r.Kind), Target: r.Target})
	}
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

// isRemoteTarget reports whether target names a remote repository URL
// rather than a local filesystem path.
func isRemoteTarget(target string) bool {
	return strings.Contains(target, "://") || strings.HasPrefix(target, "git@")
}
