package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semenums/config"
	"github.com/c360studio/semenums/enum"
)

const defaultDebounceDelay = 500 * time.Millisecond

// FileLoader reads the catalog from files under a directory. Each matched
// file holds a catalog document in JSON, YAML or TOML; the documents are
// merged into one catalog.
type FileLoader struct {
	dir      string
	fsys     fs.FS
	patterns []string
	debounce time.Duration
	target   Target
	logger   *slog.Logger
	metrics  *Metrics
}

// NewFileLoader creates a loader for the files matched by cfg.Patterns
// under cfg.Dir.
func NewFileLoader(cfg config.FilesConfig, target Target, opts ...Option) (*FileLoader, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("files dir is required")
	}
	if target == nil {
		return nil, fmt.Errorf("target is required")
	}
	if len(cfg.Patterns) == 0 {
		return nil, fmt.Errorf("at least one file pattern is required")
	}
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid file pattern %q", p)
		}
	}
	o := buildOptions(opts)

	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = defaultDebounceDelay
	}

	return &FileLoader{
		dir:      cfg.Dir,
		fsys:     os.DirFS(cfg.Dir),
		patterns: slices.Clone(cfg.Patterns),
		debounce: debounce,
		target:   target,
		logger:   o.logger,
		metrics:  o.metrics,
	}, nil
}

// Load reads and merges all matched files and installs the result.
func (l *FileLoader) Load(ctx context.Context) error {
	start := time.Now()
	catalog, files, err := l.read(ctx)
	l.metrics.observe(SourceFile, time.Since(start), catalog, err)
	if err != nil {
		l.logger.Warn("Failed to load enum files", "dir", l.dir, "error", err)
		return err
	}

	l.target.SetCatalog(catalog)
	l.logger.Debug("Loaded enum files", "dir", l.dir, "files", len(files), "enums", len(catalog))
	return nil
}

// Files returns the paths, relative to the catalog directory, that the
// patterns currently match.
func (l *FileLoader) Files() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range l.patterns {
		matches, err := doublestar.Glob(l.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("match %q in %s: %w", pattern, l.dir, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func (l *FileLoader) read(ctx context.Context) (enum.Catalog, []string, error) {
	files, err := l.Files()
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w in %s matching %v", ErrNoCatalogFiles, l.dir, l.patterns)
	}

	catalog := make(enum.Catalog)
	origin := make(map[string]string)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		data, err := fs.ReadFile(l.fsys, name)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", name, err)
		}
		part, err := decodeCatalogFile(name, data)
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", name, err)
		}

		for enumName, values := range part {
			if prev, ok := origin[enumName]; ok {
				return nil, nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateEnum, enumName, prev, name)
			}
			origin[enumName] = name
			catalog[enumName] = values
		}
	}
	return catalog, files, nil
}

// decodeCatalogFile decodes one catalog document by file extension.
func decodeCatalogFile(name string, data []byte) (enum.Catalog, error) {
	var doc map[string]any
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json":
		return enum.ParseCatalog(data)
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog file type %q", ext)
	}
	return enum.CatalogFromMap(doc)
}

// matches reports whether rel, a slash-separated path relative to the
// catalog directory, is selected by any pattern.
func (l *FileLoader) matches(rel string) bool {
	for _, pattern := range l.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
