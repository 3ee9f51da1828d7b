// Package template renders stored SQL query templates by placeholder
// substitution and optionally keeps an audit copy of every rendered query.
package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/Aranil/dbflow/internal/logger"
)

// Extension is the file extension of query templates
const Extension = ".sql"

var (
	// ErrTemplateNotFound is returned when a template file does not exist
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidName is returned for a template name that is not a plain file name
	ErrInvalidName = errors.New("invalid template name")
)

// NotFoundError names the missing template and what is available instead
type NotFoundError struct {
	Name      string
	Dir       string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("template %s not found in %s (no templates available)", e.Name, e.Dir)
	}
	return fmt.Sprintf("template %s not found in %s, available: %s", e.Name, e.Dir, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrTemplateNotFound
}

// Renderer loads templates from dir and writes rendered copies to auditDir
type Renderer struct {
	fs       afero.Fs
	dir      string
	auditDir string
}

// NewRenderer creates a renderer over fs
func NewRenderer(fs afero.Fs, dir, auditDir string) *Renderer {
	return &Renderer{fs: fs, dir: dir, auditDir: auditDir}
}

// Dir returns the template directory
func (r *Renderer) Dir() string {
	return r.dir
}

// Available lists the template files in the template directory
func (r *Renderer) Available() ([]string, error) {
	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Render reads the template name, replaces every occurrence of each
// placeholder and, when persist is set, writes the result to the audit
// directory under the same name.
func (r *Renderer) Render(name string, replacements map[string]string, persist bool) (string, error) {
	log := logger.Template().WithField("template", name)

	if err := validateName(name); err != nil {
		return "", err
	}

	path := filepath.Join(r.dir, name)
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to read template %s: %w", name, err)
		}
		available, listErr := r.Available()
		if listErr != nil {
			log.Warn("Failed to list templates", "error", listErr)
		}
		return "", &NotFoundError{Name: name, Dir: r.dir, Available: available}
	}

	rendered := Substitute(string(data), replacements)

	if persist {
		if err := r.persist(name, rendered); err != nil {
			return "", err
		}
	}

	log.Debug("Rendered template", "placeholders", len(replacements), "persisted", persist)
	return rendered, nil
}

// validateName accepts only a single path element, so neither the template
// nor its audit copy can leave its directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name || filepath.IsAbs(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (r *Renderer) persist(name, rendered string) error {
	if err := r.fs.MkdirAll(r.auditDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", r.auditDir, err)
	}

	path := filepath.Join(r.auditDir, name)
	if err := afero.WriteFile(r.fs, path, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write rendered query: %w", err)
	}

	logger.Template().Info("Wrote rendered query", "path", path)
	return nil
}

// Substitute replaces every placeholder in text. Longer placeholders are
// matched first so a placeholder that prefixes another does not clobber it.
// Replacement values are not scanned again.
func Substitute(text string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return text
	}

	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, replacements[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
