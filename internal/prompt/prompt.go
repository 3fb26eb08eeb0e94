/*
PURPOSE:
  Loads and renders the judge rubric prompt.
  Templates are versioned and keyed by locale so scoring policy can change
  without a code change.

REQUIREMENTS:
  User-specified:
  - Substitute the question, reference answer, grading criteria and the
    generated answer into a fixed rubric.

  Implementation-discovered:
  - Substitution must be a single pass: a generated answer that happens to
    contain "{eval_aspect}" must not be expanded again.
  - Reports record which template (and which exact text) scored the run.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (evaluator), internal/cli (prompts command)
  - Uses: internal/assets

ERROR HANDLING:
  - ErrUnknownTemplate when a locale/version is not embedded.
  - ErrMissingPlaceholder when a template file lacks a placeholder.

IMPLEMENTATION RULES:
  - Templates are plain text with {input_text}, {output_text},
    {eval_aspect} and {pred} placeholders.

USAGE:
  tmpl, err := prompt.Builtin("ja", "v1")
  text := tmpl.Render(prompt.Fields{Input: q, Reference: a, Aspect: c, Answer: pred})

SELF-HEALING INSTRUCTIONS:
  - To add a locale, drop a file in internal/assets/prompts/<locale>/<version>.tmpl.

RELATED FILES:
  - internal/assets/assets.go
  - internal/engine/evaluator.go

MAINTENANCE:
  - Bump the version instead of editing a template in place.
*/

package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/daryltucker/judge-runner/internal/assets"
)

// Placeholders recognised in templates.
const (
	PlaceholderInput     = "{input_text}"
	PlaceholderReference = "{output_text}"
	PlaceholderAspect    = "{eval_aspect}"
	PlaceholderAnswer    = "{pred}"
)

var (
	ErrUnknownTemplate    = errors.New("unknown prompt template")
	ErrMissingPlaceholder = errors.New("prompt template is missing a placeholder")
)

const templateDir = "prompts"

// Fields are the values substituted into a template.
type Fields struct {
	Input     string
	Reference string
	Aspect    string
	Answer    string
}

// Template is a loaded rubric template.
type Template struct {
	id   string
	text string
}

// Builtin returns an embedded template.
func Builtin(locale, version string) (*Template, error) {
	name := path.Join(templateDir, locale, version+".tmpl")
	data, err := fs.ReadFile(assets.Prompts, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTemplate, locale, version)
	}
	return newTemplate(locale+"/"+version, string(data))
}

// FromFile loads a template from disk. Its ID is "file:<path>".
func FromFile(p string) (*Template, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template %s: %w", p, err)
	}
	return newTemplate("file:"+p, string(data))
}

// Load picks the file override when set, otherwise the embedded template.
func Load(locale, version, file string) (*Template, error) {
	if file != "" {
		return FromFile(file)
	}
	return Builtin(locale, version)
}

func newTemplate(id, text string) (*Template, error) {
	text = strings.TrimSuffix(text, "\n")
	for _, ph := range []string{PlaceholderInput, PlaceholderReference, PlaceholderAspect, PlaceholderAnswer} {
		if !strings.Contains(text, ph) {
			return nil, fmt.Errorf("%w: %s lacks %s", ErrMissingPlaceholder, id, ph)
		}
	}
	return &Template{id: id, text: text}, nil
}

// ID names the template, e.g. "ja/v1".
func (t *Template) ID() string { return t.id }

// Text returns the raw template.
func (t *Template) Text() string { return t.text }

// SHA256 is the hex digest of the raw template text.
func (t *Template) SHA256() string {
	sum := sha256.Sum256([]byte(t.text))
	return hex.EncodeToString(sum[:])
}

// Render substitutes every placeholder in one pass.
func (t *Template) Render(f Fields) string {
	r := strings.NewReplacer(
		PlaceholderInput, f.Input,
		PlaceholderReference, f.Reference,
		PlaceholderAspect, f.Aspect,
		PlaceholderAnswer, f.Answer,
	)
	return r.Replace(t.text)
}

// List returns the IDs of all embedded templates, sorted.
func List() ([]string, error) {
	var ids []string
	err := fs.WalkDir(assets.Prompts, templateDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" {
			return nil
		}
		rel := strings.TrimPrefix(p, templateDir+"/")
		ids = append(ids, strings.TrimSuffix(rel, ".tmpl"))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
