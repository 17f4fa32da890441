// Package prompt loads and renders the prompt templates used for commit
// message generation, change grouping, and changelog writing. Templates
// are plain text/template files; a project can override the embedded
// defaults by shipping its own .txt files.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// embeddedPrompts holds the default templates compiled into the binary.
//
//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// Loader loads and renders prompt templates by name.
type Loader struct {
	dirs    []string
	cache   map[string]*template.Template
	funcMap template.FuncMap
}

// NewLoader creates a loader for the given project directory. Templates are
// resolved in order:
// 1. .commitflow/prompts/ in the project
// 2. prompts/ in the project
// 3. Embedded defaults
func NewLoader(projectDir string) *Loader {
	return &Loader{
		dirs: []string{
			filepath.Join(projectDir, ".commitflow", "prompts"),
			filepath.Join(projectDir, "prompts"),
		},
		cache:   make(map[string]*template.Template),
		funcMap: defaultFuncMap(),
	}
}

// AddSearchDir prepends a directory to the template search path.
func (l *Loader) AddSearchDir(dir string) {
	l.dirs = append([]string{dir}, l.dirs...)
}

// AddFunc registers a custom template function.
func (l *Loader) AddFunc(name string, fn any) {
	l.funcMap[name] = fn
}

// Load returns a prompt by name without variable substitution.
func (l *Loader) Load(name string) (string, error) {
	return l.Render(name, nil)
}

// Render loads a prompt and substitutes the given variables.
func (l *Loader) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := l.getTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}

	return buf.String(), nil
}

// Exists reports whether a prompt with the given name can be resolved.
func (l *Loader) Exists(name string) bool {
	_, err := l.loadRaw(name)
	return err == nil
}

// getTemplate loads and caches a parsed template.
func (l *Loader) getTemplate(name string) (*template.Template, error) {
	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}

	content, err := l.loadRaw(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(l.funcMap).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}

	l.cache[name] = tmpl
	return tmpl, nil
}

// loadRaw returns a prompt's raw content, checking project overrides before
// the embedded defaults.
func (l *Loader) loadRaw(name string) (string, error) {
	filename := name + ".txt"

	for _, dir := range l.dirs {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err == nil {
			return string(data), nil
		}
	}

	data, err := embeddedPrompts.ReadFile("prompts/" + filename)
	if err != nil {
		return "", fmt.Errorf("prompt not found: %s", name)
	}

	return string(data), nil
}

// defaultFuncMap returns the template functions available to prompts.
func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":     strings.Join,
		"trim":     strings.TrimSpace,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    cases.Title(language.English).String,
		"contains": strings.Contains,
		"replace":  strings.ReplaceAll,
		"indent":   indentString,
		"default":  defaultValue,
		"quote":    quoteString,
	}
}

// indentString indents all non-empty lines of a string.
func indentString(indent int, s string) string {
	if s == "" {
		return s
	}
	prefix := strings.Repeat(" ", indent)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// defaultValue returns the default if value is empty.
func defaultValue(defaultVal, value any) any {
	if value == nil {
		return defaultVal
	}
	if s, ok := value.(string); ok && s == "" {
		return defaultVal
	}
	return value
}

func quoteString(s string) string {
	return fmt.Sprintf("%q", s)
}

// Builder helps assemble a prompt from markdown sections.
type Builder struct {
	parts []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends raw text.
func (b *Builder) Add(text string) *Builder {
	b.parts = append(b.parts, text)
	return b
}

// AddSection appends a markdown section with a header.
func (b *Builder) AddSection(header, content string) *Builder {
	b.parts = append(b.parts, fmt.Sprintf("## %s\n\n%s", header, content))
	return b
}

// AddDiff appends a file's diff wrapped in XML-style tags so the model can
// attribute hunks to paths.
func (b *Builder) AddDiff(path, diff string) *Builder {
	b.parts = append(b.parts, fmt.Sprintf("<diff path=%q>\n%s\n</diff>", path, diff))
	return b
}

// Build returns the assembled prompt.
func (b *Builder) Build() string {
	return strings.Join(b.parts, "\n\n")
}
