package reportgen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
)

// Generator fills templates of one document format with data.
// A Generator must not be used by two calls at the same time.
type Generator struct {
	backend        Backend
	config         *Config
	logger         *Logger
	language       *language.Tag
	fieldLanguages map[PropertyID]language.Tag
	cache          *SourceCache
}

// Option configures a Generator
type Option func(*Generator)

// WithConfig sets the configuration used for parsing and formatting
func WithConfig(config *Config) Option {
	return func(g *Generator) {
		g.config = NewConfigWithDefaults(config)
	}
}

// WithLogger sets the logger
func WithLogger(logger *Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithLanguage sets the language used to format values, overriding Config.Language
func WithLanguage(tag language.Tag) Option {
	return func(g *Generator) {
		g.language = &tag
	}
}

// WithFieldLanguages sets per-property formatting languages
func WithFieldLanguages(languages map[PropertyID]language.Tag) Option {
	return func(g *Generator) {
		g.fieldLanguages = languages
	}
}

// WithCache sets the cache used by GenerateFile to read templates
func WithCache(cache *SourceCache) Option {
	return func(g *Generator) {
		g.cache = cache
	}
}

// New creates a generator for the given backend
func New(backend Backend, opts ...Option) *Generator {
	g := &Generator{
		backend: backend,
		config:  GetGlobalConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = GetLogger()
	}
	return g
}

// Config returns the generator's configuration
func (g *Generator) Config() *Config {
	return g.config
}

// Generate fills template with data and writes the result to w. Nothing is written
// unless every template part was generated.
func (g *Generator) Generate(data DataSource, keys KeyMap, autoMap bool, template []byte, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverError(r)
		}
	}()

	out, err := g.run(data, keys, autoMap, template, true)
	if err != nil {
		return err
	}

	if _, err := w.Write(out); err != nil {
		return NewDocumentError("write", "", err)
	}
	return nil
}

// Validate parses every template part and checks its tags against the data source
// without generating output.
func (g *Generator) Validate(data DataSource, keys KeyMap, autoMap bool, template []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverError(r)
		}
	}()

	_, err = g.run(data, keys, autoMap, template, false)
	return err
}

// GenerateFile fills the template file and writes the result next to targetPath.
// The backend may adjust the target name; the final path is returned. A failed run
// leaves no file behind.
func (g *Generator) GenerateFile(data DataSource, keys KeyMap, autoMap bool, templatePath, targetPath string) (string, error) {
	template, err := g.readTemplate(templatePath)
	if err != nil {
		return "", err
	}

	if namer, ok := g.backend.(TargetNamer); ok {
		targetPath = namer.TargetName(targetPath)
	}

	tmp, err := os.CreateTemp(filepath.Dir(targetPath), ".reportgen-*")
	if err != nil {
		return "", NewDocumentError("create", targetPath, err)
	}
	tmpName := tmp.Name()

	if err := g.Generate(data, keys, autoMap, template, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", NewDocumentError("write", targetPath, err)
	}
	if err := os.Rename(tmpName, targetPath); err != nil {
		os.Remove(tmpName)
		return "", NewDocumentError("rename", targetPath, err)
	}

	g.logger.WithFields(Fields{
		"template": templatePath,
		"target":   targetPath,
	}).Info("report generated")
	return targetPath, nil
}

func (g *Generator) readTemplate(path string) ([]byte, error) {
	if g.cache != nil {
		return g.cache.Load(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	return data, nil
}

func (g *Generator) run(data DataSource, keys KeyMap, autoMap bool, template []byte, fill bool) ([]byte, error) {
	if g.backend == nil {
		return nil, fmt.Errorf("no document backend")
	}
	if err := g.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	resolver, err := NewResolver(data, keys, autoMap)
	if err != nil {
		return nil, err
	}

	parts, err := g.backend.Unpack(template)
	if err != nil {
		return nil, err
	}

	if len(parts) == 0 {
		return g.process(Part{Data: template, Template: true}, data, resolver, fill)
	}

	for i := range parts {
		if !parts[i].Template {
			continue
		}
		out, err := g.process(parts[i], data, resolver, fill)
		if err != nil {
			return nil, WithContext(err, "generate", map[string]interface{}{"part": parts[i].Name})
		}
		if fill {
			parts[i].Data = out
		}
	}

	if !fill {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := g.backend.Pack(parts, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// process parses and fills one template part
func (g *Generator) process(part Part, data DataSource, resolver *Resolver, fill bool) ([]byte, error) {
	logger := g.logger.WithField("part", part.Name)

	doc, err := g.backend.Open(part)
	if err != nil {
		return nil, err
	}

	if preparer, ok := g.backend.(TreePreparer); ok {
		if err := preparer.Prepare(doc.Root()); err != nil {
			return nil, err
		}
	}

	blocks, err := newParser(g.backend, resolver, g.config, logger).Parse(doc.Root())
	if err != nil {
		return nil, err
	}
	logger.DebugBlocks(part.Name, blocks)

	if !fill {
		return nil, nil
	}

	f := &filler{
		backend: g.backend,
		source:  data,
		format:  newFormatter(g.languageTag(), g.fieldLanguages, g.config.DateFormat),
		logger:  logger,
	}
	if err := f.Fill(blocks); err != nil {
		return nil, err
	}

	return g.backend.Save(doc)
}

func (g *Generator) languageTag() language.Tag {
	if g.language != nil {
		return *g.language
	}
	return g.config.LanguageTag()
}
