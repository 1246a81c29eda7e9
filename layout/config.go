package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-flexcell/export"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides read by FromEnv.
const (
	EnvChunkSize = "FLEXCELL_CHUNK_SIZE"
	EnvAuthor    = "FLEXCELL_AUTHOR"
	EnvTitle     = "FLEXCELL_TITLE"
	EnvSheet     = "FLEXCELL_SHEET"
)

// Config is a declarative sheet layout.
type Config struct {
	SheetName           string                   `json:"sheet" yaml:"sheet"`
	Headers             []string                 `json:"headers" yaml:"headers"`
	SubHeaders          map[string]string        `json:"sub_headers" yaml:"sub_headers"`
	Mapping             Mapping                  `json:"mapping" yaml:"mapping"`
	Hiddens             []string                 `json:"hiddens" yaml:"hiddens"`
	Formatters          map[string]string        `json:"formatters" yaml:"formatters"`
	ColumnMerges        []export.ColumnMergeRule `json:"column_merges" yaml:"column_merges"`
	RowMerges           []export.RowMergeRule    `json:"row_merges" yaml:"row_merges"`
	MergeRowsOn         []string                 `json:"merge_rows_on" yaml:"merge_rows_on"`
	Meta                export.MetaSettings      `json:"meta" yaml:"meta"`
	ChunkSize           int                      `json:"chunk_size" yaml:"chunk_size"`
	AppendMode          bool                     `json:"append" yaml:"append"`
	SkipUnlistedHeaders bool                     `json:"skip_unlisted_headers" yaml:"skip_unlisted_headers"`
	FreezeHeader        bool                     `json:"freeze_header" yaml:"freeze_header"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		SheetName:    "Sheet1",
		ChunkSize:    1000,
		FreezeHeader: true,
	}
}

// Load reads a layout file on top of Defaults. Files ending in .json are
// decoded as JSON; everything else as YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, export.NewError(export.KindNotFound, fmt.Sprintf("layout %q not found", path), err)
		}
		return Config{}, export.NewError(export.KindInternal, "read layout", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return Parse(data, "json")
	}
	return Parse(data, "yaml")
}

// Parse decodes layout data in the given format ("json" or "yaml").
func Parse(data []byte, format string) (Config, error) {
	cfg := Defaults()
	var err error
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &cfg)
	case "yaml", "yml", "":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, export.NewError(export.KindValidation, fmt.Sprintf("unsupported layout format %q", format), nil)
	}
	if err != nil {
		return Config{}, export.NewError(export.KindValidation, "decode layout", err)
	}
	return cfg, nil
}

// FromEnv loads the given .env files (default ".env"), skipping missing ones,
// and applies FLEXCELL_* overrides. Variables already set in the process win
// over .env values.
func FromEnv(cfg Config, files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return cfg, export.NewError(export.KindValidation, fmt.Sprintf("load env file %q", file), err)
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvChunkSize)); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, export.NewError(export.KindValidation, EnvChunkSize+" must be an integer", err)
		}
		cfg.ChunkSize = size
	}
	if v := os.Getenv(EnvAuthor); v != "" {
		cfg.Meta.Author = v
	}
	if v := os.Getenv(EnvTitle); v != "" {
		cfg.Meta.Title = v
	}
	if v := os.Getenv(EnvSheet); v != "" {
		cfg.SheetName = v
	}
	return cfg, nil
}

// Apply copies the layout onto an exporter and returns it.
func (c Config) Apply(e *export.Exporter) *export.Exporter {
	formatters := make(map[string]any, len(c.Formatters))
	for key, name := range c.Formatters {
		formatters[key] = name
	}
	e.SetSheetName(c.SheetName).
		SetHeaders(c.Headers).
		SetSubHeaders(c.SubHeaders).
		SetMapping(export.Mapping(c.Mapping)).
		SetHiddens(c.Hiddens).
		SetFormatters(formatters).
		SetColumnMergeRules(c.ColumnMerges).
		SetRowMergeRules(c.RowMerges).
		MergeRowsOn(c.MergeRowsOn...).
		SetMetaSettings(c.Meta).
		SetChunkSize(c.ChunkSize).
		SetAppendMode(c.AppendMode).
		SetSkipUnlistedHeaders(c.SkipUnlistedHeaders).
		SetFreezeHeader(c.FreezeHeader)
	return e
}

// Validate reports layout errors. Merge rules are checked against the mapping
// only when one is declared.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return export.NewError(export.KindValidation, fmt.Sprintf("chunk_size must be positive, got %d", c.ChunkSize), nil)
	}
	if len(c.Mapping) == 0 {
		if len(c.ColumnMerges) > 0 || len(c.RowMerges) > 0 || len(c.MergeRowsOn) > 0 {
			return export.NewError(export.KindValidation, "merge rules require a mapping", nil)
		}
		return nil
	}
	return c.Apply(export.New()).Validate()
}

// Mapping is an ordered field to label mapping. In YAML and JSON it is either
// an object (keys in document order) or a list of {key, label} entries.
type Mapping export.Mapping

// UnmarshalYAML keeps the document order of object keys.
func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Mapping, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("mapping %q: label must be a string (line %d)", key.Value, value.Line)
			}
			out = append(out, export.Field{Key: key.Value, Label: value.Value})
		}
		*m = out
		return nil
	case yaml.SequenceNode:
		var fields []export.Field
		if err := node.Decode(&fields); err != nil {
			return err
		}
		*m = fields
		return nil
	default:
		return fmt.Errorf("mapping must be an object or a list (line %d)", node.Line)
	}
}

// UnmarshalJSON keeps the document order of object keys.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var fields []export.Field
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		*m = fields
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return errors.New("mapping must be an object or a list")
	}
	out := Mapping{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var label string
		if err := dec.Decode(&label); err != nil {
			return fmt.Errorf("mapping %q: %w", key, err)
		}
		out = append(out, export.Field{Key: key, Label: label})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}
