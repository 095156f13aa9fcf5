package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Tables holds the lookup data that drives classification, protection and repair.
// Order is significant in every list: product names are protected in list order
// and repairs are applied top to bottom.
type Tables struct {
	ProductNames     []string      `yaml:"product_names"`
	FrontmatterKeys  []string      `yaml:"frontmatter_keys"`
	AttributeNames   []string      `yaml:"attribute_names"`
	InlineAttributes []string      `yaml:"inline_attributes"`
	CSSValues        []string      `yaml:"css_values"`
	ImageExtensions  []string      `yaml:"image_extensions"`
	ExcludedDirs     []string      `yaml:"excluded_dirs"`
	Languages        []Language    `yaml:"languages"`
	Repair           RepairTables  `yaml:"repair"`
	LLMs             LLMsTables    `yaml:"llms"`
}

// Language describes one language of the docs site.
type Language struct {
	// Code is the name used on the command line (en, zh-Hant, ja).
	Code string `yaml:"code"`
	// APICode is the code sent to the translation endpoint (zh-TW).
	APICode string `yaml:"api_code"`
	// Dir is the docs subdirectory holding this language; empty for the root tree.
	Dir string `yaml:"dir"`
	// Name is a display name.
	Name string `yaml:"name"`
	// Script names the writing system used to detect text in this language.
	Script string `yaml:"script"`
	// Markers are characters distinctive of this language among languages
	// sharing its script. Optional.
	Markers string `yaml:"markers"`
}

// Replacement is a literal (or, for case fixes, regexp) substitution.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// RepairTables drive the repairer. Within a list, earlier rows win when two
// rows match at the same position, so specific rows come before general ones.
type RepairTables struct {
	Tags []Replacement `yaml:"tags"`
	// Text rows are applied outside fenced code, before Attributes.
	Text       []Replacement `yaml:"text"`
	Attributes []Replacement `yaml:"attributes"`
	// Placeholders maps the index of a leftover placeholder to its product name.
	// Without it the index selects ProductNames[n].
	Placeholders        map[int]string `yaml:"placeholders"`
	PlaceholderPrefixes []string       `yaml:"placeholder_prefixes"`
	CaseFixes           []Replacement  `yaml:"case_fixes"`
}

type LLMsTables struct {
	// Include lists path prefixes, relative to a language tree, of the pages listed.
	Include []string `yaml:"include"`
	// Exclude lists extra directory names skipped when collecting pages.
	Exclude  []string      `yaml:"exclude"`
	Sections []LLMsSection `yaml:"sections"`
}

// LLMsSection is the header block of one language's llms.txt.
type LLMsSection struct {
	Lang    string `yaml:"lang"`
	Dir     string `yaml:"dir"`
	Title   string `yaml:"title"`
	Blurb   string `yaml:"blurb"`
	Heading string `yaml:"heading"`
	BOM     bool   `yaml:"bom"`
}

// LoadTables parses the tables file at path, or the embedded defaults when path is empty.
func LoadTables(path string) (*Tables, error) {
	data := defaultTables
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tables file: %w", err)
		}
		data = b
	}
	return ParseTables(data)
}

func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	return &t, nil
}

// Language resolves a code against the language table by Code, APICode or Dir.
// Unknown codes resolve to a Latin-script language living in a directory of the same name.
func (t *Tables) Language(code string) Language {
	for _, l := range t.Languages {
		if strings.EqualFold(l.Code, code) || strings.EqualFold(l.APICode, code) ||
			(l.Dir != "" && strings.EqualFold(l.Dir, code)) {
			return l
		}
	}
	return Language{Code: code, APICode: code, Dir: code, Name: code, Script: "latin"}
}
