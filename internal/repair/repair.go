// Package repair fixes the damage machine translation does to MDX: component
// names translated into words, mangled placeholders, translated attribute
// names and fullwidth markup punctuation.
package repair

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/width"

	"docs-translator/internal/config"
	"docs-translator/internal/filewalker"
)

const translatedStepClose = "</步驟>"

var (
	stepTags = regexp.MustCompile(`<Steps?\b[^>]*>|</Steps?>|` + regexp.QuoteMeta(translatedStepClose))
	// Fullwidth heading, list and numbered-list markers at line start.
	fullwidthMarker = regexp.MustCompile(`(?m)^([ \t]*)(＃+|[－＊＋]|[０-９]+[．.])[ 　]`)
	// An attribute value wrapped in curly or fullwidth quotes.
	fullwidthAttr = regexp.MustCompile(`\b([A-Za-z][\w-]*)[=＝][“”＂「]([^“”＂」"\n]*)[“”＂」]`)
	// A description value the translator split with a stray quote: description: "a"s b".
	brokenDescription = regexp.MustCompile(`description: "([^"\n]*)"s ([^"\n]*)"`)
)

type caseFix struct {
	re *regexp.Regexp
	to string
}

// Repairer applies the repair tables to documents.
type Repairer struct {
	tags         *strings.Replacer
	text         *strings.Replacer
	attributes   *strings.Replacer
	placeholders *regexp.Regexp
	products     map[int]string
	caseFixes    []caseFix
}

// New compiles the repair tables.
func New(tables *config.Tables) (*Repairer, error) {
	r := &Repairer{
		tags:       replacer(tables.Repair.Tags),
		text:       replacer(tables.Repair.Text),
		attributes: replacer(tables.Repair.Attributes),
		products:   tables.Repair.Placeholders,
	}
	if len(r.products) == 0 {
		r.products = make(map[int]string, len(tables.ProductNames))
		for i, name := range tables.ProductNames {
			r.products[i] = name
		}
	}

	if len(tables.Repair.PlaceholderPrefixes) > 0 {
		quoted := make([]string, len(tables.Repair.PlaceholderPrefixes))
		for i, p := range tables.Repair.PlaceholderPrefixes {
			quoted[i] = regexp.QuoteMeta(p)
		}
		// The translator sometimes inserts spaces inside the placeholder.
		r.placeholders = regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)\s*(\d+)\s*__`)
	}

	for _, fix := range tables.Repair.CaseFixes {
		re, err := regexp.Compile(`(?i)` + fix.From)
		if err != nil {
			return nil, fmt.Errorf("compile case fix %q: %w", fix.From, err)
		}
		r.caseFixes = append(r.caseFixes, caseFix{re: re, to: fix.To})
	}
	return r, nil
}

func replacer(rows []config.Replacement) *strings.Replacer {
	var pairs []string
	for _, rep := range rows {
		if rep.From == "" || rep.From == translatedStepClose {
			continue
		}
		pairs = append(pairs, rep.From, rep.To)
	}
	return strings.NewReplacer(pairs...)
}

// Repair returns content with every fix applied. Applying it twice changes nothing more.
func (r *Repairer) Repair(content string) string {
	content = closeSteps(content)
	content = r.tags.Replace(content)

	if r.placeholders != nil {
		content = r.placeholders.ReplaceAllStringFunc(content, func(m string) string {
			sub := r.placeholders.FindStringSubmatch(m)
			n, err := strconv.Atoi(sub[1])
			if err != nil {
				return m
			}
			if name, ok := r.products[n]; ok {
				return name
			}
			return m
		})
	}

	content = r.prose(content)
	content = r.attributes.Replace(content)

	for _, fix := range r.caseFixes {
		content = fix.re.ReplaceAllString(content, fix.to)
	}

	content = fullwidthMarker.ReplaceAllStringFunc(content, func(m string) string {
		sub := fullwidthMarker.FindStringSubmatch(m)
		return sub[1] + width.Narrow.String(sub[2]) + " "
	})
	content = fullwidthAttr.ReplaceAllString(content, `${1}="${2}"`)
	content = brokenDescription.ReplaceAllString(content, `description: "${1} ${2}"`)
	return content
}

// prose applies the text rows to every line outside fenced code.
func (r *Repairer) prose(content string) string {
	lines := strings.Split(content, "\n")
	inCode := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			continue
		}
		if !inCode {
			lines[i] = r.text.Replace(line)
		}
	}
	return strings.Join(lines, "\n")
}

// closeSteps resolves translated closing tags of the Steps component: it
// closes whichever of <Steps> or <Step> is innermost at that point.
func closeSteps(content string) string {
	if !strings.Contains(content, translatedStepClose) {
		return content
	}

	var open []string
	return stepTags.ReplaceAllStringFunc(content, func(tag string) string {
		switch {
		case tag == translatedStepClose:
			name := "Step"
			if len(open) > 0 {
				name = open[len(open)-1]
				open = open[:len(open)-1]
			}
			return "</" + name + ">"
		case strings.HasPrefix(tag, "</"):
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		case strings.HasSuffix(tag, "/>"):
		default:
			name := "Step"
			if strings.HasPrefix(tag, "<Steps") {
				name = "Steps"
			}
			open = append(open, name)
		}
		return tag
	})
}

// RepairFile repairs one file in place and reports whether it changed.
func (r *Repairer) RepairFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}
	fixed := r.Repair(string(data))
	if fixed == string(data) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(fixed), 0o644); err != nil {
		return false, fmt.Errorf("write file: %w", err)
	}
	return true, nil
}

// Report counts the files of a repair run.
type Report struct {
	Total  int
	Fixed  int
	Failed int
}

// RepairTree repairs every file under root.
func (r *Repairer) RepairTree(ctx context.Context, walker *filewalker.Walker, root string) (Report, error) {
	var report Report
	entries, err := walker.Walk(root)
	if err != nil {
		return report, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Total++
		changed, err := r.RepairFile(e.Path)
		if err != nil {
			report.Failed++
			log.Error().Err(err).Str("file", e.Rel).Msg("Failed to repair file")
			continue
		}
		if changed {
			report.Fixed++
			log.Info().Str("file", e.Rel).Msg("Repaired file")
		}
	}
	return report, nil
}
