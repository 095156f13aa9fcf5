// Package translation sends document segments to a machine-translation
// endpoint. The Translator never fails: when the endpoint cannot produce a
// translation the segment is logged and returned unchanged.
package translation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"docs-translator/internal/cache"
	"docs-translator/internal/config"
	"docs-translator/internal/mdx"
	"docs-translator/internal/protect"
	"docs-translator/internal/textutil"
)

// Options configures a Translator.
type Options struct {
	// Delay is the minimum spacing between endpoint calls. Zero disables pacing.
	Delay            time.Duration
	MaxSegmentLength int
	// Cache, when set, is consulted before every endpoint call.
	Cache cache.Cache
	// Eligible decides whether a text run between JSX tags is sent at all.
	// Defaults to "has a source script letter".
	Eligible func(string) bool
}

// Stats counts what a Translator did.
type Stats struct {
	Calls     int
	Failures  int
	CacheHits int
}

// Translator translates segments from one language to another.
type Translator struct {
	client   Client
	source   config.Language
	target   config.Language
	limiter  *rate.Limiter
	maxLen   int
	cache    cache.Cache
	markup   *protect.Protector
	eligible func(string) bool
	stats    Stats
}

func New(client Client, source, target config.Language, opts Options) *Translator {
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	eligible := opts.Eligible
	if eligible == nil {
		eligible = textutil.Script(source.Script).Has
	}
	return &Translator{
		client:   client,
		source:   source,
		target:   target,
		limiter:  rate.NewLimiter(limit, 1),
		maxLen:   opts.MaxSegmentLength,
		cache:    opts.Cache,
		markup:   protect.NewMarkup(),
		eligible: eligible,
	}
}

// Stats returns the counters accumulated so far.
func (t *Translator) Stats() Stats { return t.stats }

// Text translates one segment, keeping its surrounding whitespace and any
// inline markup. Long segments are chunked and translated in order.
func (t *Translator) Text(ctx context.Context, text string) string {
	lead, core, trail := splitSpace(text)
	if core == "" {
		return text
	}

	safe, mappings := t.markup.Protect(core)
	var out strings.Builder
	for _, chunk := range Chunk(safe, t.maxLen) {
		out.WriteString(t.chunk(ctx, chunk))
	}
	return lead + protect.Restore(out.String(), mappings) + trail
}

func (t *Translator) chunk(ctx context.Context, text string) string {
	lead, core, trail := splitSpace(text)
	if core == "" {
		return text
	}

	key := cache.Key{Source: t.source.APICode, Target: t.target.APICode, Text: core}
	if t.cache != nil {
		if v, ok := t.cache.Get(ctx, key); ok {
			t.stats.CacheHits++
			return lead + v + trail
		}
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return text
	}

	t.stats.Calls++
	translated, err := t.client.Translate(ctx, core, key.Source, key.Target)
	if err != nil {
		t.stats.Failures++
		log.Warn().Err(err).Str("text", textutil.Truncate(core, 60)).Msg("Translation failed, keeping original")
		return text
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, key, translated); err != nil {
			log.Warn().Err(err).Msg("Failed to cache translation")
		}
	}
	return lead + translated + trail
}

// Frontmatter translates the value of a "key: value" frontmatter line,
// keeping the key and its quote style.
func (t *Translator) Frontmatter(ctx context.Context, line string) string {
	f, ok := mdx.ParseFrontmatterLine(line)
	if !ok || f.Value == "" {
		return line
	}
	translated := t.Text(ctx, f.Value)
	if translated == f.Value {
		return line
	}

	switch f.Quote {
	case `"`:
		translated = strings.ReplaceAll(translated, `"`, `\"`)
	case "'":
		translated = strings.ReplaceAll(translated, "'", "''")
	}
	f.Value = translated
	_, _, trail := textutil.SplitIndent(line)
	return f.String() + trail
}

// Line translates a body line. Headings and list items keep their marker
// and indentation; text between tags is translated run by run with the tags
// left byte-identical. A line that translates to itself is returned as is.
func (t *Translator) Line(ctx context.Context, line string) string {
	l := mdx.SplitLine(line)

	var body string
	if l.Shape == mdx.JSX || mdx.HasTags(l.Body) {
		body = t.tagged(ctx, l.Body)
	} else {
		body = t.Text(ctx, l.Body)
	}
	if body == l.Body {
		return line
	}
	l.Body = body
	return l.String()
}

func (t *Translator) tagged(ctx context.Context, text string) string {
	var sb strings.Builder
	for _, p := range mdx.SplitTags(text) {
		if p.Tag || !t.eligible(p.Text) {
			sb.WriteString(p.Text)
			continue
		}
		sb.WriteString(t.Text(ctx, p.Text))
	}
	return sb.String()
}

func splitSpace(s string) (lead, core, trail string) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	lead = s[:len(s)-len(trimmed)]
	core = strings.TrimRight(trimmed, " \t\r\n")
	trail = trimmed[len(core):]
	return lead, core, trail
}
