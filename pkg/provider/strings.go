package provider

import (
	"fmt"
	"regexp/syntax"
	"strings"
	"unicode/utf8"

	mathrand "math/rand/v2"
)

// String generates plain strings honoring pattern and length constraints.
// When both a pattern and a length bound are declared, a pattern-matching
// value is produced first and then padded or truncated to satisfy the
// length. Padding appends filler so the pattern's fixed prefix survives;
// truncation is the last resort when the sampled value exceeds MaxLength.
func String(req *Request) (any, error) {
	c := req.Summary.Constraints

	if c.Pattern != "" {
		sample, err := samplePattern(c.Pattern, req.Rand)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", c.Pattern, err)
		}
		return fitLength(sample, c.MinLength, c.MaxLength, req.Rand), nil
	}

	words := wordTable(req.Locale)
	n := 1 + req.Rand.IntN(3)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[req.Rand.IntN(len(words))]
	}
	return fitLength(strings.Join(parts, " "), c.MinLength, c.MaxLength, req.Rand), nil
}

const fillerChars = "abcdefghijklmnopqrstuvwxyz"

// fitLength pads or truncates s to satisfy optional length bounds. Bounds
// count runes; truncation never splits a multi-byte rune.
func fitLength(s string, minLen, maxLen *int, rng *mathrand.Rand) string {
	if minLen != nil {
		for utf8.RuneCountInString(s) < *minLen {
			s += string(fillerChars[rng.IntN(len(fillerChars))])
		}
	}
	if maxLen != nil {
		if runes := []rune(s); len(runes) > *maxLen {
			s = string(runes[:*maxLen])
		}
	}
	return s
}

// samplePattern produces a string matching the regular expression by walking
// its parsed syntax tree. Unbounded repetitions are capped at two extra
// iterations to keep samples short.
func samplePattern(pattern string, rng *mathrand.Rand) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	sampleRegexp(re.Simplify(), rng, &b)
	return b.String(), nil
}

const repeatSlack = 2

func sampleRegexp(re *syntax.Regexp, rng *mathrand.Rand, b *strings.Builder) {
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			b.WriteRune(r)
		}
	case syntax.OpCharClass:
		b.WriteRune(sampleCharClass(re.Rune, rng))
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		b.WriteByte(fillerChars[rng.IntN(len(fillerChars))])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			sampleRegexp(sub, rng, b)
		}
	case syntax.OpAlternate:
		sampleRegexp(re.Sub[rng.IntN(len(re.Sub))], rng, b)
	case syntax.OpCapture:
		sampleRegexp(re.Sub[0], rng, b)
	case syntax.OpStar:
		for i, n := 0, rng.IntN(repeatSlack+1); i < n; i++ {
			sampleRegexp(re.Sub[0], rng, b)
		}
	case syntax.OpPlus:
		for i, n := 0, 1+rng.IntN(repeatSlack); i < n; i++ {
			sampleRegexp(re.Sub[0], rng, b)
		}
	case syntax.OpQuest:
		if rng.IntN(2) == 0 {
			sampleRegexp(re.Sub[0], rng, b)
		}
	case syntax.OpRepeat:
		maxRep := re.Max
		if maxRep < 0 || maxRep > re.Min+repeatSlack {
			maxRep = re.Min + repeatSlack
		}
		n := re.Min
		if maxRep > re.Min {
			n += rng.IntN(maxRep - re.Min + 1)
		}
		for i := 0; i < n; i++ {
			sampleRegexp(re.Sub[0], rng, b)
		}
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Zero-width; nothing to emit.
	}
}

// sampleCharClass picks a rune from the class's [lo, hi] pairs, weighting
// each range by its size so dense ranges are not underrepresented.
func sampleCharClass(pairs []rune, rng *mathrand.Rand) rune {
	var total int64
	for i := 0; i < len(pairs); i += 2 {
		total += int64(pairs[i+1]-pairs[i]) + 1
	}
	if total <= 0 {
		return 'a'
	}
	pick := rng.Int64N(total)
	for i := 0; i < len(pairs); i += 2 {
		size := int64(pairs[i+1]-pairs[i]) + 1
		if pick < size {
			return pairs[i] + rune(pick)
		}
		pick -= size
	}
	return pairs[0]
}
