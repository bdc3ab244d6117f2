package provider

import (
	"fmt"
	"strings"

	mathrand "math/rand/v2"

	"golang.org/x/text/language"
)

// Word tables keyed by base language. Locale tags narrow to their base
// language; unknown languages fall back to English.
var wordTables = map[string][]string{
	"en": {"alpha", "beta", "gamma", "delta", "epsilon", "omega", "sigma", "theta"},
	"de": {"apfel", "birne", "kirsche", "pflaume", "traube", "quitte", "beere", "nuss"},
	"fr": {"pomme", "poire", "cerise", "prune", "raisin", "coing", "baie", "noix"},
}

var firstNames = []string{"John", "Jane", "Alex", "Maria", "Sam", "Taylor", "Jordan", "Morgan"}
var lastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}
var emailDomains = []string{"example.com", "example.org", "example.net"}

// wordTable resolves the word list for a BCP 47 locale tag.
func wordTable(locale string) []string {
	tag, err := language.Parse(locale)
	if err != nil {
		return wordTables["en"]
	}
	base, _ := tag.Base()
	if table, ok := wordTables[base.String()]; ok {
		return table
	}
	return wordTables["en"]
}

func pick(rng *mathrand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

func digits(rng *mathrand.Rand, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + rng.IntN(10))
	}
	return string(buf)
}

func hexDigits(rng *mathrand.Rand, n int) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = hex[rng.IntN(16)]
	}
	return string(buf)
}

func slug(rng *mathrand.Rand, locale string) string {
	words := wordTable(locale)
	n := 2 + rng.IntN(2)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[rng.IntN(len(words))]
	}
	return strings.Join(parts, "-")
}

// Email produces a deterministic-looking address from the seeded stream.
func Email(req *Request) (any, error) {
	local := strings.ToLower(pick(req.Rand, firstNames)) + "." +
		strings.ToLower(pick(req.Rand, lastNames))
	return local + "@" + pick(req.Rand, emailDomains), nil
}

// URL produces an https URL with a slug path.
func URL(req *Request) (any, error) {
	return "https://example.com/" + slug(req.Rand, req.Locale), nil
}

// Hostname produces a word-prefixed example hostname.
func Hostname(req *Request) (any, error) {
	return pick(req.Rand, wordTable(req.Locale)) + ".example.com", nil
}

// IPv4 produces a dotted-quad address.
func IPv4(req *Request) (any, error) {
	return fmt.Sprintf("%d.%d.%d.%d",
		req.Rand.IntN(256), req.Rand.IntN(256), req.Rand.IntN(256), req.Rand.IntN(256)), nil
}

// IPv6 produces an address in the 2001:db8 documentation prefix.
func IPv6(req *Request) (any, error) {
	groups := make([]string, 6)
	for i := range groups {
		groups[i] = hexDigits(req.Rand, 4)
	}
	return "2001:db8:" + strings.Join(groups, ":"), nil
}

// Phone produces a +1-555 number.
func Phone(req *Request) (any, error) {
	return "+1-555-" + digits(req.Rand, 3) + "-" + digits(req.Rand, 4), nil
}

// Password produces a value satisfying common complexity rules.
func Password(req *Request) (any, error) {
	return "P@ss" + pick(req.Rand, wordTable(req.Locale)) + digits(req.Rand, 2) + "!", nil
}

// Secret mirrors Password for secret-wrapper fields; callers treat the value
// as opaque.
func Secret(req *Request) (any, error) {
	return "secret-" + hexDigits(req.Rand, 16), nil
}

// Slug produces a hyphenated word slug.
func Slug(req *Request) (any, error) {
	return slug(req.Rand, req.Locale), nil
}

// Name produces a "First Last" person name.
func Name(req *Request) (any, error) {
	return pick(req.Rand, firstNames) + " " + pick(req.Rand, lastNames), nil
}

// FilePath produces a filesystem path per the path policy.
func FilePath(req *Request) (any, error) {
	depth := req.Paths.Depth
	if depth <= 0 {
		depth = 2
	}
	words := wordTable(req.Locale)
	segments := make([]string, depth+1)
	for i := range segments {
		segments[i] = words[req.Rand.IntN(len(words))]
	}
	segments[depth] += ".txt"

	if req.Paths.Style == "windows" {
		return `C:\` + strings.Join(segments, `\`), nil
	}
	return "/" + strings.Join(segments, "/"), nil
}

// Bytes produces a short hex-encoded byte string.
func Bytes(req *Request) (any, error) {
	return hexDigits(req.Rand, 8), nil
}
