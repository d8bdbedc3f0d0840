package yield

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Order labels follow
//
//	<5 digit code> - [descriptive words] <N>x<M>[x<P>]
//
// e.g. "12345 - Productivity Report 45x120". The descriptive part is free
// text; boilerplate phrases are removed from it before display.
var (
	orderKeyExp = regexp.MustCompile(`^\s*(\d{5})(?:\D|$)`)
	labelExp    = regexp.MustCompile(`^\s*(\d{5})\s*-\s*(?:(.*?)\s+)?(\d+[xX]\d+(?:[xX]\d+)?)(?:\s|$)`)
	spaceExp    = regexp.MustCompile(`\s+`)
	dimSepExp   = regexp.MustCompile(`\s*[xX×]\s*`)
)

var DefaultBoilerplate = []string{
	"Productivity Report",
	"Produktivitätsbericht",
	"Produktivitaetsbericht",
}

type Normalizer struct {
	boilerplate []*regexp.Regexp
}

// NewNormalizer returns a Normalizer removing the given phrases, or
// DefaultBoilerplate when none are given.
func NewNormalizer(phrases ...string) *Normalizer {
	if len(phrases) == 0 {
		phrases = DefaultBoilerplate
	}
	n := &Normalizer{}
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		words := strings.Fields(p)
		for i := range words {
			words[i] = regexp.QuoteMeta(words[i])
		}
		n.boilerplate = append(n.boilerplate, regexp.MustCompile(`(?i)`+strings.Join(words, `\s+`)))
	}
	return n
}

// OrderKey returns the leading five digit code of label.
func (n *Normalizer) OrderKey(label string) (OrderKey, bool) {
	m := orderKeyExp.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return OrderKey(m[1]), true
}

// CanonicalLabel strips boilerplate and redundant whitespace so that the
// daily variants of one order's label collapse into the same text.
func (n *Normalizer) CanonicalLabel(label string) string {
	if m := labelExp.FindStringSubmatch(label); m != nil {
		desc := n.strip(m[2])
		dims := strings.ToLower(m[3])
		if desc == "" {
			return m[1] + " - " + dims
		}
		return m[1] + " - " + desc + " " + dims
	}
	s := n.strip(label)
	s = strings.TrimRight(s, " -")
	return s
}

func (n *Normalizer) strip(s string) string {
	for _, exp := range n.boilerplate {
		s = exp.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(spaceExp.ReplaceAllString(s, " "))
}

// Normalize tags a raw record with its order key, label and class. The
// second return is false when the label carries no order key.
func (n *Normalizer) Normalize(raw RawRecord) (Record, bool) {
	key, ok := n.OrderKey(raw.OrderLabel)
	if !ok {
		return Record{RawRecord: raw}, false
	}
	raw.Dimension = strings.TrimSpace(raw.Dimension)
	return Record{
		RawRecord: raw,
		Key:       key,
		Label:     n.CanonicalLabel(raw.OrderLabel),
		Class:     Classify(raw),
	}, true
}

// DimensionKey normalizes a cross-section such as "75,00 x 95,00" to "75x95".
// Fractional measures are truncated, the way the reference tables are read.
func DimensionKey(s string) string {
	parts := dimSepExp.Split(strings.TrimSpace(s), -1)
	for i, p := range parts {
		parts[i] = measure(p)
	}
	return strings.Join(parts, "x")
}

func measure(s string) string {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	return strconv.FormatFloat(math.Trunc(f), 'f', -1, 64)
}
