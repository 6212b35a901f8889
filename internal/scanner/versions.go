package scanner

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aquasecurity/go-version/pkg/version"
)

// Version orderings accepted by NewComparator.
const (
	OrderLexicographic = "lexicographic"
	OrderSemantic      = "semantic"
)

// VersionComparator orders two version strings: negative when a < b, zero when equal.
type VersionComparator interface {
	Name() string
	Compare(a, b string) int
}

// NewComparator returns the ordering with the given name. An empty name selects lexicographic.
func NewComparator(name string) (VersionComparator, error) {
	switch strings.ToLower(name) {
	case "", OrderLexicographic:
		return Lexicographic{}, nil
	case OrderSemantic:
		return Semantic{}, nil
	default:
		return nil, fmt.Errorf("unknown version order %q (want %s or %s)", name, OrderLexicographic, OrderSemantic)
	}
}

// Lexicographic compares raw strings, so "1.10" sorts below "1.9".
type Lexicographic struct{}

func (Lexicographic) Name() string { return OrderLexicographic }

func (Lexicographic) Compare(a, b string) int { return strings.Compare(a, b) }

// releaseQualifiers mark plain releases in Maven version strings ("5.3.21.RELEASE", "4.1.0.Final")
var releaseQualifiers = []string{"RELEASE", "FINAL", "GA"}

// normalizeVersion drops release qualifiers and turns a dot-separated
// qualifier ("1.0.0.RC1") into a pre-release ("1.0.0-RC1").
func normalizeVersion(v string) string {
	upper := strings.ToUpper(v)
	for _, q := range releaseQualifiers {
		if strings.HasSuffix(upper, "."+q) || strings.HasSuffix(upper, "-"+q) {
			return v[:len(v)-len(q)-1]
		}
	}
	for i := 1; i < len(v); i++ {
		if v[i-1] == '.' && unicode.IsLetter(rune(v[i])) {
			return v[:i-1] + "-" + v[i:]
		}
	}
	return v
}

// Semantic compares numeric components first; a release outranks any
// pre-release of the same number. Unparseable versions fall back to string
// comparison.
type Semantic struct{}

func (Semantic) Name() string { return OrderSemantic }

func (Semantic) Compare(a, b string) int {
	va, errA := version.Parse(normalizeVersion(a))
	vb, errB := version.Parse(normalizeVersion(b))
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

// Latest returns the greatest version under cmp, or "" for an empty list.
func Latest(cmp VersionComparator, versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if cmp.Compare(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}
