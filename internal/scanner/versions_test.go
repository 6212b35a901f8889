package scanner_test

import (
	"mvnsrc-cli/internal/scanner"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComparator(t *testing.T) {
	t.Parallel()

	cmp, err := scanner.NewComparator("")
	require.NoError(t, err)
	assert.Equal(t, scanner.OrderLexicographic, cmp.Name())

	cmp, err = scanner.NewComparator("Semantic")
	require.NoError(t, err)
	assert.Equal(t, scanner.OrderSemantic, cmp.Name())

	_, err = scanner.NewComparator("calendar")
	require.Error(t, err)
}

func TestSemanticCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b     string
		expected int
	}{
		{"1.10", "1.9", 1},
		{"1.0.0", "1.0.0", 0},
		{"2.0.0-RC1", "2.0.0", -1},
		{"5.3.21.RELEASE", "5.3.21", 0},
		{"1.2.3-alpha", "1.2.3-beta", -1},
		{"v2", "1.9.9", 1},
		{"latest", "1.0", 1},
		{"4.1.0.Final", "4.1.0", 0},
		{"1.0.0.RC1", "1.0.0", -1},
		{"1.0.0.RC1", "1.0.0.RC2", -1},
		{"2.0-GA", "1.99", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, scanner.Semantic{}.Compare(tt.a, tt.b))
		})
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	versions := []string{"1.9", "1.10", "1.2"}
	assert.Equal(t, "1.9", scanner.Latest(scanner.Lexicographic{}, versions))
	assert.Equal(t, "1.10", scanner.Latest(scanner.Semantic{}, versions))
	assert.Empty(t, scanner.Latest(scanner.Lexicographic{}, nil))
}
