package classifier

import (
	"path/filepath"
	"strings"
)

// Classifier determines if artifact groups belong to the internal namespace
type Classifier struct {
	internalPatterns []string
}

// NewClassifier creates a new group classifier
func NewClassifier(internalPatterns []string) *Classifier {
	return &Classifier{
		internalPatterns: internalPatterns,
	}
}

// IsInternalGroup checks a group id against all internal patterns
func (c *Classifier) IsInternalGroup(groupID string) bool {
	if groupID == "" {
		return false
	}

	for _, pattern := range c.internalPatterns {
		if c.matchesPattern(groupID, pattern) {
			return true
		}
	}

	return false
}

// matchesPattern checks if a group id matches a given pattern
func (c *Classifier) matchesPattern(name, pattern string) bool {
	// Handle exact matches
	if name == pattern {
		return true
	}

	// Handle wildcard patterns
	if c.matchesWildcardPattern(name, pattern) {
		return true
	}

	// Handle prefix patterns
	if c.matchesPrefixPattern(name, pattern) {
		return true
	}

	// Handle suffix patterns
	if c.matchesSuffixPattern(name, pattern) {
		return true
	}

	// Handle contains patterns
	return c.matchesContainsPattern(name, pattern)
}

// matchesWildcardPattern checks if name matches a wildcard pattern such as "com.acme.*"
func (c *Classifier) matchesWildcardPattern(name, pattern string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return false
	}

	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}

// matchesPrefixPattern treats "com.acme." as the group com.acme and everything below it
func (c *Classifier) matchesPrefixPattern(name, pattern string) bool {
	if !strings.HasSuffix(pattern, ".") {
		return false
	}

	return strings.HasPrefix(name, pattern) || name == strings.TrimSuffix(pattern, ".")
}

// matchesSuffixPattern treats ".internal" as any group ending in that segment
func (c *Classifier) matchesSuffixPattern(name, pattern string) bool {
	if !strings.HasPrefix(pattern, ".") {
		return false
	}

	return strings.HasSuffix(name, pattern)
}

// matchesContainsPattern checks if name contains the pattern
func (c *Classifier) matchesContainsPattern(name, pattern string) bool {
	// Only match contains if pattern doesn't have special characters
	hasSpecialChars := strings.ContainsAny(pattern, "*?[") ||
		strings.HasSuffix(pattern, ".") ||
		strings.HasPrefix(pattern, ".")

	return pattern != "" && !hasSpecialChars && strings.Contains(name, pattern)
}
