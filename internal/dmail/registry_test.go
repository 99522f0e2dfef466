package dmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLookupIsCaseInsensitiveExactMatch(t *testing.T) {
	replacement := &stubHandler{name: "replacement"}
	fallback := &stubHandler{name: "fallback"}
	r := NewRegistry(fallback, replacement)

	for _, subject := range []string{"replacement", "Replacement", "REPLACEMENT", "rEpLaCeMeNt"} {
		h, ok := r.Lookup(subject)
		assert.True(t, ok, subject)
		assert.Same(t, replacement, h, subject)
	}

	for _, subject := range []string{"replacement ", " replacement", "replac", "replacements", ""} {
		h, ok := r.Lookup(subject)
		assert.False(t, ok, "%q must not match", subject)
		assert.Same(t, fallback, h, subject)
	}
}
