package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carldaws/poly/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	got := version.String()
	assert.Contains(t, got, "poly "+version.GetVersion())
	assert.Contains(t, got, version.GoVersion)
	assert.NotEmpty(t, version.Revision)
}
