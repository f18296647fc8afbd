package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
	assert.Equal(t, "0123456", Info{CommitHash: "0123456789abcdef"}.Short())
}

func TestString(t *testing.T) {
	i := Info{Version: "v1.2.0", CommitHash: "0123456789", BuildTime: "today", Platform: "linux/amd64"}
	assert.Equal(t, "arbor v1.2.0 (commit 0123456, built today, linux/amd64)", i.String())
}

func TestLogFieldsArePairs(t *testing.T) {
	fields := Get().LogFields()
	assert.Len(t, fields, 6)
	assert.Equal(t, "version", fields[0])
}
