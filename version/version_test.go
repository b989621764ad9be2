package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"untagged", "dev", "server dev (commit abcdef1, built now)"},
		{"v prefix", "v1.2.0", "server 1.2.0 (commit abcdef1, built now)"},
		{"short tag", "1.2", "server 1.2.0 (commit abcdef1, built now)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Info{CommitHash: "abcdef123456", BuildTime: "now", Version: tt.version}
			assert.Equal(t, tt.want, info.String("server"))
		})
	}
}

func TestShort(t *testing.T) {
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
	assert.Equal(t, "0123456", Info{CommitHash: "0123456789"}.Short())
}

func TestGoVersionSatisfies(t *testing.T) {
	tests := []struct {
		toolchain string
		required  string
		want      bool
	}{
		{"go1.24.6", "1.24.6", true},
		{"go1.25.0", "1.24.6", true},
		{"go1.23.4", "1.24.6", false},
		{"go1.24", "1.24.6", false},
		{"go1.25rc1", "1.24.6", true},
		{"devel go1.26-abcdef", "1.24.6", true},
	}
	for _, tt := range tests {
		t.Run(tt.toolchain, func(t *testing.T) {
			got, err := goVersionSatisfies(tt.toolchain, tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := goVersionSatisfies("go1.24.6", "not-a-version")
	assert.Error(t, err)
}
