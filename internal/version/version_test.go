package version

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, v, c, b string) {
    t.Helper()
    origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
    t.Cleanup(func() {
        Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
    })
    Version, Commit, BuildTime = v, c, b
}

func TestString(t *testing.T) {
    withBuild(t, "1.2.3", "abc1234", "2025-03-10T09:00:00Z")

    assert.Equal(t, "1.2.3 (abc1234) built 2025-03-10T09:00:00Z", String())
    assert.Equal(t, "nsemirror/1.2.3", UserAgent())
}

func TestDefaultValues(t *testing.T) {
    assert.NotEmpty(t, Version)
    assert.NotEmpty(t, Commit)
    assert.NotEmpty(t, BuildTime)
}
