package ai

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArtifactFilename_Sanitized(t *testing.T) {
	day := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

	name := ArtifactFilename("Alice O'Brien-Smith", "1992-02-02", day)

	assert.Equal(t, "analysis_AliceOBrienSmith_19920202_20260828.txt", name)
}

func TestArtifactFilename_DeterministicPerDay(t *testing.T) {
	morning := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 28, 21, 0, 0, 0, time.UTC)

	// Same patient, same day: one primary artifact.
	assert.Equal(t,
		ArtifactFilename("Alice A", "1992-02-02", morning),
		ArtifactFilename("Alice A", "1992-02-02", evening))

	nextDay := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	assert.NotEqual(t,
		ArtifactFilename("Alice A", "1992-02-02", morning),
		ArtifactFilename("Alice A", "1992-02-02", nextDay))
}

func TestFileArchiver_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	archiver := NewFileArchiver(dir)
	archiver.now = func() time.Time {
		return time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	}

	analysis := &Analysis{
		Symptoms:       []string{"headache", "nausea"},
		PossibleCauses: []string{"migraine"},
	}

	filename, err := archiver.Archive("Alice A", "1992-02-02", "my head hurts since monday", analysis)
	assert.NoError(t, err)
	assert.Equal(t, "analysis_AliceA_19920202_20260828.txt", filename)

	content, err := os.ReadFile(filepath.Join(dir, filename))
	assert.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "Patient: Alice A")
	assert.Contains(t, text, "=== Patient Description ===")
	assert.Contains(t, text, "my head hurts since monday")
	assert.Contains(t, text, "- headache")
	assert.Contains(t, text, "- nausea")
	assert.Contains(t, text, "Possible Causes:")
	assert.Contains(t, text, "- migraine")
}

func TestFileArchiver_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "analysis")
	archiver := NewFileArchiver(dir)

	_, err := archiver.Archive("Bob B", "1980-01-01", "text", &Analysis{
		Symptoms:       []string{},
		PossibleCauses: []string{},
	})
	assert.NoError(t, err)

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}
