package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Archiver persists a human-readable artifact pairing the transcript with
// its extracted analysis, one primary artifact per patient per day.
type Archiver interface {
	Archive(patientName, dateOfBirth, text string, analysis *Analysis) (string, error)
}

// FileArchiver writes artifacts under a content directory. The returned
// filename is stored on the visit row; the file is written before that row
// commits so the database never references a missing artifact.
type FileArchiver struct {
	dir string
	now func() time.Time
}

// NewFileArchiver creates an archiver rooted at dir.
func NewFileArchiver(dir string) *FileArchiver {
	return &FileArchiver{dir: dir, now: time.Now}
}

// Archive implements Archiver.
func (a *FileArchiver) Archive(patientName, dateOfBirth, text string, analysis *Analysis) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create analysis dir: %w", err)
	}

	now := a.now()
	filename := ArtifactFilename(patientName, dateOfBirth, now)

	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s\n", patientName)
	fmt.Fprintf(&b, "Date of Birth: %s\n", dateOfBirth)
	fmt.Fprintf(&b, "Record Time: %s\n\n", now.Format("2006-01-02 15:04:05"))

	b.WriteString("=== Patient Description ===\n")
	fmt.Fprintf(&b, "%s\n\n", text)

	b.WriteString("=== Symptom Analysis ===\n")
	b.WriteString("Symptoms:\n")
	for _, symptom := range analysis.Symptoms {
		fmt.Fprintf(&b, "- %s\n", symptom)
	}
	b.WriteString("\nPossible Causes:\n")
	for _, cause := range analysis.PossibleCauses {
		fmt.Fprintf(&b, "- %s\n", cause)
	}

	if err := os.WriteFile(filepath.Join(a.dir, filename), []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write analysis file: %w", err)
	}
	return filename, nil
}

// ArtifactFilename builds the deterministic artifact name from a sanitized
// patient name, sanitized date of birth and the current date. Writing twice
// in one day overwrites the same primary artifact.
func ArtifactFilename(patientName, dateOfBirth string, now time.Time) string {
	return fmt.Sprintf("analysis_%s_%s_%s.txt",
		sanitize(patientName),
		sanitize(dateOfBirth),
		now.Format("20060102"))
}

func sanitize(value string) string {
	return nonAlphanumeric.ReplaceAllString(value, "")
}
