package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	insightsout "studylog/internal/modules/insights/port/out"
	"studylog/internal/platform/markdown"
	"studylog/internal/platform/slug"
)

// FileNoteStore writes one markdown note per study day under
// <notesDir>/YYYY/MM/. Re-exporting a day overwrites its note.
type FileNoteStore struct {
	notesDir string
}

func NewFileNoteStore(notesDir string) insightsout.NoteStore {
	return &FileNoteStore{notesDir: notesDir}
}

func (s *FileNoteStore) WriteDailyNote(_ context.Context, note insightsout.DailyNote) (string, error) {
	parts := strings.SplitN(note.Date, "-", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("bad study-day key %q", note.Date)
	}
	dir := filepath.Join(s.notesDir, parts[0], parts[1])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create notes dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.md", parts[2], slug.Make("study log"))
	path := filepath.Join(dir, name)

	meta := map[string]any{
		"date":           note.Date,
		"duration_ms":    note.DurationMS,
		"question_count": note.QuestionCount,
		"session_count":  note.SessionCount,
	}
	body := renderBody(note)
	content, err := markdown.RenderFrontmatter(meta, body)
	if err != nil {
		return "", fmt.Errorf("render daily note: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write daily note: %w", err)
	}
	return path, nil
}

func renderBody(note insightsout.DailyNote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Study log %s\n\n", note.Date)
	if len(note.SubjectLines) == 0 {
		b.WriteString("No study recorded.\n")
		return b.String()
	}
	for _, line := range note.SubjectLines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
