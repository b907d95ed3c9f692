package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studylog/internal/modules/insights/adapter/out"
	insightsout "studylog/internal/modules/insights/port/out"
	"studylog/internal/platform/markdown"
)

func TestWriteDailyNoteLayoutAndFrontmatter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := out.NewFileNoteStore(dir)

	path, err := store.WriteDailyNote(context.Background(), insightsout.DailyNote{
		Date:          "2026-03-14",
		DurationMS:    90 * 60 * 1000,
		QuestionCount: 12,
		SessionCount:  2,
		SubjectLines:  []string{"- Algebra: 1h 30m (12 questions)"},
	})
	if err != nil {
		t.Fatalf("write note: %v", err)
	}
	want := filepath.Join(dir, "2026", "03", "14-study-log.md")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	meta, body, err := markdown.SplitFrontmatter(string(payload))
	if err != nil {
		t.Fatalf("split frontmatter: %v", err)
	}
	if meta["date"] != "2026-03-14" {
		t.Fatalf("frontmatter date = %v", meta["date"])
	}
	if meta["question_count"] != 12 {
		t.Fatalf("frontmatter question_count = %v", meta["question_count"])
	}
	if !strings.Contains(body, "Algebra") {
		t.Fatalf("body missing subject line: %q", body)
	}
}

func TestWriteDailyNoteRejectsBadKey(t *testing.T) {
	t.Parallel()
	store := out.NewFileNoteStore(t.TempDir())
	if _, err := store.WriteDailyNote(context.Background(), insightsout.DailyNote{Date: "yesterday"}); err == nil {
		t.Fatal("malformed study-day key must be rejected")
	}
}
