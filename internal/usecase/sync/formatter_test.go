package sync

import (
	"strings"
	"testing"

	"mailclip/internal/domain"
)

func TestFormatSummaryListsCreatedPages(t *testing.T) {
	report := domain.RunReport{Created: []domain.CreatedItem{
		{Title: "【制度情報:ニュース】入札制度", PageURL: "https://notion.so/p1"},
		{Title: "デイリーメールニュース配信", PageURL: "https://notion.so/p2"},
	}}

	text := FormatSummary(report)
	if !strings.Contains(text, "2件") {
		t.Fatalf("expected count in summary: %q", text)
	}
	for _, want := range []string{"入札制度", "https://notion.so/p1", "https://notion.so/p2"} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q: %q", want, text)
		}
	}
}

func TestFormatSummaryHandlesMissingTitle(t *testing.T) {
	report := domain.RunReport{Created: []domain.CreatedItem{{PageURL: "https://notion.so/p1"}}}
	text := FormatSummary(report)
	if !strings.Contains(text, "(件名なし)") {
		t.Fatalf("expected placeholder title: %q", text)
	}
}
