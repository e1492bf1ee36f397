package sync

import (
	"fmt"
	"strings"

	"mailclip/internal/domain"
)

// FormatSummary renders the notification text for a run that created at
// least one page.
func FormatSummary(report domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "【メール連携】Notionに%d件のページを作成しました。\n", len(report.Created))
	for _, item := range report.Created {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "(件名なし)"
		}
		b.WriteString("\n*" + title + "*")
		if item.PageURL != "" {
			b.WriteString("\n▼ Notionで確認する\n" + item.PageURL)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
