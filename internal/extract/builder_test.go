package extract

import (
	"errors"
	"strings"
	"testing"
	"time"

	"mailclip/internal/domain"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func regulatoryBody(withDate bool) string {
	var b strings.Builder
	b.WriteString("〇気になるニュースピック\n洋上風力の入札制度が見直しへ\n---\n")
	if withDate {
		b.WriteString("発表日：2024-05-01\n")
	}
	b.WriteString("1．背景等\n再エネ比率の引き上げが求められている。\n")
	b.WriteString("2．具体的な取組\n入札上限価格の再設定を行う。\n")
	b.WriteString("3．今後に向けて\n年内に詳細設計を公表予定。\n")
	b.WriteString("■ESP制度情報配信サービスサイト\nhttps://example.com\n")
	return b.String()
}

func TestBuildRegulatoryMailWithDateToken(t *testing.T) {
	builder := NewBuilder(RegulatoryNewsProfile(), tokyo)
	msg := domain.RawMessage{
		ThreadID:   "t1",
		Subject:    "【制度情報:ニュース】洋上風力",
		Body:       regulatoryBody(true),
		ReceivedAt: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
		Permalink:  "https://mail.google.com/mail/u/0/#all/t1",
	}

	rec, err := builder.Build(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.PublishedDate != "2024-05-01" {
		t.Fatalf("expected in-body date, got %q", rec.PublishedDate)
	}
	if rec.LogicalKey != msg.Permalink {
		t.Fatalf("logical key must be the permalink, got %q", rec.LogicalKey)
	}
	want := map[string]string{
		"背景等":    "再エネ比率の引き上げが求められている。",
		"具体的な取組": "入札上限価格の再設定を行う。",
		"今後に向けて": "年内に詳細設計を公表予定。",
	}
	for _, section := range rec.Sections {
		expected, ok := want[section.Name]
		if !ok {
			continue
		}
		if section.Text != expected {
			t.Fatalf("section %s: got %q", section.Name, section.Text)
		}
		delete(want, section.Name)
	}
	if len(want) != 0 {
		t.Fatalf("missing sections: %v", want)
	}
}

func TestBuildFallsBackToReceivedDate(t *testing.T) {
	builder := NewBuilder(RegulatoryNewsProfile(), tokyo)
	// Received 23:30 UTC on the 1st is already the 2nd in JST; the
	// fallback must use the configured zone.
	msg := domain.RawMessage{
		Body:       regulatoryBody(false),
		ReceivedAt: time.Date(2024, 4, 1, 23, 30, 0, 0, time.UTC),
	}

	rec, err := builder.Build(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.PublishedDate != "2024-04-02" {
		t.Fatalf("expected JST fallback date, got %q", rec.PublishedDate)
	}
}

func TestBuildDailyNewsSectionsAndCompanies(t *testing.T) {
	body := "＜マーケティングインサイト＞\n鉄鋼需要が回復。日本製鉄とENEOSが増産。\n" +
		"＜マーケット情報＞\n原油価格は横ばい。ENEOS関連の話題。\n" +
		"＜ニュースクリップ＞\n特になし。\n" +
		"＜戦略ターゲット企業動向＞\nトヨタ自動車が新工場。\n" +
		"各情報についてのお問い合わせは…"
	builder := NewBuilder(DailyNewsProfile(), tokyo)
	msg := domain.RawMessage{
		Body:       body,
		ReceivedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, tokyo),
		Permalink:  "https://mail.google.com/mail/u/0/#all/t2",
	}

	rec, err := builder.Build(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantCompanies := []string{"日本製鉄", "トヨタ自動車", "ENEOS"}
	if len(rec.Companies) != len(wantCompanies) {
		t.Fatalf("expected %d companies, got %v", len(wantCompanies), rec.Companies)
	}
	for _, name := range wantCompanies {
		found := false
		for _, got := range rec.Companies {
			if got == name {
				found = true
			}
		}
		if !found {
			t.Fatalf("company %s not detected", name)
		}
	}
	if len(rec.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(rec.Sections))
	}
	if rec.Sections[0].Name != "インサイト" || !strings.Contains(rec.Sections[0].Text, "鉄鋼需要") {
		t.Fatalf("unexpected first section: %+v", rec.Sections[0])
	}
	if rec.PublishedDate != "2024-05-01" {
		t.Fatalf("expected received date title, got %q", rec.PublishedDate)
	}
}

func TestBuildMembershipDeterminism(t *testing.T) {
	body := "＜マーケティングインサイト＞ENEOSとENEOSと日本製鉄＜マーケット情報＞x＜ニュースクリップ＞x＜戦略ターゲット企業動向＞x各情報についての"
	builder := NewBuilder(DailyNewsProfile(), tokyo)
	msg := domain.RawMessage{Body: body, ReceivedAt: time.Now()}

	first, err := builder.Build(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := builder.Build(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Companies) != 2 {
		t.Fatalf("expected de-duplicated set of 2, got %v", first.Companies)
	}
	if len(first.Companies) != len(second.Companies) {
		t.Fatalf("non-deterministic membership scan: %v vs %v", first.Companies, second.Companies)
	}
	for i := range first.Companies {
		if first.Companies[i] != second.Companies[i] {
			t.Fatalf("non-deterministic order: %v vs %v", first.Companies, second.Companies)
		}
	}
}

func TestBuildEmptyBodyIsHardError(t *testing.T) {
	builder := NewBuilder(DailyNewsProfile(), tokyo)
	_, err := builder.Build(domain.RawMessage{Body: "   \n "})
	if !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestProfilesResolvesKnownNames(t *testing.T) {
	profiles, err := Profiles([]string{"daily-news", "regulatory-news"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 2 || profiles[0].Name != "daily-news" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}
	if _, err := Profiles([]string{"nope"}); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}
