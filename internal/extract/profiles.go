package extract

import "fmt"

// Profile bundles everything one mail pipeline needs: the search query,
// the processed-state label, the extraction rule table, and how the store
// payload is shaped. Adding a mail format means adding a profile, not code.
type Profile struct {
	Name  string
	Query string
	Label string
	// Kind becomes the store's select property when non-empty.
	Kind string
	// TitleProperty names the rich_text property the mail subject is
	// stored under; empty omits it.
	TitleProperty string
	Rules         []FieldRule
	// AttachFullBody appends the whole body as chunked page content.
	AttachFullBody bool
}

// processedLabel marks threads already persisted to the store.
const processedLabel = "Notion連携済み"

// dailyNewsCompanies is the fixed vocabulary scanned for in daily digest
// bodies. Extending coverage is a list edit.
var dailyNewsCompanies = []string{
	"日本製鉄", "JFEスチール", "神戸製鋼", "三菱ケミカル", "住友化学",
	"三井化学", "東ソー", "トクヤマ", "旭化成", "丸善石油化学",
	"東燃ゼネラル石油", "JSR", "ダイセル", "富士フイルム", "東レ",
	"出光興産", "コスモ石油", "ENEOS", "富士石油", "東亜石油",
	"王子HD", "日本製紙", "大王製紙", "北越コーポレーション", "レンゴー",
	"太平洋セメント", "UBE三菱セメント", "住友大阪セメント", "東日本旅客鉄道",
	"豊田自動織機", "AGC", "トヨタ自動車", "さくらインターネット", "ソフトバンク",
	"NTTグローバルデータセンター", "関西電力", "サイラスワン", "三井不動産",
	"大和ハウス工業", "東急不動産", "住友商事", "Equinix", "Air Trunk",
	"Colt", "日本GLP", "Asia Pacific Land", "信越科学", "産業PAGGIP",
	"アジリティ・アセット・アドバイザ―ズ",
}

// DailyNewsProfile covers the daily mail news digest.
func DailyNewsProfile() Profile {
	return Profile{
		Name:  "daily-news",
		Query: `subject:"デイリーメールニュース配信" is:unread`,
		Label: processedLabel,
		Rules: []FieldRule{
			ScalarRule(FieldPublishedDate, "", DefaultReceivedDate),
			SectionRule("インサイト", "＜マーケティングインサイト＞", "＜マーケット情報＞"),
			SectionRule("マーケット情報", "＜マーケット情報＞", "＜ニュースクリップ＞"),
			SectionRule("ニュースクリップ", "＜ニュースクリップ＞", "＜戦略ターゲット企業動向＞"),
			SectionRule("戦略ターゲット企業動向", "＜戦略ターゲット企業動向＞", "各情報についての"),
			MembershipRule("登場企業", dailyNewsCompanies),
		},
	}
}

// RegulatoryNewsProfile covers the regulatory bulletin mails.
func RegulatoryNewsProfile() Profile {
	return Profile{
		Name:          "regulatory-news",
		Query:         `subject:"【制度情報:ニュース】" is:unread`,
		Label:         processedLabel,
		Kind:          "ESP",
		TitleProperty: "メールタイトル",
		Rules: []FieldRule{
			ScalarRule(FieldPublishedDate, "発表日：(.+)", DefaultReceivedDate),
			SectionRule("気になるニューストピック", "〇気になるニュースピック", "---"),
			SectionRule("背景等", "1．背景等", "2．具体的な取組"),
			SectionRule("具体的な取組", "2．具体的な取組", "3．今後に向けて"),
			SectionRule("今後に向けて", "3．今後に向けて", "■ESP制度情報配信サービスサイト"),
		},
		AttachFullBody: true,
	}
}

// Profiles resolves profile names to their definitions, preserving order.
func Profiles(names []string) ([]Profile, error) {
	all := map[string]func() Profile{
		"daily-news":      DailyNewsProfile,
		"regulatory-news": RegulatoryNewsProfile,
	}
	var out []Profile
	for _, name := range names {
		build, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", name)
		}
		out = append(out, build())
	}
	return out, nil
}
