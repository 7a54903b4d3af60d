package summarizer

import (
	"strings"

	"github.com/leofalp/sitesummarizer/providers/page"
)

// Summary length presets. Anything else is treated as LengthMedium.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// MinTextLength is the fewest characters of page text worth summarizing.
const MinTextLength = 80

// lengthGuide maps a preset to the target size written into the prompt.
func lengthGuide(length string) string {
	switch length {
	case LengthShort:
		return "200〜350字程度"
	case LengthLong:
		return "700〜1000字程度"
	default:
		return "400〜700字程度"
	}
}

// BuildPrompt renders the summarization instructions for p. The output is a
// pure function of its inputs.
func BuildPrompt(p page.Page, length string) string {
	return strings.Join([]string{
		"あなたはプロの編集者です。以下のWebページを日本語で要約してください。",
		"",
		"【出力要件】",
		"- 分量: " + lengthGuide(length),
		"- 構成: 1) 一言要約（1文） 2) 重要ポイント（箇条書き3〜6個） 3) 用語/背景（必要なら）",
		"- 宣伝文句は避け、事実と主張を分けて書く",
		"",
		"【ページ情報】",
		"タイトル: " + p.Title,
		"URL: " + p.URL,
		"",
		"【本文（抜粋/整形済み）】",
		p.Text,
	}, "\n")
}
