package wiki

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitParagraphs_KeepsFirstThree(t *testing.T) {
	in := "one\n\ntwo\n\nthree\n\nfour\n\nfive"
	got := limitParagraphs(in, 3)
	assert.Equal(t, "one\n\ntwo\n\nthree", got)
	assert.NotContains(t, got, "four")
}

func TestLimitParagraphs_IgnoresExtraBlankLines(t *testing.T) {
	got := limitParagraphs("\n\none\n \n\n\ntwo\n", 3)
	assert.Equal(t, "one\n\ntwo", got)
}

func TestFormatLegacy_Headers(t *testing.T) {
	in := "東京タワーは電波塔である。\n\n\n== 歴史 ==\n1958年に完成。"
	got := formatLegacy(in, "ja")
	assert.Equal(t, "【概要】\n東京タワーは電波塔である。\n\n【歴史】\n1958年に完成。", got)
}

func TestFormatLegacy_NoHeadersLeavesTextAlone(t *testing.T) {
	in := "東京タワーは、東京都港区芝公園にある総合電波塔である。"
	assert.Equal(t, in, formatLegacy(in, "ja"))
}

func TestHTMLToText_SectionBody(t *testing.T) {
	src := `<div class="mw-parser-output">
<div class="mw-heading mw-heading2"><h2 id="h">歴史</h2><span class="mw-editsection">[<a>編集</a>]</span></div>
<p>古い寺です。<sup class="reference"><a>[1]</a></sup></p>
<table><tr><td>表</td></tr></table>
<p>再建された &amp; 現存する。</p>
<h3>小節</h3>
<p>含まれない</p>
</div>`
	got := htmlToText(src, true)
	assert.Equal(t, "古い寺です。\n\n再建された & 現存する。", got)
}

func TestStripTags_Snippet(t *testing.T) {
	got := stripTags(`<span class="searchmatch">Tokyo Tower</span> is a   communications tower`)
	assert.Equal(t, "Tokyo Tower is a communications tower", got)
}

func TestCleanMobileText(t *testing.T) {
	got := cleanMobileText(`<p>Built in 1958.[2] {{citation needed}}</p>`)
	assert.Equal(t, "Built in 1958.", strings.TrimSpace(got))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "あいう...", truncateRunes("あいうえお", 3))
	assert.Equal(t, "あい", truncateRunes("あい", 3))
}
