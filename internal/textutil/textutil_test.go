package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hej", "hej"},
		{"Hej alla", "hej-alla"},
		{"Bästa slots på nätet!", "basta-slots-pa-natet"},
		{"Öl & Poker", "ol-och-poker"},
		{"  --Bordsspel--  ", "bordsspel"},
		{"Sportbetting 2026: EM-tips", "sportbetting-2026-em-tips"},
		{"Blåbärssylt Smørrebrød", "blabarssylt-smorrebrod"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugify_Bounded(t *testing.T) {
	slug := Slugify(strings.Repeat("lång titel ", 40))
	assert.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("bordsspel"))
	assert.True(t, ValidSlug("casino-2026"))
	assert.False(t, ValidSlug("Bordsspel"))
	assert.False(t, ValidSlug("bords spel"))
	assert.False(t, ValidSlug(""))
}

func TestWithSuffix(t *testing.T) {
	a := WithSuffix("hej")
	b := WithSuffix("hej")
	assert.True(t, strings.HasPrefix(a, "hej-"))
	assert.Len(t, a, len("hej-")+6)
	assert.NotEqual(t, a, b)
	assert.Len(t, WithSuffix(""), 6)
}

func TestSanitizeHTML(t *testing.T) {
	out := SanitizeHTML(`<p onclick="x()">Hej <script>alert(1)</script><b>alla</b></p>`)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "<b>alla</b>")
}

func TestStripHTMLAndBlank(t *testing.T) {
	assert.Equal(t, "Hej alla & välkomna", StripHTML("<p>Hej <b>alla</b></p><p>&amp; välkomna</p>"))
	assert.True(t, IsBlank("<p> </p><br>"))
	assert.True(t, IsBlank("   "))
	assert.False(t, IsBlank("<p>x</p>"))
	assert.False(t, IsBlank(`<img src="https://example.com/a.png">`))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hej alla", Excerpt("<p>Hej alla</p>"))

	exact := strings.Repeat("a", ExcerptLength)
	assert.Equal(t, exact, Excerpt(exact))

	long := strings.Repeat("å", ExcerptLength+50)
	got := Excerpt("<p>" + long + "</p>")
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, ExcerptLength, utf8.RuneCountInString(strings.TrimSuffix(got, "...")))
}
