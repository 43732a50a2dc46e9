package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"  plain  ":                              "plain",
		"<b>bold</b> move":                       "bold move",
		`<script>alert("x")</script>ok`:          "ok",
		"fish &amp; chips":                       "fish & chips",
		`<a href="javascript:x()">link</a> here`: "link here",
		"":                                       "",
		"&lt;img src=x onerror=alert(1)&gt;":     "",
		"&lt;b&gt;late&lt;/b&gt; night":          "late night",
		"<<b>img src=x onerror=alert(1)>":        "",
		"a &lt; b":                               "a < b",
	}
	for in, want := range cases {
		got := SanitizeText(in)
		assert.Equal(t, want, got, in)
		assert.NotContains(t, got, "<img", in)
	}
}
