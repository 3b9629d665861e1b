package reconcile

import (
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
	"testing"
)

func TestCleanKeyword(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Hydrolase", "hydrolase", true},
		{"Hydrolase {ECO:0000256|ARBA:ARBA00022801}", "hydrolase", true},
		{"  Metal-binding  .", "metal-binding", true},
		{"Zinc   finger", "zinc finger", true},
		{"ARBA:ARBA00022801", "", false},
		{"RuleBase:RU000363", "", false},
		{"{ECO:0000256}", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := CleanKeyword(c.raw)
		assert.Equal(t, c.ok, ok, c.raw)
		assert.Equal(t, c.want, got, c.raw)
	}
}

func TestCleanKeywords(t *testing.T) {
	got := CleanKeywords([]string{"Zinc", "Hydrolase {ECO:0000256}", "zinc.", "PIRSR:PIRSR000001-1"})
	assert.Equal(t, []string{"zinc", "hydrolase"}, got)
}

func TestCleanKeyword_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.StringMatching(`[A-Za-z .{}|:-]{0,40}`).Draw(t, "raw")
		once, ok := CleanKeyword(raw)
		if !ok {
			return
		}
		twice, ok := CleanKeyword(once)
		if !ok || twice != once {
			t.Fatalf("clean(%q)=%q, clean again=%q ok=%v", raw, once, twice, ok)
		}
	})
}
