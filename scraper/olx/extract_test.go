package olx

import (
	"io"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

const searchPage = `<html><body>
<section>
  <div class="olx-adcard__content">
    <a href="https://sp.olx.com.br/sao-paulo-e-regiao/imoveis/apto-1">
      <h2 class="olx-adcard__title">Apartamento  2 quartos
        Vila Mariana</h2>
    </a>
    <h3 class="olx-adcard__price">R$ 2.500</h3>
    <p class="olx-adcard__location">Vila Mariana, São Paulo</p>
    <div class="olx-adcard__details">Apartamento · 75 m² · 2 quartos</div>
  </div>
  <div class="olx-adcard__content">
    <a href="/sao-paulo-e-regiao/imoveis/apto-2"><h2 class="olx-adcard__title">Studio</h2></a>
    <p class="olx-adcard__location">Tatuapé, São Paulo</p>
    <div class="olx-adcard__details">Studio · 1 quarto</div>
  </div>
  <div class="olx-adcard__content">
    <h2 class="olx-adcard__title">No link at all</h2>
  </div>
</section>
</body></html>`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor("https://sp.olx.com.br/sao-paulo-e-regiao/imoveis?o=1",
		utils.NewLoggerWithOptions(utils.LoggerOptions{Writer: io.Discard}))
	require.NoError(t, err)
	return e
}

func TestExtractCards(t *testing.T) {
	seq, err := newTestExtractor(t).Extract(searchPage)
	require.NoError(t, err)

	listings := slices.Collect(seq)
	require.Len(t, listings, 3)

	first := listings[0]
	assert.Equal(t, "https://sp.olx.com.br/sao-paulo-e-regiao/imoveis/apto-1", first.Link)
	assert.Equal(t, "Apartamento 2 quartos Vila Mariana", first.Title)
	assert.Equal(t, "R$ 2.500", first.Price)
	assert.Equal(t, "Vila Mariana, São Paulo", first.Location)
	require.NotNil(t, first.Area)
	assert.Equal(t, 75, *first.Area)

	second := listings[1]
	assert.Equal(t, "https://sp.olx.com.br/sao-paulo-e-regiao/imoveis/apto-2", second.Link, "relative links resolve against the page")
	assert.Equal(t, "", second.Price, "missing price degrades to empty")
	assert.Nil(t, second.Area)

	third := listings[2]
	assert.Equal(t, "", third.Link)
	assert.Equal(t, "No link at all", third.Title)

	for _, l := range listings {
		assert.Equal(t, l.Link, l.ID)
	}
}

func TestExtractIsStableAcrossRuns(t *testing.T) {
	e := newTestExtractor(t)

	ids := func() []string {
		seq, err := e.Extract(searchPage)
		require.NoError(t, err)
		var out []string
		for l := range seq {
			out = append(out, l.ID)
		}
		return out
	}

	assert.Equal(t, ids(), ids())
}

func TestExtractNoCardsYieldsEmpty(t *testing.T) {
	seq, err := newTestExtractor(t).Extract(`<html><body><div class="captcha">blocked</div></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(seq))
}

func TestExtractStopsWhenConsumerStops(t *testing.T) {
	seq, err := newTestExtractor(t).Extract(searchPage)
	require.NoError(t, err)

	var got []models.Listing
	for l := range seq {
		got = append(got, l)
		break
	}
	assert.Len(t, got, 1)
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		details string
		want    *int
	}{
		{"Apartamento · 75 m² · 2 quartos", intPtr(75)},
		{"120m²", intPtr(120)},
		{"45\u00a0m² · 1 vaga", intPtr(45)},
		{"60 m² · 70 m²", intPtr(60)},
		{"2 quartos · 1 banheiro", nil},
		{"75 m2", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := ParseArea(tt.details)
		if tt.want == nil {
			assert.Nil(t, got, "ParseArea(%q)", tt.details)
			continue
		}
		if assert.NotNil(t, got, "ParseArea(%q)", tt.details) {
			assert.Equal(t, *tt.want, *got, "ParseArea(%q)", tt.details)
		}
	}
}

func TestFindChromeBinaryPrefersConfigured(t *testing.T) {
	assert.Equal(t, "/opt/chrome/chrome", findChromeBinary("/opt/chrome/chrome"))
}

func intPtr(v int) *int { return &v }
