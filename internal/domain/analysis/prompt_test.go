package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/catalog"
)

func TestSystemPromptEmbedsCatalog(t *testing.T) {
	items := []catalog.Item{
		{ID: "1", Name: "Rack Milano", Category: "sala", BasePrice: 2450.5, Description: "MDF 18mm"},
		{ID: "2", Name: "Guarda-roupa Lisboa", BasePrice: 5200},
	}

	got := SystemPrompt(items)

	require.Contains(t, got, "- Rack Milano (sala): R$ 2450.50 - MDF 18mm")
	require.Contains(t, got, "- Guarda-roupa Lisboa (geral): R$ 5200.00")
	require.NotContains(t, got, EmptyCatalog)
	require.Contains(t, got, OutputSchema)
}

func TestSystemPromptEmptyCatalogSentinel(t *testing.T) {
	got := SystemPrompt(nil)

	require.Contains(t, got, EmptyCatalog)
	require.Contains(t, got, `"sugestoes_moveis"`)
}

func TestSystemPromptDeterministic(t *testing.T) {
	items := []catalog.Item{{Name: "Mesa", Category: "jantar", BasePrice: 900}}
	require.Equal(t, SystemPrompt(items), SystemPrompt(items))
}

func TestUserPromptPreferences(t *testing.T) {
	require.NotContains(t, UserPrompt("   "), "Preferências")
	require.Contains(t, UserPrompt("tons claros"), "Preferências do cliente: tons claros")
}

func TestSynthesisInstruction(t *testing.T) {
	got := SynthesisInstruction("cozinha", "Armário aéreo (armário) em MDF", true)

	require.True(t, strings.HasPrefix(got, "Edite esta foto do(a) cozinha"))
	require.Contains(t, got, "Armário aéreo (armário) em MDF")
	require.Contains(t, got, "perspectiva e iluminação")
	require.Contains(t, got, "imagem de referência")
	require.Contains(t, got, "sem nenhum texto")

	require.Contains(t, SynthesisInstruction("", "Sofá (estofado)", false), "do(a) ambiente")
	require.NotContains(t, SynthesisInstruction("sala", "x", false), "referência")
}
