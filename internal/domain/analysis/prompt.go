package analysis

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/catalog"
)

// EmptyCatalog is embedded instead of the price list when the tenant has no active items.
const EmptyCatalog = "Nenhum item cadastrado no catálogo."

// OutputSchema is the contract the model must follow.
const OutputSchema = `{
  "analise_ambiente": {
    "tipo_comodo": "<string>",
    "dimensoes_estimadas": {"largura": "<metros>", "profundidade": "<metros>", "pe_direito": "<metros>"},
    "caracteristicas": ["<string>"],
    "pontos_atencao": ["<string>"]
  },
  "sugestoes_moveis": [
    {
      "nome": "<string>",
      "tipo": "<string>",
      "dimensoes_sugeridas": {"largura": "<cm>", "altura": "<cm>", "profundidade": "<cm>"},
      "material_sugerido": "<string>",
      "acabamento_sugerido": "<string>",
      "item_catalogo_correspondente": "<nome do item do catálogo ou null>",
      "preco_estimado": <number>
    }
  ],
  "layout_sugerido": "<string>",
  "valor_total_estimado": <number>,
  "observacoes": "<string>",
  "nivel_complexidade": "<baixa|media|alta>"
}`

// SystemPrompt grounds the model in the tenant's priced catalog and fixes
// the output schema. Same input, same output.
func SystemPrompt(items []catalog.Item) string {
	var b strings.Builder
	b.WriteString(`Você é um projetista de móveis planejados de uma marcenaria. Analise a foto do ambiente enviada e recomende móveis sob medida.

Regras:
- Estime as dimensões do ambiente a partir de referências visuais (portas, tomadas, janelas, piso).
- Priorize itens do catálogo abaixo; quando usar um item, informe o nome exato em "item_catalogo_correspondente", senão use null.
- Use os preços do catálogo como base para "preco_estimado"; para itens fora do catálogo estime um valor de mercado em reais.
- Responda somente com um objeto JSON válido seguindo o esquema, sem texto adicional.

Catálogo da marcenaria:
`)
	b.WriteString(CatalogList(items))
	b.WriteString("\n\nEsquema de resposta:\n")
	b.WriteString(OutputSchema)
	return b.String()
}

// CatalogList renders the catalog as a bulleted price list.
func CatalogList(items []catalog.Item) string {
	if len(items) == 0 {
		return EmptyCatalog
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		line := fmt.Sprintf("- %s (%s): R$ %.2f", strings.TrimSpace(it.Name), categoryOrDefault(it.Category), it.BasePrice)
		if d := strings.TrimSpace(it.Description); d != "" {
			line += " - " + d
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// UserPrompt is the text part sent along with the photo.
func UserPrompt(preferences string) string {
	msg := "Analise este ambiente e sugira os móveis planejados ideais, seguindo o esquema JSON."
	if p := strings.TrimSpace(preferences); p != "" {
		msg += "\n\nPreferências do cliente: " + p
	}
	return msg
}

// ReferenceLabel precedes the optional style-reference image.
const ReferenceLabel = "Imagem de referência de estilo desejado pelo cliente:"

func categoryOrDefault(c string) string {
	if strings.TrimSpace(c) == "" {
		return "geral"
	}
	return strings.TrimSpace(c)
}
