package analysis

import (
	"fmt"
	"strings"
)

// SynthesisInstruction builds the image-edit instruction for the furnished rendition.
func SynthesisInstruction(roomType, furniture string, hasReference bool) string {
	room := strings.TrimSpace(roomType)
	if room == "" {
		room = "ambiente"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Edite esta foto do(a) %s adicionando os seguintes móveis planejados: %s.\n", room, strings.TrimSpace(furniture))
	b.WriteString("Restrições:\n")
	b.WriteString("- Preserve a estrutura do ambiente, paredes, piso, janelas, perspectiva e iluminação originais.\n")
	b.WriteString("- Adicione os móveis em escala proporcional ao espaço, com aparência fotorrealista.\n")
	if hasReference {
		b.WriteString("- Siga o estilo, as cores e os acabamentos da imagem de referência enviada.\n")
	}
	b.WriteString("- Retorne apenas a imagem editada, sem nenhum texto.")
	return b.String()
}
