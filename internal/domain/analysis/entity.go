package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Request is one analysis call. Ephemeral.
type Request struct {
	ImageURL     string `json:"image_url"`
	ReferenceURL string `json:"reference_url,omitempty"`
	UserID       string `json:"user_id"`
	Preferences  string `json:"preferences,omitempty"`
}

// Measure is a model-provided dimension. Models send either numbers or
// strings such as "2,80m", both are kept as text.
type Measure string

func (m *Measure) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*m = Measure(strings.TrimSpace(s))
		return nil
	}
	// numbers and anything else odd are stored verbatim
	*m = Measure(trimmed)
	return nil
}

type RoomDimensions struct {
	Width         Measure `json:"largura,omitempty"`
	Depth         Measure `json:"profundidade,omitempty"`
	CeilingHeight Measure `json:"pe_direito,omitempty"`
}

type FurnitureDimensions struct {
	Width  Measure `json:"largura,omitempty"`
	Height Measure `json:"altura,omitempty"`
	Depth  Measure `json:"profundidade,omitempty"`
}

// EnvironmentAnalysis describes the photographed room.
type EnvironmentAnalysis struct {
	RoomType        string         `json:"tipo_comodo"`
	Dimensions      RoomDimensions `json:"dimensoes_estimadas"`
	Characteristics []string       `json:"caracteristicas,omitempty"`
	AttentionPoints []string       `json:"pontos_atencao,omitempty"`
}

// FurnitureSuggestion is one recommended piece.
type FurnitureSuggestion struct {
	Name           string              `json:"nome"`
	Type           string              `json:"tipo"`
	Dimensions     FurnitureDimensions `json:"dimensoes_sugeridas"`
	Material       *string             `json:"material_sugerido,omitempty"`
	Finish         *string             `json:"acabamento_sugerido,omitempty"`
	CatalogMatch   *string             `json:"item_catalogo_correspondente"`
	EstimatedPrice *float64            `json:"preco_estimado,omitempty"`
}

// Result is either a structured analysis (ParseFailed=false) or the raw
// model text (ParseFailed=true), never both.
type Result struct {
	Environment         *EnvironmentAnalysis  `json:"analise_ambiente,omitempty"`
	Suggestions         []FurnitureSuggestion `json:"sugestoes_moveis,omitempty"`
	Layout              *string               `json:"layout_sugerido,omitempty"`
	TotalEstimatedValue *float64              `json:"valor_total_estimado,omitempty"`
	Notes               *string               `json:"observacoes,omitempty"`
	Complexity          *string               `json:"nivel_complexidade,omitempty"`
	RawText             string                `json:"texto_bruto,omitempty"`
	ParseFailed         bool                  `json:"erro_parse"`

	raw json.RawMessage
}

// Degraded builds the raw-text fallback result.
func Degraded(text string) Result {
	return Result{RawText: text, ParseFailed: true}
}

// Raw returns the JSON object the structured fields were decoded from.
func (r Result) Raw() json.RawMessage { return r.raw }

// RoomType is a nil-safe accessor used when building prompts.
func (r Result) RoomType() string {
	if r.Environment == nil {
		return ""
	}
	return strings.TrimSpace(r.Environment.RoomType)
}

// SuggestionsTotal sums the per-item prices the model provided.
func (r Result) SuggestionsTotal() (float64, bool) {
	var sum float64
	found := false
	for _, s := range r.Suggestions {
		if s.EstimatedPrice != nil {
			sum += *s.EstimatedPrice
			found = true
		}
	}
	return sum, found
}

// MarshalJSON emits the parsed object as the model sent it (plus the
// erro_parse flag), or the degraded shape.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.ParseFailed {
		return json.Marshal(struct {
			RawText     string `json:"texto_bruto"`
			ParseFailed bool   `json:"erro_parse"`
		}{r.RawText, true})
	}
	if len(r.raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(r.raw))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil {
			obj["erro_parse"] = false
			return json.Marshal(obj)
		}
	}
	type plain Result
	return json.Marshal(plain(r))
}
