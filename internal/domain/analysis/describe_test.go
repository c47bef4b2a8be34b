package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDescribeFurniture(t *testing.T) {
	items := []FurnitureSuggestion{
		{Name: "Rack suspenso", Type: "rack", Material: strPtr("MDF"), Finish: strPtr("laca fosca")},
		{Name: "Painel ripado", Type: "painel", Material: strPtr("freijó")},
		{Name: "Aparador", Type: "apoio", Finish: strPtr("amadeirado")},
		{Name: "Nicho", Type: "decoração", Material: strPtr("  ")},
	}

	got := DescribeFurniture(items)

	require.Equal(t,
		"Rack suspenso (rack) em MDF com acabamento laca fosca, "+
			"Painel ripado (painel) em freijó, "+
			"Aparador (apoio) com acabamento amadeirado, "+
			"Nicho (decoração)",
		got)
}

func TestDescribeFurnitureEmpty(t *testing.T) {
	require.Equal(t, "", DescribeFurniture(nil))
}

func TestRequestValidate(t *testing.T) {
	require.NoError(t, Request{ImageURL: "https://x/img.jpg", UserID: "u1"}.Validate())

	err := Request{UserID: "u1"}.Validate()
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "image_url")

	err = Request{ImageURL: "https://x/img.jpg"}.Validate()
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "user_id")
}
