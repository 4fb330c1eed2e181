package onboarding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDraftKeepsAbsentSiblings(t *testing.T) {
	base := map[string]any{
		"personalInfo": map[string]any{
			"first_name": "María",
			"last_name":  "Rojas",
		},
	}
	patch := map[string]any{
		"personalInfo": map[string]any{
			"phone": "+56 9 1234 5678",
		},
	}

	merged := mergeDraft(base, patch)

	personal := merged["personalInfo"].(map[string]any)
	require.Equal(t, "María", personal["first_name"])
	require.Equal(t, "Rojas", personal["last_name"])
	require.Equal(t, "+56 9 1234 5678", personal["phone"])
}

func TestMergeDraftReplacesScalars(t *testing.T) {
	base := map[string]any{
		"businessInfo": map[string]any{"business_name": "Tours Luna"},
	}
	patch := map[string]any{
		"businessInfo": map[string]any{"business_name": "Tours Valle de la Luna"},
	}

	merged := mergeDraft(base, patch)
	business := merged["businessInfo"].(map[string]any)
	require.Equal(t, "Tours Valle de la Luna", business["business_name"])
}

func TestMergeDraftAddsNewSections(t *testing.T) {
	base := map[string]any{
		"personalInfo": map[string]any{"first_name": "Pedro"},
	}
	patch := map[string]any{
		"services": map[string]any{"tours": []any{"astronomía"}},
	}

	merged := mergeDraft(base, patch)
	require.Contains(t, merged, "personalInfo")
	require.Contains(t, merged, "services")
}

func TestMergeDraftNestedMaps(t *testing.T) {
	base := map[string]any{
		"businessInfo": map[string]any{
			"location": map[string]any{
				"street": "Caracoles 123",
				"city":   "San Pedro de Atacama",
			},
		},
	}
	patch := map[string]any{
		"businessInfo": map[string]any{
			"location": map[string]any{"street": "Caracoles 456"},
		},
	}

	merged := mergeDraft(base, patch)
	location := merged["businessInfo"].(map[string]any)["location"].(map[string]any)
	require.Equal(t, "Caracoles 456", location["street"])
	require.Equal(t, "San Pedro de Atacama", location["city"])
}

func TestMergeDraftDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{
		"personalInfo": map[string]any{"first_name": "Ana"},
	}
	patch := map[string]any{
		"personalInfo": map[string]any{"last_name": "Silva"},
	}

	_ = mergeDraft(base, patch)

	require.NotContains(t, base["personalInfo"].(map[string]any), "last_name")
	require.NotContains(t, patch["personalInfo"].(map[string]any), "first_name")
}
