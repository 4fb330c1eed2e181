package invitations

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/santurist/santurist/internal/validation"
)

func TestGenerateCode_Format(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	code, err := GenerateCode("María José", now)
	require.NoError(t, err)

	parts := strings.Split(code, "-")
	require.Len(t, parts, 4)
	require.Equal(t, "STR", parts[0])
	require.Equal(t, "2026", parts[1])
	require.Equal(t, "MARIAJ", parts[2])
	require.Len(t, parts[3], 3)

	require.NoError(t, validation.ValidateCodeFormat(code))
}

func TestNameFragment_StripsAccents(t *testing.T) {
	require.Equal(t, "JOSE", nameFragment("José"))
	require.Equal(t, "NUNEZ", nameFragment("Núñez"))
	require.Equal(t, "AGUERO", nameFragment("Agüero"))
}

func TestNameFragment_LettersOnly(t *testing.T) {
	require.Equal(t, "ANA", nameFragment("Ana 123"))
	require.Equal(t, "OHIGGI", nameFragment("O'Higgins"))
	require.Equal(t, "JUANPE", nameFragment("Juan Pérez"))
}

func TestNameFragment_TruncatesToSix(t *testing.T) {
	require.Equal(t, "MAXIMI", nameFragment("Maximiliano"))
	require.Len(t, nameFragment("Sebastián Fernández"), 6)
}

func TestNameFragment_EmptyFallsBack(t *testing.T) {
	require.Equal(t, fallbackFragment, nameFragment(""))
	require.Equal(t, fallbackFragment, nameFragment("12345"))
	require.Equal(t, fallbackFragment, nameFragment("世界"))
}

func TestRandomSuffix_AlphabetOnly(t *testing.T) {
	for i := 0; i < 50; i++ {
		suffix, err := randomSuffix(suffixLength)
		require.NoError(t, err)
		require.Len(t, suffix, suffixLength)
		for _, r := range suffix {
			require.Contains(t, suffixAlphabet, string(r))
		}
	}
}

func TestConversionRate(t *testing.T) {
	require.Equal(t, 0.0, ConversionRate(0, 0))
	require.Equal(t, 50.0, ConversionRate(1, 1))
	require.Equal(t, 100.0, ConversionRate(3, 0))
	require.InDelta(t, 25.0, ConversionRate(1, 3), 0.0001)
}
