package invitations

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"
)

const (
	// CodePrefix identifies Santurist invitation codes.
	CodePrefix = "STR"

	// nameFragmentMax caps the name portion of a code.
	nameFragmentMax = 6

	// suffixLength is the number of random characters appended to a code.
	suffixLength = 3
)

// suffixAlphabet excludes ambiguous characters (0/O, 1/I/L).
const suffixAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// fallbackFragment is used when a recipient name yields no usable letters.
const fallbackFragment = "SOCIO"

// accentFold maps accented letters common in Spanish names to their ASCII base.
var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
	'Á': 'A', 'É': 'E', 'Í': 'I', 'Ó': 'O', 'Ú': 'U', 'Ü': 'U', 'Ñ': 'N',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
	'À': 'A', 'È': 'E', 'Ì': 'I', 'Ò': 'O', 'Ù': 'U',
}

// GenerateCode builds an invitation code of the form STR-YEAR-NAME-RANDOM,
// e.g. "STR-2026-MARIA-X7K". The name fragment is the recipient name
// uppercased, accent-stripped, letters only, truncated to six characters.
func GenerateCode(recipientName string, now time.Time) (string, error) {
	fragment := nameFragment(recipientName)

	suffix, err := randomSuffix(suffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate code suffix: %w", err)
	}

	return fmt.Sprintf("%s-%d-%s-%s", CodePrefix, now.Year(), fragment, suffix), nil
}

// nameFragment normalizes a recipient name into the code's name portion.
func nameFragment(name string) string {
	var b strings.Builder
	for _, r := range name {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() == nameFragmentMax {
			break
		}
	}

	if b.Len() == 0 {
		return fallbackFragment
	}
	return b.String()
}

// randomSuffix returns n characters drawn from the unambiguous alphabet.
func randomSuffix(n int) (string, error) {
	max := big.NewInt(int64(len(suffixAlphabet)))

	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = suffixAlphabet[idx.Int64()]
	}
	return string(b), nil
}
