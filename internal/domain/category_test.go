package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategoryName(t *testing.T) {
	assert.Equal(t, "gasolina", NormalizeCategoryName("Gasolina"))
	assert.Equal(t, "gasolina", NormalizeCategoryName("  GASOLINA  "))
	assert.Equal(t, NormalizeCategoryName("Office Rent"), NormalizeCategoryName("office rent"))
}
