package registry

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultHasFragment(t *testing.T) {
	r := NewDefault()
	c, err := r.Lookup("Fragment")
	require.NoError(t, err)
	assert.Same(t, element.Fragment, c)
}

func TestRegistry_LookupIsStable(t *testing.T) {
	r := NewRegistry()
	card := r.RegisterFunc("Card", func(element.Props) any { return nil })

	first, err := r.Lookup("Card")
	require.NoError(t, err)
	second, err := r.Lookup("Card")
	require.NoError(t, err)
	assert.Same(t, card, first)
	assert.Same(t, first, second)
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := NewRegistry().Lookup("Missing")
	assert.ErrorIs(t, err, domain.ErrUnknownComponent)
	assert.ErrorContains(t, err, "Missing")
}

func TestRegistry_Names(t *testing.T) {
	r := NewDefault()
	r.RegisterFunc("Zeta", nil)
	r.RegisterFunc("Alpha", nil)
	assert.Equal(t, []string{"Alpha", "Fragment", "Zeta"}, r.Names())
}
