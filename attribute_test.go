package lowfive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
)

func buildSampleAttributes() (*Dataset, *Attribute, *Attribute) {
	typ := datatype.Fixed(datatype.ClassInteger, 8)
	space := dataspace.NewSimple([]uint64{4}, nil)
	d := NewDataset("values", typ, space, nil, nil)

	a1 := NewAttribute("units", typ, dataspace.NewSimple([]uint64{1}, nil))
	a1.Write(typ, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	addChild(d, a1)

	// A non-Attribute child interleaved to confirm IterateAttributes skips it.
	addChild(d, NewGroup("not-an-attribute", nil))

	a2 := NewAttribute("scale", typ, dataspace.NewSimple([]uint64{1}, nil))
	a2.Write(typ, []byte{9, 9, 9, 9, 9, 9, 9, 9})
	addChild(d, a2)

	return d, a1, a2
}

func TestIterateAttributesSkipsNonAttributeChildren(t *testing.T) {
	d, a1, a2 := buildSampleAttributes()

	var names []string
	err := IterateAttributes(d, func(name string, attr *Attribute) (bool, error) {
		names = append(names, name)
		return false, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{a1.Name(), a2.Name()}, names)
}

func TestIterateAttributesStopsEarlyWithoutVisitingRemainder(t *testing.T) {
	d, a1, _ := buildSampleAttributes()

	var names []string
	err := IterateAttributes(d, func(name string, attr *Attribute) (bool, error) {
		names = append(names, name)
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{a1.Name()}, names)
}

func TestIterateAttributesPropagatesCallbackError(t *testing.T) {
	d, _, _ := buildSampleAttributes()
	wantErr := errors.New("boom")

	var calls int
	err := IterateAttributes(d, func(name string, attr *Attribute) (bool, error) {
		calls++
		return false, wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 1, calls)
}

func TestIterateAttributesNoAttributesNeverInvokesCallback(t *testing.T) {
	d := NewDataset("values", datatype.Fixed(datatype.ClassInteger, 8), dataspace.NewSimple([]uint64{4}, nil), nil, nil)
	addChild(d, NewGroup("sub", nil))

	err := IterateAttributes(d, func(name string, attr *Attribute) (bool, error) {
		t.Fatal("callback should not be invoked without Attribute children")
		return false, nil
	})
	require.NoError(t, err)
}
