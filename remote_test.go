package lowfive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/lowfive/internal/query"
)

func TestRemoteFileAddChildSetsParent(t *testing.T) {
	rf := NewRemoteFile("f.h5")
	rg := NewRemoteGroup("grp")
	rf.AddChild(rg)

	require.Equal(t, rf, rg.Parent())
	require.Equal(t, TypeFile, rf.Type())
	require.Len(t, rf.Children(), 1)
}

func TestRemoteGroupAddChild(t *testing.T) {
	rg := NewRemoteGroup("grp")
	rd := NewRemoteDataset("values", &query.RemoteHandle{})
	rg.AddChild(rd)

	require.Equal(t, rg, rd.Parent())
	require.Equal(t, TypeDataset, rd.Type())
}

func TestRemoteDatasetCarriesHandle(t *testing.T) {
	h := &query.RemoteHandle{Filename: "f.h5", Path: "/values"}
	rd := NewRemoteDataset("values", h)
	require.Same(t, h, rd.Handle)
}
