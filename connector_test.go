package lowfive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
)

func newTestConnector() *Connector {
	r := NewRouter()
	r.SetMemory("", "*")
	return NewConnector(r)
}

func TestFileCreateRegistersFile(t *testing.T) {
	c := newTestConnector()
	op, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)
	f, ok := op.Meta.(*File)
	require.True(t, ok)
	require.Equal(t, "f.h5", f.Name())
}

func TestFileOpenUnknownReturnsDummy(t *testing.T) {
	c := newTestConnector()
	op, err := c.FileOpen("missing.h5", 0, nil)
	require.NoError(t, err)
	_, ok := op.Meta.(*DummyFile)
	require.True(t, ok)
}

func TestFileOpenExisting(t *testing.T) {
	c := newTestConnector()
	created, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	op, err := c.FileOpen("f.h5", 0, nil)
	require.NoError(t, err)
	require.Equal(t, created.Meta, op.Meta)
}

func TestFileCloseRemovesFromRegistryUnlessKept(t *testing.T) {
	c := newTestConnector()
	op, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.FileClose(op))

	reopened, err := c.FileOpen("f.h5", 0, nil)
	require.NoError(t, err)
	_, isDummy := reopened.Meta.(*DummyFile)
	require.True(t, isDummy)
}

func TestFileCloseKeepsFileWhenSetKeep(t *testing.T) {
	c := newTestConnector()
	op, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)
	c.SetKeep("f.h5", true)
	require.NoError(t, c.FileClose(op))

	reopened, err := c.FileOpen("f.h5", 0, nil)
	require.NoError(t, err)
	require.Equal(t, op.Meta, reopened.Meta)
}

func TestGroupCreateAutoCreatesIntermediateGroups(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	op, err := c.GroupCreate(fileOp, "a/b/c", nil)
	require.NoError(t, err)
	g, ok := op.Meta.(*Group)
	require.True(t, ok)
	require.Equal(t, "c", g.Name())

	filename, path := Fullname(g, "")
	require.Equal(t, "f.h5", filename)
	require.Equal(t, "/a/b/c", path)
}

func TestGroupCreateRefusesDot(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	_, err = c.GroupCreate(fileOp, ".", nil)
	require.Error(t, err)
}

func TestDatasetCreateRequiresRouting(t *testing.T) {
	r := NewRouter() // no memory/passthrough patterns registered
	c := NewConnector(r)
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	typ := datatype.Fixed(datatype.ClassInteger, 8)
	space := dataspace.NewSimple([]uint64{4}, nil)
	_, err = c.DatasetCreate(fileOp, "values", typ, space, nil, nil)
	require.Error(t, err)
}

func TestDatasetWriteReadRoundTrip(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	typ := datatype.Fixed(datatype.ClassInteger, 8)
	space := dataspace.NewSimple([]uint64{4}, nil)
	space.SelectAll()
	datasetOp, err := c.DatasetCreate(fileOp, "values", typ, space, nil, nil)
	require.NoError(t, err)

	written := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
		17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	require.NoError(t, c.DatasetWrite(datasetOp, typ, space, space, written))

	read := make([]byte, len(written))
	require.NoError(t, c.DatasetRead(datasetOp, typ, space, space, read))
	require.Equal(t, written, read)
}

func TestDatasetReadRejectsTypeMismatch(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	typ := datatype.Fixed(datatype.ClassInteger, 8)
	space := dataspace.NewSimple([]uint64{4}, nil)
	space.SelectAll()
	datasetOp, err := c.DatasetCreate(fileOp, "values", typ, space, nil, nil)
	require.NoError(t, err)

	other := datatype.Fixed(datatype.ClassFloat, 4)
	buf := make([]byte, 32)
	err = c.DatasetRead(datasetOp, other, space, space, buf)
	require.Error(t, err)
}

func TestAttributeWriteReadRoundTrip(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	typ := datatype.Fixed(datatype.ClassInteger, 8)
	space := dataspace.NewSimple([]uint64{1}, nil)
	op, err := c.AttributeCreate(fileOp, "attr", typ, space, typ, nil)
	require.NoError(t, err)

	require.NoError(t, c.AttributeWrite(op, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	out := make([]byte, 8)
	require.NoError(t, c.AttributeRead(op, out))
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out)
}

func TestObjectLookupAndExists(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)
	_, err = c.GroupCreate(fileOp, "grp", nil)
	require.NoError(t, err)

	require.True(t, ObjectExists(fileOp.Meta, "grp"))
	require.False(t, ObjectExists(fileOp.Meta, "missing"))

	obj, ok := ObjectLookup(fileOp.Meta, "grp")
	require.True(t, ok)
	require.Equal(t, "grp", obj.Name())
}

func TestObjectGetTypeRootFileReadsAsGroup(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	require.Equal(t, TypeGroup, ObjectGetType(fileOp.Meta))
}

func TestObjectGetFileReturnsEnclosingFile(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)
	groupOp, err := c.GroupCreate(fileOp, "grp", nil)
	require.NoError(t, err)

	got := ObjectGetFile(groupOp.Meta)
	require.NotNil(t, got)
	require.Same(t, fileOp.Meta, got)
}

func TestObjectGetFileOfDummyFileReturnsNil(t *testing.T) {
	d := NewDummyFile("missing.h5")
	require.Nil(t, ObjectGetFile(d))
}

func TestObjectGetInfoCountsLiveAttributes(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)
	groupOp, err := c.GroupCreate(fileOp, "grp", nil)
	require.NoError(t, err)

	typ := datatype.Fixed(datatype.ClassInteger, 8)
	a1 := NewAttribute("units", typ, dataspace.NewSimple([]uint64{1}, nil))
	a2 := NewAttribute("scale", typ, dataspace.NewSimple([]uint64{1}, nil))
	addChild(groupOp.Meta, a1)
	addChild(groupOp.Meta, a2)

	info := ObjectGetInfo(groupOp.Meta)
	require.Equal(t, TypeGroup, info.Type)
	require.Equal(t, groupOp.Meta.Tok(), info.Token)
	require.Equal(t, 2, info.NumAttrs)
}

func TestObjectGetInfoRootFileReportsGroupType(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)

	info := ObjectGetInfo(fileOp.Meta)
	require.Equal(t, TypeGroup, info.Type)
}

func TestObjectGetCountCountsLiveSubtree(t *testing.T) {
	c := newTestConnector()
	fileOp, err := c.FileCreate("f.h5", 0, nil, nil)
	require.NoError(t, err)
	groupOp, err := c.GroupCreate(fileOp, "grp", nil)
	require.NoError(t, err)

	typ := datatype.Fixed(datatype.ClassInteger, 8)
	attr := NewAttribute("units", typ, dataspace.NewSimple([]uint64{1}, nil))
	addChild(groupOp.Meta, attr)

	// f.h5 (1) + grp (1) + units attribute (1) = 3.
	require.Equal(t, 3, ObjectGetCount(fileOp.Meta))
}

func TestObjectGetCountExcludesDummyAndRemotePlaceholders(t *testing.T) {
	g := NewGroup("grp", nil)
	addChild(g, NewDummyDataset("remote-stub"))
	addChild(g, NewDummyGroup("remote-group"))

	// grp itself (1); the dummy children and anything under them are
	// excluded since they carry no live local metadata handle.
	require.Equal(t, 1, ObjectGetCount(g))
}
