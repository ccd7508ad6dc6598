package lowfive

// DummyFile, DummyGroup and DummyDataset are placeholders created when a
// name is opened that does not yet exist locally (spec §3). They carry no
// payload beyond the base identity and are replaced, discarded, or
// upgraded to a RemoteX node on further operations (distributed.go).
type DummyFile struct{ base }

func NewDummyFile(name string) *DummyFile {
	return &DummyFile{base: newBase(TypeFile, name)}
}

type DummyGroup struct{ base }

func NewDummyGroup(name string) *DummyGroup {
	return &DummyGroup{base: newBase(TypeGroup, name)}
}

type DummyDataset struct{ base }

func NewDummyDataset(name string) *DummyDataset {
	return &DummyDataset{base: newBase(TypeDataset, name)}
}
