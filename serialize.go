package lowfive

import (
	"fmt"

	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
	"github.com/scigolib/lowfive/internal/serialize"
)

// Serialize writes a preorder traversal of o's subtree to a new Buffer
// (spec §4.E). For each node it writes token, type tag, name, child count,
// then a type-specific payload; for Dataset, includeData selects between
// metadata-only and a full copy of every DataTriple, with bytes carried as
// out-of-band blobs.
func Serialize(o Object, includeData bool) *serialize.Buffer {
	buf := serialize.New()
	serializeInto(buf, o, includeData)
	return buf
}

func serializeInto(buf *serialize.Buffer, o Object, includeData bool) {
	tok := o.Tok()
	buf.PutBytes(tok[:])
	buf.PutInt(int(o.Type()))
	buf.PutString(o.Name())
	buf.PutInt(len(o.Children()))

	switch v := o.(type) {
	case *File:
		buf.PutBool(true) // real_file
		buf.PutBool(includeData)
	case *DummyFile:
		buf.PutBool(false)
		return // spec §4.E: a dummy/remote file writes only the false flag and stops
	case *Dataset:
		buf.PutBool(v.IsPassthru)
		buf.PutBool(v.IsMemory)
		v.Type.Encode(buf)
		v.Space.Encode(buf)
		buf.PutInt(int(v.Ownership))
		buf.PutBool(includeData)
		if includeData {
			buf.PutInt(len(v.Data))
			for _, dt := range v.Data {
				dt.Type.Encode(buf)
				dt.Memory.Encode(buf)
				dt.File.Encode(buf)
				buf.SaveBlob(dt.Bytes)
			}
		}
	case *Attribute:
		v.Type.Encode(buf)
		v.Space.Encode(buf)
		v.MemType.Encode(buf)
		if v.MemType.VarLen {
			buf.PutInt(len(v.AuxData))
			for _, elem := range v.AuxData {
				buf.PutBytes(elem)
			}
		} else {
			buf.PutBytes(v.Data)
		}
	case *HardLink:
		_, fullPath := Fullname(v.Target, "")
		buf.PutString(fullPath)
	case *SoftLink:
		buf.PutString(v.TargetPath)
	case *NamedDtype:
		v.Datatype.Encode(buf)
	case *CommittedDatatype:
		v.Datatype.Encode(buf)
		buf.PutBytes(v.Encoded)
	case *Group, *DummyGroup, *DummyDataset:
		// no type-specific payload beyond the common header
	}

	for _, child := range o.Children() {
		serializeInto(buf, child, includeData)
	}
}

// placeholderHardLink records a HardLink whose Target field still needs to
// be resolved against the fully rebuilt tree (spec §4.E "two passes").
type placeholderHardLink struct {
	link       *HardLink
	targetPath string
}

// Deserialize rebuilds an Object subtree previously written by Serialize.
// The first pass constructs every node, recording HardLinks with only
// their target path; the second pass resolves each via Search(root,
// path).Exact().
func Deserialize(buf *serialize.Buffer) (Object, error) {
	var pending []placeholderHardLink
	root, err := deserializeInto(buf, &pending)
	if err != nil {
		return nil, err
	}

	for _, ph := range pending {
		p := Search(root, ph.targetPath)
		target, ok := p.Exact()
		if !ok {
			return nil, MetadataError("deserialize", fmt.Errorf("hard link target %q did not resolve", ph.targetPath))
		}
		ph.link.Target = target
	}
	return root, nil
}

func deserializeInto(buf *serialize.Buffer, pending *[]placeholderHardLink) (Object, error) {
	tokBytes, err := buf.GetBytes()
	if err != nil {
		return nil, err
	}
	var tok Token
	copy(tok[:], tokBytes)

	typInt, err := buf.GetInt()
	if err != nil {
		return nil, err
	}
	typ := ObjectType(typInt)

	name, err := buf.GetString()
	if err != nil {
		return nil, err
	}

	nChildren, err := buf.GetInt()
	if err != nil {
		return nil, err
	}

	var o Object
	switch typ {
	case TypeFile:
		realFile, err := buf.GetBool()
		if err != nil {
			return nil, err
		}
		if !realFile {
			d := NewDummyFile(name)
			restoreToken(d, tok)
			return d, nil
		}
		if _, err := buf.GetBool(); err != nil { // includeData flag, not otherwise used on reconstruction
			return nil, err
		}
		o = NewFile(name, nil, nil)
	case TypeGroup:
		o = NewGroup(name, nil)
	case TypeDataset:
		isPassthru, err := buf.GetBool()
		if err != nil {
			return nil, err
		}
		isMemory, err := buf.GetBool()
		if err != nil {
			return nil, err
		}
		dt, err := datatype.Decode(buf)
		if err != nil {
			return nil, err
		}
		sp, err := dataspace.Decode(buf)
		if err != nil {
			return nil, err
		}
		ownInt, err := buf.GetInt()
		if err != nil {
			return nil, err
		}
		d := NewDataset(name, dt, sp, nil, nil)
		d.IsPassthru = isPassthru
		d.IsMemory = isMemory
		d.Ownership = Ownership(ownInt)

		includeData, err := buf.GetBool()
		if err != nil {
			return nil, err
		}
		if includeData {
			ntriples, err := buf.GetInt()
			if err != nil {
				return nil, err
			}
			for i := 0; i < ntriples; i++ {
				triType, err := datatype.Decode(buf)
				if err != nil {
					return nil, err
				}
				triMem, err := dataspace.Decode(buf)
				if err != nil {
					return nil, err
				}
				triFile, err := dataspace.Decode(buf)
				if err != nil {
					return nil, err
				}
				blob, err := buf.LoadBlob()
				if err != nil {
					return nil, err
				}
				d.Data = append(d.Data, DataTriple{Type: triType, Memory: triMem, File: triFile, Bytes: blob, Owned: true})
			}
		}
		o = d
	case TypeAttribute:
		dt, err := datatype.Decode(buf)
		if err != nil {
			return nil, err
		}
		sp, err := dataspace.Decode(buf)
		if err != nil {
			return nil, err
		}
		a := NewAttribute(name, dt, sp)
		memType, err := datatype.Decode(buf)
		if err != nil {
			return nil, err
		}
		a.MemType = memType
		if memType.VarLen {
			n, err := buf.GetInt()
			if err != nil {
				return nil, err
			}
			a.AuxData = make([][]byte, n)
			for i := range a.AuxData {
				if a.AuxData[i], err = buf.GetBytes(); err != nil {
					return nil, err
				}
			}
		} else {
			if a.Data, err = buf.GetBytes(); err != nil {
				return nil, err
			}
		}
		o = a
	case TypeHardLink:
		targetPath, err := buf.GetString()
		if err != nil {
			return nil, err
		}
		link := &HardLink{base: newBase(TypeHardLink, name)}
		*pending = append(*pending, placeholderHardLink{link: link, targetPath: targetPath})
		o = link
	case TypeSoftLink:
		targetPath, err := buf.GetString()
		if err != nil {
			return nil, err
		}
		o = NewSoftLink(name, targetPath)
	case TypeNamedDtype:
		dt, err := datatype.Decode(buf)
		if err != nil {
			return nil, err
		}
		o = NewNamedDtype(name, dt)
	case TypeCommittedDatatype:
		dt, err := datatype.Decode(buf)
		if err != nil {
			return nil, err
		}
		encoded, err := buf.GetBytes()
		if err != nil {
			return nil, err
		}
		o = NewCommittedDatatype(name, dt, encoded)
	default:
		return nil, MetadataError("deserialize", fmt.Errorf("unknown object type tag %d", typ))
	}

	restoreToken(o, tok)

	for i := 0; i < nChildren; i++ {
		child, err := deserializeInto(buf, pending)
		if err != nil {
			return nil, err
		}
		addChild(o, child)
	}
	return o, nil
}
