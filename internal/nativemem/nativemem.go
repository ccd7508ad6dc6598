// Package nativemem is an in-process double of internal/native.Connector
// backed by plain Go maps, used by tests and the example cmd/ drivers in
// place of a real linked HDF5 library (spec §1 keeps the native connector
// itself out of scope; only the VOL interception around it is this
// module's concern).
package nativemem

import (
	"fmt"

	"github.com/scigolib/lowfive/internal/native"
)

type object struct {
	kind     string
	name     string
	parent   *object
	children map[string]*object
	typ      interface{}
	space    interface{}
	data     []byte
}

func newObject(kind, name string, parent *object) *object {
	return &object{kind: kind, name: name, parent: parent, children: make(map[string]*object)}
}

// Connector implements native.Connector entirely in memory.
type Connector struct {
	files map[string]*object
}

// New constructs an empty in-memory native connector.
func New() *Connector {
	return &Connector{files: make(map[string]*object)}
}

func (c *Connector) FileCreate(name string, flags int, fcpl, fapl interface{}) (native.Handle, error) {
	o := newObject("file", name, nil)
	c.files[name] = o
	return o, nil
}

func (c *Connector) FileOpen(name string, flags int, fapl interface{}) (native.Handle, error) {
	o, ok := c.files[name]
	if !ok {
		return nil, fmt.Errorf("nativemem: no such file %q", name)
	}
	return o, nil
}

func (c *Connector) FileClose(h native.Handle) error {
	return nil
}

func asObject(h native.Handle) (*object, error) {
	o, ok := h.(*object)
	if !ok {
		return nil, fmt.Errorf("nativemem: invalid handle %v", h)
	}
	return o, nil
}

func (c *Connector) GroupCreate(parent native.Handle, name string, gcpl interface{}) (native.Handle, error) {
	p, err := asObject(parent)
	if err != nil {
		return nil, err
	}
	child := newObject("group", name, p)
	p.children[name] = child
	return child, nil
}

func (c *Connector) GroupOpen(parent native.Handle, name string) (native.Handle, error) {
	p, err := asObject(parent)
	if err != nil {
		return nil, err
	}
	child, ok := p.children[name]
	if !ok {
		return nil, fmt.Errorf("nativemem: no such group %q", name)
	}
	return child, nil
}

func (c *Connector) GroupClose(h native.Handle) error { return nil }

func (c *Connector) DatasetCreate(parent native.Handle, name string, typ, space interface{}, dcpl, dapl interface{}) (native.Handle, error) {
	p, err := asObject(parent)
	if err != nil {
		return nil, err
	}
	child := newObject("dataset", name, p)
	child.typ = typ
	child.space = space
	p.children[name] = child
	return child, nil
}

func (c *Connector) DatasetOpen(parent native.Handle, name string, dapl interface{}) (native.Handle, error) {
	p, err := asObject(parent)
	if err != nil {
		return nil, err
	}
	child, ok := p.children[name]
	if !ok {
		return nil, fmt.Errorf("nativemem: no such dataset %q", name)
	}
	return child, nil
}

func (c *Connector) DatasetClose(h native.Handle) error { return nil }

func (c *Connector) DatasetWrite(h native.Handle, memType, memSpace, fileSpace interface{}, buf []byte) error {
	o, err := asObject(h)
	if err != nil {
		return err
	}
	o.data = append([]byte(nil), buf...)
	return nil
}

func (c *Connector) DatasetRead(h native.Handle, memType, memSpace, fileSpace interface{}, buf []byte) error {
	o, err := asObject(h)
	if err != nil {
		return err
	}
	n := copy(buf, o.data)
	_ = n
	return nil
}

func (c *Connector) AttributeCreate(parent native.Handle, name string, typ, space interface{}, acpl interface{}) (native.Handle, error) {
	p, err := asObject(parent)
	if err != nil {
		return nil, err
	}
	child := newObject("attribute", name, p)
	child.typ = typ
	child.space = space
	p.children[name] = child
	return child, nil
}

func (c *Connector) AttributeOpen(parent native.Handle, name string) (native.Handle, error) {
	p, err := asObject(parent)
	if err != nil {
		return nil, err
	}
	child, ok := p.children[name]
	if !ok {
		return nil, fmt.Errorf("nativemem: no such attribute %q", name)
	}
	return child, nil
}

func (c *Connector) AttributeClose(h native.Handle) error { return nil }

func (c *Connector) AttributeWrite(h native.Handle, memType interface{}, buf []byte) error {
	o, err := asObject(h)
	if err != nil {
		return err
	}
	o.data = append([]byte(nil), buf...)
	return nil
}

func (c *Connector) AttributeRead(h native.Handle, memType interface{}, buf []byte) error {
	o, err := asObject(h)
	if err != nil {
		return err
	}
	copy(buf, o.data)
	return nil
}

func (c *Connector) LinkCreateHard(parent native.Handle, name string, target native.Handle) error {
	p, err := asObject(parent)
	if err != nil {
		return err
	}
	t, err := asObject(target)
	if err != nil {
		return err
	}
	p.children[name] = t
	return nil
}

func (c *Connector) LinkCreateSoft(parent native.Handle, name string, targetPath string) error {
	p, err := asObject(parent)
	if err != nil {
		return err
	}
	link := newObject("softlink", name, p)
	link.data = []byte(targetPath)
	p.children[name] = link
	return nil
}
