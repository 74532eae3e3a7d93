// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource_test

import (
	"context"
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kore/resource"
)

type plain struct {
	data []byte
}

func readyManager(c *qt.C) (*resource.Manager[mesh], *gatedConstructor) {
	ctor := newGated()
	ctor.open()
	return resource.NewManager[mesh]("mesh", ctor), ctor
}

func TestHandleCachesIndex(t *testing.T) {
	c := qt.New(t)
	m, _ := readyManager(c)
	m.Request("other")

	h := resource.NewHandle[mesh]("mesh/cube.dae")
	_, ok := h.Index()
	c.Assert(ok, qt.IsFalse)

	v, err := h.ResolveWait(context.Background(), m)
	c.Assert(err, qt.IsNil)
	c.Assert(v.name, qt.Equals, "mesh/cube.dae")

	idx, ok := h.Index()
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, 1)

	again, err := h.Resolve(m)
	c.Assert(err, qt.IsNil)
	c.Assert(again == v, qt.IsTrue)
	c.Assert(m.Len(), qt.Equals, 2)
}

func TestHandlePrivateInstanceNeverTouchesManager(t *testing.T) {
	c := qt.New(t)
	m, ctor := readyManager(c)
	own := &mesh{name: "procedural"}
	h := resource.NewHandleWithInstance("procedural", own)
	c.Assert(h.Owned(), qt.IsTrue)

	v, err := h.Resolve(m)
	c.Assert(err, qt.IsNil)
	c.Assert(v == own, qt.IsTrue)
	v, err = h.ResolveWait(context.Background(), m)
	c.Assert(err, qt.IsNil)
	c.Assert(v == own, qt.IsTrue)
	v, err = h.ResolveNow(m)
	c.Assert(err, qt.IsNil)
	c.Assert(v == own, qt.IsTrue)

	c.Assert(m.Len(), qt.Equals, 0)
	c.Assert(ctor.createdCount("procedural"), qt.Equals, 0)
	_, ok := h.Index()
	c.Assert(ok, qt.IsFalse)
}

func TestHandleForeignManager(t *testing.T) {
	c := qt.New(t)
	first, _ := readyManager(c)
	second, _ := readyManager(c)

	h := resource.NewHandle[mesh]("a")
	_, err := h.ResolveWait(context.Background(), first)
	c.Assert(err, qt.IsNil)

	_, err = h.Resolve(second)
	c.Assert(err, qt.ErrorIs, resource.ErrForeignManager)
	_, err = h.ResolveNow(second)
	c.Assert(err, qt.ErrorIs, resource.ErrForeignManager)
	c.Assert(second.Len(), qt.Equals, 0)
}

func TestHandleResolveNow(t *testing.T) {
	c := qt.New(t)
	m, ctor := readyManager(c)

	h := resource.NewHandle[mesh]("fbo_all")
	v, err := h.ResolveNow(m)
	c.Assert(err, qt.IsNil)
	c.Assert(v.name, qt.Equals, "fbo_all")
	c.Assert(v.initialized, qt.IsTrue)
	idx, ok := h.Index()
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, 0)

	v2, err := h.ResolveNow(m)
	c.Assert(err, qt.IsNil)
	c.Assert(v2 == v, qt.IsTrue)
	c.Assert(ctor.createdCount("fbo_all"), qt.Equals, 1)
}

func TestHandleClone(t *testing.T) {
	c := qt.New(t)
	m, _ := readyManager(c)

	c.Run("bound handle shares the slot", func(c *qt.C) {
		h := resource.NewHandle[mesh]("a")
		want, err := h.ResolveWait(context.Background(), m)
		c.Assert(err, qt.IsNil)

		cl, err := h.Clone()
		c.Assert(err, qt.IsNil)
		idx, ok := cl.Index()
		c.Assert(ok, qt.IsTrue)
		c.Assert(idx, qt.Equals, 0)
		got, err := cl.Resolve(m)
		c.Assert(err, qt.IsNil)
		c.Assert(got == want, qt.IsTrue)
	})

	c.Run("private instance is deep copied", func(c *qt.C) {
		own := &mesh{name: "procedural"}
		h := resource.NewHandleWithInstance("procedural", own)
		cl, err := h.Clone()
		c.Assert(err, qt.IsNil)
		got, err := cl.Resolve(m)
		c.Assert(err, qt.IsNil)
		c.Assert(got == own, qt.IsFalse)
		c.Assert(*got, qt.Equals, *own)
	})

	c.Run("instance without Cloner is refused", func(c *qt.C) {
		h := resource.NewHandleWithInstance("blob", &plain{data: []byte{1}})
		_, err := h.Clone()
		c.Assert(err, qt.ErrorIs, resource.ErrNotClonable)
	})
}

func TestHandleJSON(t *testing.T) {
	c := qt.New(t)
	m, _ := readyManager(c)

	h := resource.NewHandle[mesh]("mesh/cube.dae")
	_, err := h.ResolveWait(context.Background(), m)
	c.Assert(err, qt.IsNil)

	data, err := json.Marshal(h)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"name":"mesh/cube.dae"}`)

	var decoded resource.Handle[mesh]
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded.Name(), qt.Equals, "mesh/cube.dae")
	_, ok := decoded.Index()
	c.Assert(ok, qt.IsFalse)
}

func BenchmarkHandleResolveWarm(b *testing.B) {
	ctor := newGated()
	ctor.open()
	m := resource.NewManager[mesh]("mesh", ctor)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		m.Request(name)
	}
	h := resource.NewHandle[mesh]("d")
	if _, err := h.ResolveWait(context.Background(), m); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		if _, err := h.Resolve(m); err != nil {
			b.Fatal(err)
		}
	}
}
