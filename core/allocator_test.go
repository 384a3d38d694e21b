// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx"
	"github.com/koru3d/inflight/gfx/gfxtest"
)

func TestAllocatorPolicies(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		policy core.MemoryPolicy
		typ    uint32
	}{
		{core.DeviceLocal, 0},
		{core.HostVisibleCoherent, 1},
		{core.AutoPreferDevice, 0},
		{core.AutoPreferHost, 1},
	}
	for _, test := range tests {
		f := newFixture(c)
		buf, alloc, err := f.ctx.Allocator.AllocateBuffer(64, gfx.BufferVertex, test.policy)
		c.Assert(err, qt.IsNil)
		c.Check(alloc.Type, qt.Equals, test.typ, qt.Commentf("policy %s", test.policy))
		c.Check(alloc.Policy, qt.Equals, test.policy)
		f.ctx.Allocator.DestroyBuffer(buf, alloc)
	}
}

func TestAllocatorPolicyFallback(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	f.dev.SetMemoryTypes(gfx.MemoryType{Properties: gfx.MemoryHostVisible | gfx.MemoryHostCoherent})

	_, alloc, err := f.ctx.Allocator.AllocateBuffer(64, gfx.BufferVertex, core.AutoPreferDevice)
	c.Assert(err, qt.IsNil)
	c.Assert(alloc.Type, qt.Equals, uint32(0))

	_, _, err = f.ctx.Allocator.AllocateBuffer(64, gfx.BufferVertex, core.DeviceLocal)
	c.Assert(err, qt.ErrorIs, gfx.ErrNoMemoryType)
	c.Assert(f.dev.Live(gfxtest.KindBuffer), qt.Equals, 1)
}

func TestAllocatorTracksBytes(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	a := f.ctx.Allocator

	b1, a1, err := a.AllocateBuffer(100, gfx.BufferVertex, core.HostVisibleCoherent)
	c.Assert(err, qt.IsNil)
	b2, a2, err := a.AllocateBuffer(1000, gfx.BufferIndex, core.DeviceLocal)
	c.Assert(err, qt.IsNil)
	c.Assert(a.AllocatedBytes(), qt.Equals, uint64(256+1024))
	c.Assert(a.Allocations(), qt.Equals, 2)

	a.DestroyBuffer(b1, a1)
	c.Assert(a.AllocatedBytes(), qt.Equals, uint64(1024))
	a.DestroyBuffer(b2, a2)
	c.Assert(a.AllocatedBytes(), qt.Equals, uint64(0))
	c.Assert(f.dev.Live(gfxtest.KindBuffer), qt.Equals, 0)
	c.Assert(f.dev.Live(gfxtest.KindMemory), qt.Equals, 0)
}

func TestAllocatorOutOfDeviceMemory(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	f.dev.MemoryLimit = 512

	_, _, err := f.ctx.Allocator.AllocateBuffer(1024, gfx.BufferVertex, core.DeviceLocal)
	c.Assert(err, qt.ErrorIs, gfx.ErrOutOfDeviceMemory)
	c.Assert(f.ctx.Allocator.AllocatedBytes(), qt.Equals, uint64(0))
	c.Assert(f.dev.Live(gfxtest.KindBuffer), qt.Equals, 0)

	_, _, err = f.ctx.Allocator.AllocateImage(gfx.ImageDescriptor{
		Format: gfx.FormatD16Unorm,
		Extent: gfx.Extent2D{Width: 64, Height: 64},
		Usage:  gfx.ImageDepthAttachment,
	}, core.DeviceLocal)
	c.Assert(err, qt.ErrorIs, gfx.ErrOutOfDeviceMemory)
	c.Assert(f.dev.Live(gfxtest.KindImage), qt.Equals, 0)
}

func TestAllocatorMap(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	a := f.ctx.Allocator

	buf, alloc, err := a.AllocateBuffer(16, gfx.BufferUniform, core.HostVisibleCoherent)
	c.Assert(err, qt.IsNil)
	data, err := a.Map(alloc)
	c.Assert(err, qt.IsNil)
	c.Assert(uint64(len(data)), qt.Equals, alloc.Size)
	copy(data, []byte{1, 2, 3, 4})

	again, err := a.Map(alloc)
	c.Assert(err, qt.IsNil)
	c.Assert(&again[0], qt.Equals, &data[0])
	c.Assert(buf.(*gfxtest.Buffer).Bytes()[:4], qt.DeepEquals, []byte{1, 2, 3, 4})

	a.Unmap(alloc)
	c.Assert(alloc.Memory.(*gfxtest.Memory).Mapped(), qt.IsFalse)
	a.DestroyBuffer(buf, alloc)

	_, local, err := a.AllocateBuffer(16, gfx.BufferVertex, core.DeviceLocal)
	c.Assert(err, qt.IsNil)
	_, err = a.Map(local)
	c.Assert(err, qt.ErrorMatches, ".*not host visible")
}
