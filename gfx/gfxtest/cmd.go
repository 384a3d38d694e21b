// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest

import (
	"fmt"

	"github.com/koru3d/inflight/gfx"
)

const (
	stateInitial = iota
	stateRecording
	stateExecutable
)

// Command is a recorded command buffer operation.
type Command struct {
	Name      string
	Pipeline  gfx.Pipeline
	Buffer    gfx.Buffer
	Offset    uint64
	Count     uint32
	Instances uint32
	First     uint32
	Data      []byte
}

// CommandBuffer is a fake command buffer logging what is recorded into it.
type CommandBuffer struct {
	ID int

	// Commands recorded since the last Reset.
	Commands []Command

	dev         *Device
	state       int
	inPass      bool
	submissions int
	freed       bool
}

// NewCommandBuffers implements interface
func (d *Device) NewCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	buffers := make([]gfx.CommandBuffer, count)
	for i := range buffers {
		d.create(KindCommandBuffer)
		buffers[i] = &CommandBuffer{ID: d.id(), dev: d}
	}
	return buffers, nil
}

// FreeCommandBuffers implements interface
func (d *Device) FreeCommandBuffers(buffers []gfx.CommandBuffer) {
	for _, b := range buffers {
		cb := b.(*CommandBuffer)
		if cb.freed {
			panic(fmt.Sprintf("gfxtest: command buffer %d freed twice", cb.ID))
		}
		cb.freed = true
		d.destroy(KindCommandBuffer)
	}
}

// Submissions returns how many times the buffer was submitted.
func (cb *CommandBuffer) Submissions() int { return cb.submissions }

// Recording reports whether the buffer is between Begin and End.
func (cb *CommandBuffer) Recording() bool { return cb.state == stateRecording }

// Draws returns the draw commands recorded since the last Reset.
func (cb *CommandBuffer) Draws() []Command {
	var draws []Command
	for _, c := range cb.Commands {
		if c.Name == "draw" || c.Name == "drawIndexed" {
			draws = append(draws, c)
		}
	}
	return draws
}

// Names returns the names of the recorded commands in order.
func (cb *CommandBuffer) Names() []string {
	names := make([]string, len(cb.Commands))
	for i, c := range cb.Commands {
		names[i] = c.Name
	}
	return names
}

func (cb *CommandBuffer) record(c Command) {
	if cb.state != stateRecording {
		panic(fmt.Sprintf("gfxtest: %s recorded into command buffer %d outside of recording", c.Name, cb.ID))
	}
	cb.Commands = append(cb.Commands, c)
}

// Reset implements interface
func (cb *CommandBuffer) Reset() error {
	cb.Commands = nil
	cb.inPass = false
	cb.state = stateInitial
	return nil
}

// Begin implements interface
func (cb *CommandBuffer) Begin() error {
	if cb.state == stateRecording {
		return fmt.Errorf("gfxtest: command buffer %d already recording", cb.ID)
	}
	cb.Commands = nil
	cb.state = stateRecording
	return nil
}

// End implements interface
func (cb *CommandBuffer) End() error {
	if cb.state != stateRecording {
		return fmt.Errorf("gfxtest: command buffer %d not recording", cb.ID)
	}
	if cb.inPass {
		return fmt.Errorf("gfxtest: command buffer %d ended inside a render pass", cb.ID)
	}
	cb.state = stateExecutable
	return nil
}

// BeginRenderPass implements interface
func (cb *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, target gfx.Framebuffer, area gfx.Extent2D, clear gfx.ClearValues) {
	if cb.inPass {
		panic("gfxtest: nested render pass")
	}
	cb.record(Command{Name: "beginRenderPass", Count: area.Width, Instances: area.Height})
	cb.inPass = true
}

// EndRenderPass implements interface
func (cb *CommandBuffer) EndRenderPass() {
	if !cb.inPass {
		panic("gfxtest: render pass ended outside of a render pass")
	}
	cb.record(Command{Name: "endRenderPass"})
	cb.inPass = false
}

// SetViewport implements interface
func (cb *CommandBuffer) SetViewport(area gfx.Extent2D) {
	cb.record(Command{Name: "viewport", Count: area.Width, Instances: area.Height})
}

// BindPipeline implements interface
func (cb *CommandBuffer) BindPipeline(p gfx.Pipeline) {
	cb.record(Command{Name: "bindPipeline", Pipeline: p})
}

// BindDescriptorSet implements interface
func (cb *CommandBuffer) BindDescriptorSet(p gfx.Pipeline, set gfx.DescriptorSet) {
	cb.record(Command{Name: "bindDescriptorSet", Pipeline: p})
}

// BindVertexBuffer implements interface
func (cb *CommandBuffer) BindVertexBuffer(b gfx.Buffer, offset uint64) {
	cb.record(Command{Name: "bindVertexBuffer", Buffer: b, Offset: offset})
}

// BindIndexBuffer implements interface
func (cb *CommandBuffer) BindIndexBuffer(b gfx.Buffer, offset uint64, t gfx.IndexType) {
	cb.record(Command{Name: "bindIndexBuffer", Buffer: b, Offset: offset})
}

// PushConstants implements interface
func (cb *CommandBuffer) PushConstants(p gfx.Pipeline, stages gfx.ShaderStage, data []byte) {
	if uint32(len(data)) > cb.dev.Limits().MaxPushConstantsSize {
		panic(fmt.Sprintf("gfxtest: %d bytes of push constants exceed the device limit", len(data)))
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	cb.record(Command{Name: "pushConstants", Pipeline: p, Data: cp})
}

// Draw implements interface
func (cb *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex uint32) {
	if !cb.inPass {
		panic("gfxtest: draw outside of a render pass")
	}
	cb.record(Command{Name: "draw", Count: vertexCount, Instances: instanceCount, First: firstVertex})
}

// DrawIndexed implements interface
func (cb *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32) {
	if !cb.inPass {
		panic("gfxtest: draw outside of a render pass")
	}
	cb.record(Command{Name: "drawIndexed", Count: indexCount, Instances: instanceCount, First: firstIndex})
}
