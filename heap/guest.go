package heap

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// maxGuestPages is the wasm32 linear-memory limit (4 GiB).
const maxGuestPages = 65536

// guestStaticPages is the number of pages in front of the heap. They stand in
// for the guest's data and stack segments, so the heap base is never 0.
const guestStaticPages = 1

var errGuestGrow = errors.New("memory.grow refused")

// guestMemory grows a sandboxed WebAssembly linear memory hosted by wazero.
// The guest buffer is allocated at its maximum capacity, so memory.grow only
// extends its length and views stay valid.
type guestMemory struct {
	ctx context.Context
	rt  wazero.Runtime
	mem api.Memory
}

func newGuestMemory() sysMemory {
	return &guestMemory{ctx: context.Background()}
}

// NewGuest returns a heap backed by a wazero guest memory.
func NewGuest(reserve int) (*Heap, error) {
	return New(Options{Backend: BackendGuest, Reserve: reserve})
}

func (g *guestMemory) reserve(size int) (uintptr, error) {
	pages := size/PageSize + guestStaticPages
	if pages > maxGuestPages {
		pages = maxGuestPages
	}

	cfg := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(uint32(pages)).
		WithMemoryCapacityFromMax(true)
	rt := wazero.NewRuntimeWithConfig(g.ctx, cfg)

	mod, err := rt.Instantiate(g.ctx, guestModule(guestStaticPages, uint32(pages)))
	if err != nil {
		_ = rt.Close(g.ctx)
		return 0, fmt.Errorf("instantiate guest memory: %w", err)
	}
	mem := mod.ExportedMemory("memory")
	if mem == nil {
		_ = rt.Close(g.ctx)
		return 0, errors.New("guest module exports no memory")
	}

	g.rt = rt
	g.mem = mem
	return uintptr(guestStaticPages * PageSize), nil
}

func (g *guestMemory) commit(off, n int) error {
	want := uint32(guestStaticPages + off/PageSize)
	prev, ok := g.mem.Grow(uint32(n / PageSize))
	if !ok {
		return errGuestGrow
	}
	if prev != want {
		return fmt.Errorf("guest memory grown outside the heap: at %d pages, expected %d", prev, want)
	}
	return nil
}

func (g *guestMemory) view(n int) []byte {
	b, ok := g.mem.Read(guestStaticPages*PageSize, uint32(n))
	if !ok {
		return nil
	}
	return b
}

func (g *guestMemory) release() error {
	if g.rt == nil {
		return nil
	}
	err := g.rt.Close(g.ctx)
	g.rt = nil
	g.mem = nil
	return err
}

// guestModule encodes a minimal wasm module that declares one linear memory
// with the given limits and exports it as "memory".
func guestModule(minPages, maxPages uint32) []byte {
	limits := []byte{0x01, 0x01} // one memory, limits carry a maximum
	limits = binary.AppendUvarint(limits, uint64(minPages))
	limits = binary.AppendUvarint(limits, uint64(maxPages))

	exports := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}

	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}
	out = append(out, 0x05) // memory section
	out = binary.AppendUvarint(out, uint64(len(limits)))
	out = append(out, limits...)
	out = append(out, 0x07) // export section
	out = binary.AppendUvarint(out, uint64(len(exports)))
	out = append(out, exports...)
	return out
}
