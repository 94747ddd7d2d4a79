package heap

import (
	"fmt"
	"math/bits"

	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
)

// PageSize is the unit of commitment on every backend.
const PageSize = format.PageSize

const (
	// DefaultReserve is the address range reserved by native backends:
	// 4 GiB on 64-bit hosts, 1 GiB on 32-bit hosts.
	DefaultReserve = 1 << (30 + 2*(bits.UintSize/64))

	// DefaultGuestReserve is the linear-memory limit of the guest backend.
	// The guest buffer is sized to its limit up front so it never moves.
	DefaultGuestReserve = 1024 * PageSize
)

// Backend names accepted by Options.Backend.
const (
	BackendNative  = "native"
	BackendGuest   = "guest"
	BackendSyscall = "syscall"
	BackendMapped  = "mapped"
	BackendVirtual = "virtual"
)

// Provider is the contract the buddy allocator grows against.
type Provider interface {
	// Base returns the address of the first heap byte, or 0 before the
	// provider has been initialized.
	Base() uintptr

	// Size returns the committed byte count, a multiple of PageSize.
	Size() int

	// Grow commits at least n more bytes above the current top and returns
	// the previous top. The first call initializes the provider; Grow(0)
	// therefore doubles as lazy initialization.
	Grow(n int) (uintptr, error)

	// Bytes returns the committed region starting at Base. Slices taken from
	// it stay valid across later growth.
	Bytes() []byte
}

// sysMemory is the per-backend primitive: reserve once, commit page runs.
type sysMemory interface {
	// reserve claims size bytes of address space and returns their base.
	reserve(size int) (uintptr, error)
	// commit makes [off, off+n) relative to the base readable and writable.
	commit(off, n int) error
	// view returns the first n committed bytes.
	view(n int) []byte
	// release returns the whole reservation to the OS.
	release() error
}

// Options configures a Heap.
type Options struct {
	// Backend selects the growth primitive. Empty means BackendNative.
	Backend string

	// Reserve is the size of the address range to reserve, rounded up to
	// PageSize. Zero means DefaultReserve (DefaultGuestReserve for the guest).
	Reserve int
}

// Heap is a reserved address range committed page by page.
type Heap struct {
	backend   string
	sys       sysMemory
	reserve   int
	base      uintptr
	committed int
	mem       []byte
}

// backends maps a backend name to its constructor. Platform files register
// the backends they can build.
var backends = map[string]func() sysMemory{
	BackendGuest: newGuestMemory,
}

// New creates a heap for the given options. Nothing is reserved until Init
// or the first Grow.
func New(opts Options) (*Heap, error) {
	name := opts.Backend
	if name == "" || name == BackendNative {
		name = nativeBackend
	}

	ctor, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}

	reserve := opts.Reserve
	switch {
	case reserve < 0:
		return nil, fmt.Errorf("%w: reserve %d", ErrBadSize, reserve)
	case reserve == 0 && name == BackendGuest:
		reserve = DefaultGuestReserve
	case reserve == 0:
		reserve = DefaultReserve
	}
	if reserve > DefaultReserve {
		reserve = DefaultReserve
	}
	reserve = format.AlignPage(reserve)

	return &Heap{backend: name, sys: ctor(), reserve: reserve}, nil
}

// Init reserves the address range and commits the first page. It is
// idempotent.
func (h *Heap) Init() error {
	if h.base != 0 {
		return nil
	}

	base, err := h.sys.reserve(h.reserve)
	if err != nil {
		return fmt.Errorf("%w: %d bytes via %s: %w", ErrReserve, h.reserve, h.backend, err)
	}
	if err := h.sys.commit(0, PageSize); err != nil {
		_ = h.sys.release()
		return fmt.Errorf("%w: first page via %s: %w", ErrCommit, h.backend, err)
	}

	h.base = base
	h.committed = PageSize
	h.mem = h.sys.view(h.committed)

	logger.Debug("heap reserved",
		"backend", h.backend,
		"base", fmt.Sprintf("%#x", base),
		"reserved", h.reserve,
	)
	return nil
}

// Base returns the heap base address, or 0 if the heap is not initialized.
func (h *Heap) Base() uintptr { return h.base }

// Size returns the committed byte count.
func (h *Heap) Size() int { return h.committed }

// Reserved returns the size of the reserved range.
func (h *Heap) Reserved() int { return h.reserve }

// Backend returns the resolved backend name.
func (h *Heap) Backend() string { return h.backend }

// Bytes returns the committed region.
func (h *Heap) Bytes() []byte { return h.mem }

// Grow commits ceil(n/PageSize) more pages and returns the previous top.
// On failure the committed region is unchanged.
func (h *Heap) Grow(n int) (uintptr, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: grow %d", ErrBadSize, n)
	}
	if err := h.Init(); err != nil {
		return 0, err
	}

	top := h.base + uintptr(h.committed)
	if n == 0 {
		return top, nil
	}

	room := h.reserve - h.committed
	if n > room {
		return 0, fmt.Errorf("%w: need %d bytes, %d left", ErrExhausted, n, room)
	}
	grow := format.AlignPage(n)
	if grow > room {
		return 0, fmt.Errorf("%w: need %d bytes, %d left", ErrExhausted, grow, room)
	}

	if err := h.sys.commit(h.committed, grow); err != nil {
		return 0, fmt.Errorf("%w: %d bytes at offset %d: %w", ErrCommit, grow, h.committed, err)
	}

	h.committed += grow
	h.mem = h.sys.view(h.committed)

	logger.Debug("heap grew", "backend", h.backend, "pages", grow/PageSize, "committed", h.committed)
	return top, nil
}

// Close releases the reservation. Slices obtained from the heap must not be
// used afterwards. The process-wide default heap is never closed.
func (h *Heap) Close() error {
	if h.base == 0 {
		return nil
	}
	err := h.sys.release()
	h.base = 0
	h.committed = 0
	h.mem = nil
	return err
}

// Compile-time interface check
var _ Provider = (*Heap)(nil)
