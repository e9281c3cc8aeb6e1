//go:build !ios && !android && (amd64 || arm64)

// Package dav1d provides low-level bindings to the dav1d AV1 decoder library
// (libdav1d) without CGO, using purego. The struct layouts and settings
// surface follow the dav1d 0.9 ABI (soname 5), which exposes separate frame
// and tile thread counts.
//
// Most users should use the high-level dav1dgo package instead.
package dav1d

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/dav1dgo/internal/bindings"
	"github.com/obinnaokechukwu/dav1dgo/internal/handles"
)

// Function bindings
var (
	dav1dDefaultSettings func(s unsafe.Pointer)
	dav1dOpen            func(ctx *uintptr, s unsafe.Pointer) int32
	dav1dSendData        func(ctx uintptr, data unsafe.Pointer) int32
	dav1dGetPicture      func(ctx uintptr, pic unsafe.Pointer) int32
	dav1dFlush           func(ctx uintptr)
	dav1dClose           func(ctx *uintptr)
	dav1dDataWrap        func(data unsafe.Pointer, buf unsafe.Pointer, sz uint, freeCB uintptr, cookie uintptr) int32
	dav1dDataUnref       func(data unsafe.Pointer)
	dav1dPictureUnref    func(pic unsafe.Pointer)

	bindingsRegistered bool
	bindingsMu         sync.Mutex
)

func init() {
	registerBindings()
}

func registerBindings() {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()

	if bindingsRegistered {
		return
	}

	if err := bindings.Load(); err != nil {
		return
	}

	lib := bindings.LibDav1d()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&dav1dDefaultSettings, lib, "dav1d_default_settings")
	purego.RegisterLibFunc(&dav1dOpen, lib, "dav1d_open")
	purego.RegisterLibFunc(&dav1dSendData, lib, "dav1d_send_data")
	purego.RegisterLibFunc(&dav1dGetPicture, lib, "dav1d_get_picture")
	purego.RegisterLibFunc(&dav1dFlush, lib, "dav1d_flush")
	purego.RegisterLibFunc(&dav1dClose, lib, "dav1d_close")
	purego.RegisterLibFunc(&dav1dDataWrap, lib, "dav1d_data_wrap")
	purego.RegisterLibFunc(&dav1dDataUnref, lib, "dav1d_data_unref")
	purego.RegisterLibFunc(&dav1dPictureUnref, lib, "dav1d_picture_unref")

	bindingsRegistered = true
}

func loaded() bool {
	registerBindings()
	bindingsMu.Lock()
	defer bindingsMu.Unlock()
	return bindingsRegistered
}

// Version returns the dav1d version string, or "" if the library is not
// loaded.
func Version() string {
	registerBindings()
	return bindings.Version()
}

// Allocator supplies destination buffers for decoded pictures. dav1d calls
// AllocPicture once per frame it decodes, with the picture dimensions and
// sequence header already filled in, and ReleasePicture exactly once when it
// no longer needs the buffer.
//
// Plane buffers wired in via Picture.SetPlanes must satisfy dav1d's
// allocator contract: padded dimensions and 64-byte aligned plane starts.
type Allocator interface {
	AllocPicture(pic *Picture) error
	ReleasePicture(pic *Picture)
}

// cSettings mirrors Dav1dSettings (dav1d 0.9 ABI, 64-bit).
type cSettings struct {
	nFrameThreads      int32   // offset 0
	nTileThreads       int32   // offset 4
	applyGrain         int32   // offset 8
	operatingPoint     int32   // offset 12
	allLayers          int32   // offset 16
	frameSizeLimit     uint32  // offset 20
	allocCookie        uintptr // offset 24: Dav1dPicAllocator.cookie
	allocPicture       uintptr // offset 32: alloc_picture_callback
	releasePicture     uintptr // offset 40: release_picture_callback
	loggerCookie       uintptr // offset 48: Dav1dLogger.cookie
	loggerCallback     uintptr // offset 56: Dav1dLogger.callback
	nPostfilterThreads int32   // offset 64
	reserved           [28]byte
}

// Settings configures a decoder instance.
type Settings struct {
	// FrameThreads and TileThreads are passed to dav1d verbatim; deriving
	// "auto" values from the CPU count is the caller's job.
	FrameThreads int
	TileThreads  int

	// ApplyGrain enables film grain synthesis.
	ApplyGrain bool

	// FrameSizeLimit caps the pixel count of a decodable frame (0 = default).
	FrameSizeLimit uint32

	// Allocator replaces dav1d's internal picture allocator. Nil keeps the
	// library default (dav1d allocates its own buffers).
	Allocator Allocator
}

// Callback trampolines, created once and shared by all contexts. The
// per-context Allocator is recovered through the cookie.
var (
	callbackOnce  sync.Once
	allocCBPtr    uintptr
	releaseCBPtr  uintptr
	dataFreeCBPtr uintptr
)

type dataHold struct {
	buf  []byte // pinned until dav1d releases its reference
	free func()
}

func initCallbacks() {
	callbackOnce.Do(func() {
		// int (*alloc_picture_callback)(Dav1dPicture *pic, void *cookie)
		allocCBPtr = purego.NewCallback(func(_ purego.CDecl, pic uintptr, cookie uintptr) uintptr {
			a, ok := handles.Lookup(cookie).(Allocator)
			if !ok {
				code := int64(CodeInval)
				return uintptr(code)
			}
			p := &Picture{ptr: pic}
			if err := a.AllocPicture(p); err != nil {
				if code := Code(err); code < 0 {
					return uintptr(int64(code))
				}
				code := int64(CodeNoMem)
				return uintptr(code)
			}
			return 0
		})

		// void (*release_picture_callback)(Dav1dPicture *pic, void *cookie)
		releaseCBPtr = purego.NewCallback(func(_ purego.CDecl, pic uintptr, cookie uintptr) {
			p := &Picture{ptr: pic}
			if a, ok := handles.Lookup(cookie).(Allocator); ok && p.holdRef() != nil {
				a.ReleasePicture(p)
			}
			p.releaseHold()
		})

		// void (*free_callback)(const uint8_t *buf, void *cookie)
		dataFreeCBPtr = purego.NewCallback(func(_ purego.CDecl, _ uintptr, cookie uintptr) {
			hold, ok := handles.Lookup(cookie).(*dataHold)
			if !ok {
				return
			}
			handles.Unregister(cookie)
			if hold.free != nil {
				hold.free()
			}
		})
	})
}

// Context is an open dav1d decoder instance.
type Context struct {
	ptr         uintptr
	allocCookie uintptr
}

// Open creates a decoder instance with the given settings.
func Open(s *Settings) (*Context, error) {
	registerBindings()
	if dav1dOpen == nil {
		return nil, bindings.ErrNotLoaded
	}

	var cs cSettings
	if dav1dDefaultSettings != nil {
		dav1dDefaultSettings(unsafe.Pointer(&cs))
	}

	cs.nFrameThreads = int32(s.FrameThreads)
	cs.nTileThreads = int32(s.TileThreads)
	if s.ApplyGrain {
		cs.applyGrain = 1
	} else {
		cs.applyGrain = 0
	}
	if s.FrameSizeLimit != 0 {
		cs.frameSizeLimit = s.FrameSizeLimit
	}

	var cookie uintptr
	if s.Allocator != nil {
		initCallbacks()
		cookie = handles.Register(s.Allocator)
		cs.allocCookie = cookie
		cs.allocPicture = allocCBPtr
		cs.releasePicture = releaseCBPtr
	}

	var ctx uintptr
	ret := dav1dOpen(&ctx, unsafe.Pointer(&cs))
	runtime.KeepAlive(&cs)
	if ret < 0 {
		if cookie != 0 {
			handles.Unregister(cookie)
		}
		return nil, NewError(ret, "dav1d_open")
	}

	return &Context{ptr: ctx, allocCookie: cookie}, nil
}

// SendData feeds compressed data to the decoder. dav1d may consume the input
// only partially; Data.Size reports what remains. A CodeAgain error means the
// decoder cannot accept more input until pictures are drained via GetPicture.
func (c *Context) SendData(d *Data) error {
	if c == nil || c.ptr == 0 || dav1dSendData == nil {
		return bindings.ErrNotLoaded
	}
	ret := dav1dSendData(c.ptr, unsafe.Pointer(&d.c[0]))
	runtime.KeepAlive(d)
	return NewError(ret, "dav1d_send_data")
}

// GetPicture retrieves the next decoded picture, if any. A CodeAgain error
// means no picture is ready. The caller owns the returned picture and must
// call Unref on it.
func (c *Context) GetPicture() (*Picture, error) {
	if c == nil || c.ptr == 0 || dav1dGetPicture == nil {
		return nil, bindings.ErrNotLoaded
	}
	p := newPicture()
	ret := dav1dGetPicture(c.ptr, unsafe.Pointer(&p.goBuf[0]))
	if ret < 0 {
		return nil, NewError(ret, "dav1d_get_picture")
	}
	return p, nil
}

// Flush discards all buffered and in-flight decode state. Pending output
// pictures are dropped; their buffers go back through the allocator's
// release callback.
func (c *Context) Flush() {
	if c == nil || c.ptr == 0 || dav1dFlush == nil {
		return
	}
	dav1dFlush(c.ptr)
}

// Close destroys the decoder instance. Safe to call multiple times.
func (c *Context) Close() {
	if c == nil {
		return
	}
	if c.ptr != 0 && dav1dClose != nil {
		dav1dClose(&c.ptr)
	}
	c.ptr = 0
	if c.allocCookie != 0 {
		handles.Unregister(c.allocCookie)
		c.allocCookie = 0
	}
}

// Dav1dData layout (dav1d 0.9 ABI, 64-bit):
// const uint8_t *data @0, size_t sz @8, Dav1dRef *ref @16, Dav1dDataProps m @24.
const (
	dataSize     = 72
	dataSzOffset = 8
)

// Data is a Dav1dData input descriptor wrapping one compressed access unit.
type Data struct {
	c   [dataSize]byte
	buf []byte // keepalive; additionally pinned via the dataHold cookie
}

// WrapData wraps buf into an input descriptor without copying. dav1d takes a
// reference on the buffer; free is called exactly once when the library is
// done reading it. The buffer must not be modified until then.
func WrapData(buf []byte, free func()) (*Data, error) {
	registerBindings()
	if dav1dDataWrap == nil {
		return nil, bindings.ErrNotLoaded
	}
	if len(buf) == 0 {
		return nil, NewError(CodeInval, "dav1d_data_wrap")
	}

	initCallbacks()

	d := &Data{buf: buf}
	cookie := handles.Register(&dataHold{buf: buf, free: free})
	ret := dav1dDataWrap(unsafe.Pointer(&d.c[0]), unsafe.Pointer(&buf[0]), uint(len(buf)), dataFreeCBPtr, cookie)
	if ret < 0 {
		handles.Unregister(cookie)
		return nil, NewError(ret, "dav1d_data_wrap")
	}
	return d, nil
}

// Size returns the number of input bytes not yet consumed by the decoder.
func (d *Data) Size() int {
	if d == nil {
		return 0
	}
	return int(*(*uint64)(unsafe.Pointer(&d.c[dataSzOffset])))
}

// Unref releases the descriptor without the decoder consuming the rest of
// it. The wrap-time free callback fires once dav1d drops its reference.
func (d *Data) Unref() {
	if d == nil || dav1dDataUnref == nil {
		return
	}
	dav1dDataUnref(unsafe.Pointer(&d.c[0]))
	runtime.KeepAlive(d)
}
