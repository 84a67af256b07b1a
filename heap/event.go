package heap

import (
	"runtime"
	"strconv"
)

// EventOp ...
type EventOp uint16

const (
	// EventAllocated ...
	EventAllocated EventOp = 0
	// EventFreed ...
	EventFreed EventOp = 1
)

// Event describes one successful allocation or release. Addr is the
// payload offset, Size the block's payload size at the time of the
// event.
type Event struct {
	Op      EventOp
	BlockID uint32
	Addr    uint32
	Size    uint32
}

func (h *Heap) emit(e Event) {
	if h.onEvent != nil {
		h.onEvent(e)
	}
}

func callerSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return file + ":" + strconv.Itoa(line)
}

// recordSite stores the allocation site of the block at addr. Sites live
// in a side map so the in-arena header layout does not depend on the
// feature being enabled.
func (h *Heap) recordSite(addr uint32) {
	if !h.trackSites {
		return
	}
	if h.sites == nil {
		h.sites = map[uint32]string{}
	}
	h.sites[addr] = callerSite(3)
}

func (h *Heap) dropSite(addr uint32) {
	if h.sites != nil {
		delete(h.sites, addr)
	}
}

func (h *Heap) siteOf(addr uint32) string {
	if h.sites == nil {
		return ""
	}
	return h.sites[addr]
}
