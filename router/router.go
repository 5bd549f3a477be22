// Package router implements the session router described in spec 4.F
// and spec 3's "Session Router Route": correlating SSRCs, CNAMEs, and
// source addresses to sessions, with four secondary indexes and
// rollback-on-failure semantics. It is grounded on the SSRC-keyed
// session map pattern in the teacher repo (madpsy-ka9q_ubersdr's
// AudioReceiver.sessions / Session lookup by SSRC in audio.go and
// session.go), generalized from "one map keyed by SSRC" to the full
// four-index route model the spec requires, and on the CNAME-merge
// rollback behavior documented in original_source's
// roc_rtcp/session_group equivalents (§3 "Allocation failure... rolls
// back to a consistent state").
package router

import (
	"github.com/roc-streaming/rocrecv/status"
)

// Session is the minimal session identity the router needs: anything
// comparable the caller uses to reference its own session objects.
// The pipeline package's *session.Session satisfies this by identity
// (pointer equality), avoiding an import cycle between router and
// session.
type Session interface{}

// route owns zero or more source ids, at most one CNAME, at most one
// address, at most one session, and records which SSRC it was
// originally created with (the "main" SSRC), per spec 3.
type route struct {
	sources  map[uint32]struct{}
	mainSSRC uint32
	hasMain  bool
	cname    string
	hasCNAME bool
	addr     string
	hasAddr  bool
	sess     Session
	hasSess  bool
}

func newRoute() *route {
	return &route{sources: make(map[uint32]struct{})}
}

// ErrConflict is returned when an operation would violate the "at most
// one route per key" invariant without a clear merge target.
var ErrConflict = status.NoRoute

// Router correlates SSRC / CNAME / source address / session via four
// secondary indexes into a shared set of routes, per spec 4.F.
type Router struct {
	bySource  map[uint32]*route
	byAddress map[string]*route
	byCNAME   map[string]*route
	bySession map[Session]*route
}

// New creates an empty Router.
func New() *Router {
	return &Router{
		bySource:  make(map[uint32]*route),
		byAddress: make(map[string]*route),
		byCNAME:   make(map[string]*route),
		bySession: make(map[Session]*route),
	}
}

// AddSession registers sess as the owner of ssrc at addr. If ssrc
// already has a route without a session, sess attaches to it; else a
// conflict check runs (is addr or sess already registered elsewhere)
// and, if clear, a new route is created with ssrc as its main SSRC.
func (r *Router) AddSession(sess Session, ssrc uint32, addr string) status.Code {
	if _, ok := r.bySession[sess]; ok {
		return status.NoRoute
	}

	if rt, ok := r.bySource[ssrc]; ok {
		if rt.hasSess {
			return status.NoRoute
		}
		if rt.hasAddr && rt.addr != addr {
			return status.NoRoute
		}
		if !rt.hasAddr {
			if _, taken := r.byAddress[addr]; taken {
				return status.NoRoute
			}
		}
		rt.sess = sess
		rt.hasSess = true
		rt.mainSSRC = ssrc
		rt.hasMain = true
		if !rt.hasAddr {
			rt.addr = addr
			rt.hasAddr = true
			r.byAddress[addr] = rt
		}
		r.bySession[sess] = rt
		return status.OK
	}

	if _, ok := r.byAddress[addr]; ok {
		return status.NoRoute
	}

	rt := newRoute()
	rt.sources[ssrc] = struct{}{}
	rt.mainSSRC = ssrc
	rt.hasMain = true
	rt.addr = addr
	rt.hasAddr = true
	rt.sess = sess
	rt.hasSess = true

	r.bySource[ssrc] = rt
	r.byAddress[addr] = rt
	r.bySession[sess] = rt
	return status.OK
}

// RemoveSession removes sess and its entire route: all source ids, the
// CNAME, and the address.
func (r *Router) RemoveSession(sess Session) status.Code {
	rt, ok := r.bySession[sess]
	if !ok {
		return status.NoRoute
	}
	r.deleteRoute(rt)
	return status.OK
}

// LinkSource associates ssrc with cname, per spec 4.F: creating or
// merging routes as needed. If ssrc is the main SSRC of an existing
// route and cname differs from that route's current CNAME, only the
// main SSRC plus its session and address split off onto the CNAME's
// route (or a fresh one); any other SSRCs on the old route are left
// behind on it, per spec.md §3's "non-main SSRCs leave the session
// behind" and the original's relink_source_/move_route_session_, which
// move only source_addr+session, never the sibling source_nodes. If
// ssrc is a non-main member, only the SSRC itself migrates.
func (r *Router) LinkSource(ssrc uint32, cname string) status.Code {
	src, hasSrc := r.bySource[ssrc]
	dst, hasDst := r.byCNAME[cname]

	switch {
	case !hasSrc && !hasDst:
		rt := newRoute()
		rt.sources[ssrc] = struct{}{}
		rt.cname = cname
		rt.hasCNAME = true
		r.bySource[ssrc] = rt
		r.byCNAME[cname] = rt
		return status.OK

	case !hasSrc && hasDst:
		dst.sources[ssrc] = struct{}{}
		r.bySource[ssrc] = dst
		return status.OK

	case hasSrc && !hasDst:
		if src.hasCNAME && src.cname == cname {
			return status.OK
		}
		isMain := src.hasMain && src.mainSSRC == ssrc
		if isMain {
			nrt := r.splitMainOut(src)
			nrt.cname = cname
			nrt.hasCNAME = true
			r.byCNAME[cname] = nrt
			return status.OK
		}
		// non-main: migrate only this SSRC into a fresh route under cname.
		delete(src.sources, ssrc)
		if len(src.sources) == 0 {
			r.deleteRoute(src)
		}
		nrt := newRoute()
		nrt.sources[ssrc] = struct{}{}
		nrt.cname = cname
		nrt.hasCNAME = true
		r.bySource[ssrc] = nrt
		r.byCNAME[cname] = nrt
		return status.OK

	default: // hasSrc && hasDst
		if src == dst {
			return status.OK
		}
		isMain := src.hasMain && src.mainSSRC == ssrc
		if isMain {
			return r.mergeMainInto(src, dst)
		}
		delete(src.sources, ssrc)
		if len(src.sources) == 0 {
			r.deleteRoute(src)
		}
		dst.sources[ssrc] = struct{}{}
		r.bySource[ssrc] = dst
		return status.OK
	}
}

// splitMainOut extracts src's main SSRC, session, and address into a
// freshly created route, leaving any remaining sibling SSRCs behind on
// src under its existing CNAME. If no siblings remain, src's now-empty
// shell (just the CNAME entry) is dropped. The returned route has no
// CNAME of its own yet; the caller assigns one.
func (r *Router) splitMainOut(src *route) *route {
	ssrc := src.mainSSRC

	nrt := newRoute()
	nrt.sources[ssrc] = struct{}{}
	nrt.mainSSRC = ssrc
	nrt.hasMain = true
	r.bySource[ssrc] = nrt

	delete(src.sources, ssrc)
	src.mainSSRC = 0
	src.hasMain = false

	if src.hasSess {
		nrt.sess = src.sess
		nrt.hasSess = true
		r.bySession[src.sess] = nrt
		src.sess = nil
		src.hasSess = false
	}
	if src.hasAddr {
		nrt.addr = src.addr
		nrt.hasAddr = true
		r.byAddress[src.addr] = nrt
		src.addr = ""
		src.hasAddr = false
	}

	if len(src.sources) == 0 && src.hasCNAME {
		delete(r.byCNAME, src.cname)
	}
	return nrt
}

// mergeMainInto moves src's main SSRC, session, and address into dst,
// which is keyed by the destination CNAME; any sibling SSRCs remain on
// src under its old CNAME (or src is dropped entirely if none remain),
// matching splitMainOut's semantics for the case where the destination
// CNAME already has a route to merge into.
func (r *Router) mergeMainInto(src, dst *route) status.Code {
	if dst.hasSess && src.hasSess {
		return status.NoRoute
	}
	if dst.hasAddr && src.hasAddr && dst.addr != src.addr {
		return status.NoRoute
	}

	ssrc := src.mainSSRC
	delete(src.sources, ssrc)
	dst.sources[ssrc] = struct{}{}
	r.bySource[ssrc] = dst

	if src.hasSess {
		dst.sess = src.sess
		dst.hasSess = true
		r.bySession[src.sess] = dst
		src.sess = nil
		src.hasSess = false
	}
	if src.hasAddr {
		if !dst.hasAddr {
			dst.addr = src.addr
			dst.hasAddr = true
		}
		r.byAddress[src.addr] = dst
		src.addr = ""
		src.hasAddr = false
	}
	dst.mainSSRC = ssrc
	dst.hasMain = true

	src.mainSSRC = 0
	src.hasMain = false

	if len(src.sources) == 0 && src.hasCNAME {
		delete(r.byCNAME, src.cname)
	}
	return status.OK
}

// UnlinkSource drops ssrc from its route. If it was the last source id
// on that route, the route is removed entirely.
func (r *Router) UnlinkSource(ssrc uint32) status.Code {
	rt, ok := r.bySource[ssrc]
	if !ok {
		return status.NoRoute
	}
	delete(rt.sources, ssrc)
	delete(r.bySource, ssrc)
	if len(rt.sources) == 0 {
		r.deleteRoute(rt)
	}
	return status.OK
}

// FindBySource returns the session attached to ssrc's route, if any.
func (r *Router) FindBySource(ssrc uint32) (Session, bool) {
	rt, ok := r.bySource[ssrc]
	if !ok || !rt.hasSess {
		return nil, false
	}
	return rt.sess, true
}

// FindByAddress returns the session attached to addr's route, if any.
func (r *Router) FindByAddress(addr string) (Session, bool) {
	rt, ok := r.byAddress[addr]
	if !ok || !rt.hasSess {
		return nil, false
	}
	return rt.sess, true
}

// HasSession reports whether sess is currently registered.
func (r *Router) HasSession(sess Session) bool {
	_, ok := r.bySession[sess]
	return ok
}

// deleteRoute removes rt from every index it participates in.
func (r *Router) deleteRoute(rt *route) {
	for ssrc := range rt.sources {
		delete(r.bySource, ssrc)
	}
	if rt.hasAddr {
		delete(r.byAddress, rt.addr)
	}
	if rt.hasCNAME {
		delete(r.byCNAME, rt.cname)
	}
	if rt.hasSess {
		delete(r.bySession, rt.sess)
	}
}
