package pipeline

import (
	"github.com/google/uuid"

	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/netio"
	"github.com/roc-streaming/rocrecv/status"
)

// SlotHandle identifies a slot created through the Loop's task
// interface, mirroring receiver_loop.h's opaque SlotHandle and the
// teacher's practice of minting a uuid.UUID per Session.ID.
type SlotHandle uuid.UUID

// Task is one unit of work the pipeline goroutine executes, per
// receiver_loop.h's Task/Tasks hierarchy. Each concrete task carries
// its own parameters and writes its result into its own fields.
type Task interface {
	run(l *Loop) status.Code
}

// CreateSlotTask creates a new slot and reports its handle.
type CreateSlotTask struct {
	Handle SlotHandle
}

func (t *CreateSlotTask) run(l *Loop) status.Code {
	group := NewSessionGroup(l.source.mixer, l.sessionFactory)
	slot := NewSlot(len(l.slots), group)

	handle := SlotHandle(uuid.New())
	l.slots[handle] = slot
	l.source.AddSlot(slot)
	t.Handle = handle
	return status.OK
}

// DeleteSlotTask removes a previously created slot.
type DeleteSlotTask struct {
	Handle SlotHandle
}

func (t *DeleteSlotTask) run(l *Loop) status.Code {
	slot, ok := l.slots[t.Handle]
	if !ok {
		return status.NoRoute
	}
	l.source.RemoveSlot(slot)
	delete(l.slots, t.Handle)
	return status.OK
}

// QuerySlotTask reports a slot's current session count and breakage
// state, mirroring Tasks::QuerySlot writing into caller-owned structs.
type QuerySlotTask struct {
	Handle      SlotHandle
	NumSessions int
	Broken      bool
}

func (t *QuerySlotTask) run(l *Loop) status.Code {
	slot, ok := l.slots[t.Handle]
	if !ok {
		return status.NoRoute
	}
	t.NumSessions = slot.NumSessions()
	t.Broken = slot.Broken()
	return status.OK
}

// AddEndpointTask binds a new endpoint to an existing slot and
// returns its packet writer, mirroring Tasks::AddEndpoint.
type AddEndpointTask struct {
	Handle    SlotHandle
	Interface Interface
	Protocol  netio.Protocol
	FECScheme fec.Scheme

	Writer netio.Writer
}

func (t *AddEndpointTask) run(l *Loop) status.Code {
	slot, ok := l.slots[t.Handle]
	if !ok {
		return status.NoRoute
	}
	t.Writer = slot.AddEndpoint(t.Interface, t.Protocol, t.FECScheme)
	return status.OK
}

// compile-time interface checks
var (
	_ Task = (*CreateSlotTask)(nil)
	_ Task = (*DeleteSlotTask)(nil)
	_ Task = (*QuerySlotTask)(nil)
	_ Task = (*AddEndpointTask)(nil)
)
