package pipeline

import (
	"context"
	"testing"

	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/netio"
	"github.com/roc-streaming/rocrecv/session"
	"github.com/roc-streaming/rocrecv/status"
)

func stereoSpec() audio.SampleSpec {
	cs := audio.NewChannelSet(audio.LayoutSurround, audio.OrderSMPTE, 0x3)
	return audio.SampleSpec{SampleRate: 8000, SampleType: audio.SampleFloat32, Channels: cs}
}

func testSessionFactory(spec audio.SampleSpec) SessionFactory {
	cfg := session.Config{
		SourceQueueCapacity: 8,
		RepairQueueCapacity: 8,
		TargetLatencyPkts:   1,
		SamplesPerPacket:    160,
		MaxSeqGap:           100,
		PLCHistoryLen:       160,
		PLCHorizonFrames:    2,
		ResamplerMinPPM:     -1000,
		ResamplerMaxPPM:     1000,
		NoPlaybackTimeoutNs: int64(10e9),
		SilenceTimeoutNs:    int64(5e9),
		GapTimeoutNs:        int64(5e9),
		LatencyWinLen:       16,
	}
	decode := func(payload []byte, numChannels int) []float32 {
		out := make([]float32, 160*numChannels)
		return out
	}
	return func(sourceAddr string, ssrc uint32) *session.Session {
		return session.New(sourceAddr, ssrc, spec, spec.SampleRate, fec.SchemeNone, cfg, decode, nil, nil)
	}
}

func TestScheduleAndWaitCreatesSlotAndEndpoint(t *testing.T) {
	spec := stereoSpec()
	loop := NewLoop(spec, testSessionFactory(spec))

	createTask := &CreateSlotTask{}
	if code := loop.ScheduleAndWait(context.Background(), createTask); code != status.OK {
		t.Fatalf("create slot = %v, want OK", code)
	}
	if createTask.Handle == (SlotHandle{}) {
		t.Fatal("expected a non-zero slot handle")
	}

	addTask := &AddEndpointTask{
		Handle:    createTask.Handle,
		Interface: InterfaceAudioSource,
		Protocol:  netio.ProtoRTP,
		FECScheme: fec.SchemeNone,
	}
	if code := loop.ScheduleAndWait(context.Background(), addTask); code != status.OK {
		t.Fatalf("add endpoint = %v, want OK", code)
	}
	if addTask.Writer == (netio.Writer{}) {
		t.Fatal("expected a populated endpoint writer")
	}

	queryTask := &QuerySlotTask{Handle: createTask.Handle}
	if code := loop.ScheduleAndWait(context.Background(), queryTask); code != status.OK {
		t.Fatalf("query slot = %v, want OK", code)
	}
	if queryTask.NumSessions != 0 {
		t.Fatalf("NumSessions = %d, want 0 before any packet arrives", queryTask.NumSessions)
	}
}

func TestScheduleAndWaitDeleteSlotUnknownHandleFails(t *testing.T) {
	spec := stereoSpec()
	loop := NewLoop(spec, testSessionFactory(spec))

	del := &DeleteSlotTask{Handle: SlotHandle{}}
	if code := loop.ScheduleAndWait(context.Background(), del); code != status.NoRoute {
		t.Fatalf("delete unknown slot = %v, want NoRoute", code)
	}
}

func TestReadDrainsPendingTasksBeforeMixing(t *testing.T) {
	spec := stereoSpec()
	loop := NewLoop(spec, testSessionFactory(spec))

	create := &CreateSlotTask{}
	loop.Schedule(create)

	frame := audio.NewFrame(spec, 160)
	active := loop.Read(frame, 160)
	if active != 0 {
		t.Fatalf("active = %d, want 0 (no sessions yet)", active)
	}
	if len(loop.slots) != 1 {
		t.Fatalf("slots = %d, want 1 (Read should have drained the Schedule)", len(loop.slots))
	}
}

func TestScheduleAndWaitRespectsCanceledContext(t *testing.T) {
	spec := stereoSpec()
	loop := NewLoop(spec, testSessionFactory(spec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Fill the task queue so the send in ScheduleAndWait can't proceed
	// immediately, forcing it to observe the canceled context.
	for i := 0; i < cap(loop.tasks); i++ {
		loop.tasks <- taskEnvelope{task: &QuerySlotTask{}}
	}

	code := loop.ScheduleAndWait(ctx, &QuerySlotTask{})
	if code != status.Terminated {
		t.Fatalf("code = %v, want Terminated", code)
	}
}
