// Command roc-receiver is the demo entrypoint wiring config, the
// pipeline, and a UDP listener per slot, grounded on the teacher's
// main.go command-line flag parsing (flag.String/flag.Bool, not
// pflag/cobra) and audio.go's setupDataSocket multicast listener
// (SO_REUSEPORT/SO_REUSEADDR via golang.org/x/sys/unix, multicast
// group join via golang.org/x/net/ipv4).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/config"
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/metrics"
	"github.com/roc-streaming/rocrecv/netio"
	"github.com/roc-streaming/rocrecv/pipeline"
	"github.com/roc-streaming/rocrecv/session"
)

var startTime time.Time

func main() {
	startTime = time.Now()

	configPath := flag.String("config", "receiver.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := log.New(os.Stderr, "[roc-receiver] ", log.LstdFlags|log.Lmicroseconds)
	if *debug {
		logger.Println("debug logging enabled")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}

	spec := audio.SampleSpec{
		SampleRate: cfg.Audio.SampleRate,
		SampleType: audio.SampleFloat32,
		Channels:   audio.NewChannelSet(audio.LayoutSurround, audio.OrderSMPTE, uint32(1<<uint(cfg.Audio.NumChannels)-1)),
	}

	factory := newSessionFactory(spec, cfg.Session)
	loop := pipeline.NewLoop(spec, factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, slotCfg := range cfg.Slots {
		if err := bringUpSlot(ctx, logger, loop, slotCfg); err != nil {
			logger.Fatalf("slot %q: %v", slotCfg.Name, err)
		}
	}

	if cfg.Metrics.Enabled {
		registry := metrics.NewRegistry()
		go serveMetrics(logger, cfg.Metrics.Listen, registry)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	logger.Printf("receiver started with %d slot(s), uptime tracking from %s", len(cfg.Slots), startTime.Format(time.RFC3339))

	for {
		select {
		case <-sigCh:
			logger.Println("shutting down")
			loop.Close()
			return
		case now := <-ticker.C:
			loop.Refresh(now.UnixNano())
		}
	}
}

func newSessionFactory(spec audio.SampleSpec, sc config.SessionConfig) pipeline.SessionFactory {
	cfg := session.Config{
		SourceQueueCapacity: sc.SourceQueueCapacity,
		RepairQueueCapacity: sc.RepairQueueCapacity,
		TargetLatencyPkts:   sc.TargetLatencyPkts,
		SamplesPerPacket:    sc.SamplesPerPacket,
		MaxSeqGap:           sc.MaxSeqGap,
		PLCHistoryLen:       sc.PLCHistoryLen,
		PLCHorizonFrames:    sc.PLCHorizonFrames,
		ResamplerKp:         sc.ResamplerKp,
		ResamplerKi:         sc.ResamplerKi,
		ResamplerMinPPM:     sc.ResamplerMinPPM,
		ResamplerMaxPPM:     sc.ResamplerMaxPPM,
		NoPlaybackTimeoutNs: sc.NoPlaybackTimeoutMs * int64(time.Millisecond),
		SilenceTimeoutNs:    sc.SilenceTimeoutMs * int64(time.Millisecond),
		GapTimeoutNs:        sc.GapTimeoutMs * int64(time.Millisecond),
		LatencyWinLen:       sc.LatencyWinLen,
	}

	// Payload decoding and packet-loss concealment are external
	// collaborators per spec section 1; the demo entrypoint ships a
	// silence decoder/concealer so the pipeline runs end-to-end
	// without pulling in a real codec.
	decode := func(payload []byte, numChannels int) []float32 {
		return make([]float32, int(sc.SamplesPerPacket)*numChannels)
	}
	conceal := audio.NewZeroFillConceal()

	return func(sourceAddr string, ssrc uint32) *session.Session {
		return session.New(sourceAddr, ssrc, spec, spec.SampleRate, fec.SchemeNone, cfg, decode, conceal, nil)
	}
}

func bringUpSlot(ctx context.Context, logger *log.Logger, loop *pipeline.Loop, slotCfg config.SlotConfig) error {
	create := &pipeline.CreateSlotTask{}
	if code := loop.ScheduleAndWait(ctx, create); code.IsError() {
		return fmt.Errorf("create slot: %v", code)
	}

	fecScheme := fecSchemeFromString(slotCfg.FECScheme)

	if err := addEndpointAndListen(ctx, logger, loop, create.Handle, pipeline.InterfaceAudioSource, sourceProtocol(fecScheme), fecScheme, slotCfg.SourceAddr); err != nil {
		return err
	}
	if slotCfg.RepairAddr != "" {
		if err := addEndpointAndListen(ctx, logger, loop, create.Handle, pipeline.InterfaceAudioRepair, repairProtocol(fecScheme), fecScheme, slotCfg.RepairAddr); err != nil {
			return err
		}
	}
	if slotCfg.ControlAddr != "" {
		if err := addEndpointAndListen(ctx, logger, loop, create.Handle, pipeline.InterfaceAudioControl, netio.ProtoRTCP, fec.SchemeNone, slotCfg.ControlAddr); err != nil {
			return err
		}
	}
	return nil
}

func fecSchemeFromString(s string) fec.Scheme {
	switch s {
	case "rs8m":
		return fec.SchemeRS8M
	case "ldpc_staircase":
		return fec.SchemeLDPCStaircase
	default:
		return fec.SchemeNone
	}
}

func sourceProtocol(scheme fec.Scheme) netio.Protocol {
	switch scheme {
	case fec.SchemeRS8M:
		return netio.ProtoRTPRS8MSource
	case fec.SchemeLDPCStaircase:
		return netio.ProtoRTPLDPCSource
	default:
		return netio.ProtoRTP
	}
}

func repairProtocol(scheme fec.Scheme) netio.Protocol {
	if scheme == fec.SchemeLDPCStaircase {
		return netio.ProtoLDPCRepair
	}
	return netio.ProtoRS8MRepair
}

func addEndpointAndListen(ctx context.Context, logger *log.Logger, loop *pipeline.Loop, handle pipeline.SlotHandle, iface pipeline.Interface, proto netio.Protocol, fecScheme fec.Scheme, addr string) error {
	add := &pipeline.AddEndpointTask{Handle: handle, Interface: iface, Protocol: proto, FECScheme: fecScheme}
	if code := loop.ScheduleAndWait(ctx, add); code.IsError() {
		return fmt.Errorf("add endpoint %s: %v", addr, code)
	}

	conn, err := setupUDPSocket(addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	writer := add.Writer
	go receiveLoop(ctx, logger, conn, writer)
	return nil
}

// setupUDPSocket binds a UDP listener, enabling SO_REUSEPORT and
// SO_REUSEADDR like the teacher's setupDataSocket, and joins the
// address's multicast group if it is one.
func setupUDPSocket(addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
					sockErr = fmt.Errorf("SO_REUSEPORT: %w", err)
					return
				}
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					sockErr = fmt.Errorf("SO_REUSEADDR: %w", err)
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	packetConn, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		return nil, err
	}
	udpConn := packetConn.(*net.UDPConn)
	_ = udpConn.SetReadBuffer(1024 * 1024)

	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		if ip := net.ParseIP(host); ip != nil && ip.IsMulticast() {
			p := ipv4.NewPacketConn(udpConn)
			udpAddr, err := net.ResolveUDPAddr("udp4", addr)
			if err == nil {
				if err := p.JoinGroup(nil, udpAddr); err != nil {
					log.Printf("warning: failed to join multicast group %s: %v", addr, err)
				}
			}
		}
	}

	return udpConn, nil
}

func receiveLoop(ctx context.Context, logger *log.Logger, conn *net.UDPConn, writer netio.Writer) {
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			logger.Printf("read error: %v", err)
			continue
		}

		pktCopy := make([]byte, n)
		copy(pktCopy, buf[:n])
		writer.Push(netio.InPacket{
			Buf:       pktCopy,
			SrcAddr:   raddr.String(),
			ArrivalNs: time.Now().UnixNano(),
		})
	}
}

func serveMetrics(logger *log.Logger, listen string, _ *metrics.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Printf("metrics listening on %s", listen)
	if err := http.ListenAndServe(listen, mux); err != nil && !strings.Contains(err.Error(), "closed") {
		logger.Printf("metrics server error: %v", err)
	}
}
