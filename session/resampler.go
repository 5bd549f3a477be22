package session

// RateController is a bounded PI (proportional-integral) controller
// that turns a backlog deviation into a clock-rate adjustment in parts
// per million, per spec 4.G: "Its clock scale is driven by the latency
// monitor: measured deviation (target_backlog - actual_backlog) feeds
// a bounded PI-style controller producing a rate adjustment in
// parts-per-million. Clamped to configured limits."
type RateController struct {
	kp, ki   float64
	integral float64
	minPPM   float64
	maxPPM   float64
}

// NewRateController creates a PI controller with gains kp/ki, clamped
// to [minPPM, maxPPM].
func NewRateController(kp, ki, minPPM, maxPPM float64) *RateController {
	return &RateController{kp: kp, ki: ki, minPPM: minPPM, maxPPM: maxPPM}
}

// Update feeds one deviation sample (target_backlog - actual_backlog,
// in packets, as LatencyMonitor.Deviation reports it) and returns the
// resulting rate adjustment in ppm.
func (c *RateController) Update(deviation float64) float64 {
	c.integral += deviation
	out := c.kp*deviation + c.ki*c.integral
	if out < c.minPPM {
		out = c.minPPM
		c.integral -= deviation // anti-windup: undo the clamped step
	} else if out > c.maxPPM {
		out = c.maxPPM
		c.integral -= deviation
	}
	return out
}

// Resampler rate-matches a sender's sample rate to the slot's output
// rate, scaling its read position by a ppm adjustment supplied by a
// RateController driven by the latency monitor, per spec 4.G.
type Resampler struct {
	inRate, outRate uint32
	controller      *RateController

	pos float64 // fractional read position into the input stream
}

// NewResampler creates a Resampler converting from inRate to outRate,
// driven by controller.
func NewResampler(inRate, outRate uint32, controller *RateController) *Resampler {
	return &Resampler{inRate: inRate, outRate: outRate, controller: controller}
}

// Scale returns the current input-to-output sample-rate ratio,
// including the controller's ppm adjustment for the given backlog
// deviation.
func (r *Resampler) Scale(deviation float64) float64 {
	ppm := 0.0
	if r.controller != nil {
		ppm = r.controller.Update(deviation)
	}
	base := float64(r.inRate) / float64(r.outRate)
	return base * (1 + ppm/1e6)
}

// Resample linearly interpolates in (interleaved, numCh channels) into
// out, covering exactly len(out)/numCh output samples per channel, at
// the given scale (input samples consumed per output sample).
func (r *Resampler) Resample(in []float32, out []float32, numCh int, scale float64) {
	outFrames := len(out) / numCh
	inFrames := len(in) / numCh

	for i := 0; i < outFrames; i++ {
		srcPos := r.pos + float64(i)*scale
		i0 := int(srcPos)
		frac := srcPos - float64(i0)

		for ch := 0; ch < numCh; ch++ {
			var s0, s1 float32
			if i0 >= 0 && i0 < inFrames {
				s0 = in[i0*numCh+ch]
			}
			if i0+1 >= 0 && i0+1 < inFrames {
				s1 = in[(i0+1)*numCh+ch]
			}
			out[i*numCh+ch] = s0 + float32(frac)*(s1-s0)
		}
	}

	r.pos += float64(outFrames) * scale
	r.pos -= float64(inFrames)
	if r.pos < 0 {
		r.pos = 0
	}
}
