package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/gesturetube/internal/detector"
	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/ayusman/gesturetube/internal/log"
	"github.com/ayusman/gesturetube/internal/overlay"
	"gocv.io/x/gocv"
)

// DefaultDrainTimeout bounds how long teardown waits for an in-flight
// inference before closing the detector underneath it.
const DefaultDrainTimeout = 2 * time.Second

// Ticker delivers scheduling ticks. *time.Ticker is wrapped by NewTimeTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker returns a Ticker backed by time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// DriverConfig tunes the frame loop.
type DriverConfig struct {
	Interval     time.Duration
	Thresholds   gesture.Thresholds
	Flash        time.Duration
	DrainTimeout time.Duration
}

// inference is the result of one off-loop Detect call.
type inference struct {
	at    time.Time
	frame *gocv.Mat
	hands []detector.HandLandmarks
	err   error
}

// Driver runs the frame loop for one Session.
//
// Each tick reads a frame and starts inference in its own goroutine. The loop
// goroutine holds a single in-flight slot: ticks that arrive while it is taken
// are dropped, never queued. Results come back to the loop goroutine, which
// alone classifies, steps the debouncer, dispatches, renders and notifies.
type Driver struct {
	session  *Session
	cfg      DriverConfig
	renderer *overlay.Renderer
	frames   FrameSink
	notify   func(Snapshot)

	newTicker func(time.Duration) Ticker
	now       func() time.Time
}

// NewDriver creates a driver for s. notify and frames may be nil.
func NewDriver(s *Session, cfg DriverConfig, frames FrameSink, notify func(Snapshot)) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second / 30
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if notify == nil {
		notify = func(Snapshot) {}
	}

	d := &Driver{
		session:   s,
		cfg:       cfg,
		frames:    frames,
		notify:    notify,
		newTicker: NewTimeTicker,
		now:       time.Now,
	}
	if frames != nil {
		d.renderer = overlay.NewRenderer(overlay.DefaultStyle(), true)
	}
	return d
}

// Run drives the loop until ctx is cancelled, then releases the session.
func (d *Driver) Run(ctx context.Context) {
	s := d.session
	ticker := d.newTicker(d.cfg.Interval)

	results := make(chan inference, 1)
	inFlight := false

	log.Info("frame loop started", "session", s.ID, "interval", d.cfg.Interval)
	d.publish(d.now())

	defer func() {
		ticker.Stop()
		d.teardown(inFlight, results)
		d.publish(d.now())
		log.Info("frame loop stopped", "session", s.ID)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case at := <-ticker.C():
			s.update(func(s *Session) { s.stats.Ticks++ })

			if inFlight {
				s.update(func(s *Session) { s.stats.Dropped++ })
				continue
			}

			frame, err := s.camera.ReadFrame()
			if err != nil {
				d.tickFailed(fmt.Errorf("read frame: %w", err))
				d.publish(at)
				continue
			}

			inFlight = true
			go d.infer(frame, at, results)

		case r := <-results:
			inFlight = false
			if ctx.Err() != nil {
				r.frame.Close()
				return
			}
			d.process(r)
		}
	}
}

func (d *Driver) infer(frame *gocv.Mat, at time.Time, out chan<- inference) {
	hands, err := d.session.detector.Detect(frame)
	out <- inference{at: at, frame: frame, hands: hands, err: err}
}

// process consumes one inference result on the loop goroutine.
func (d *Driver) process(r inference) {
	defer r.frame.Close()

	s := d.session
	s.update(func(s *Session) { s.stats.Processed++ })

	if r.err != nil {
		d.tickFailed(&InferenceError{Err: r.err})
		d.publish(r.at)
		return
	}

	hand := detector.First(r.hands)
	classified := d.cfg.Thresholds.ClassifyHand(hand)
	outcome := s.debouncer.Step(classified, r.at)

	s.update(func(s *Session) {
		s.errText = ""
		switch outcome {
		case gesture.Accepted:
			s.gesture = classified
			s.flashUntil = r.at.Add(d.cfg.Flash)
			s.stats.Accepted++
		case gesture.Released:
			s.gesture = gesture.None
		}
	})

	switch outcome {
	case gesture.Accepted:
		cmd, queued := s.dispatcher.Dispatch(classified)
		log.Info("gesture accepted", "session", s.ID, "gesture", string(classified), "command", cmd.String(), "queued", queued)
	case gesture.Suppressed, gesture.Released:
		log.Debug("gesture step", "session", s.ID, "classified", string(classified), "outcome", outcome.String())
	}

	if err := d.render(r.frame, hand, r.at); err != nil {
		d.tickFailed(err)
	}
	d.publish(r.at)
}

func (d *Driver) render(frame *gocv.Mat, hand *detector.HandLandmarks, at time.Time) error {
	if d.frames == nil {
		return nil
	}

	snap := d.session.Snapshot(at)
	label := ""
	if snap.Flash {
		label = snap.ActiveGesture.Label()
	}

	if err := d.renderer.Draw(frame, hand, label); err != nil {
		return fmt.Errorf("render overlay: %w", err)
	}
	jpeg, err := overlay.EncodeJPEG(frame)
	if err != nil {
		return fmt.Errorf("render overlay: %w", err)
	}
	d.frames.PushFrame(jpeg)
	return nil
}

func (d *Driver) tickFailed(err error) {
	s := d.session
	s.update(func(s *Session) {
		s.errText = err.Error()
		s.stats.Errors++
	})
	log.Warn("tick failed", "session", s.ID, "err", err)
}

// teardown releases the camera at once, drops any in-flight result and then
// releases the rest of the session.
func (d *Driver) teardown(inFlight bool, results <-chan inference) {
	s := d.session
	s.closeCamera()

	if inFlight {
		select {
		case r := <-results:
			r.frame.Close()
		case <-time.After(d.cfg.DrainTimeout):
			log.Warn("inference still running at teardown, closing detector", "session", s.ID)
			s.closeDetector()
			r := <-results
			r.frame.Close()
		}
	}

	s.release()
}

func (d *Driver) publish(at time.Time) {
	d.notify(d.session.Snapshot(at))
}
