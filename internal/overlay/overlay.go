// Package overlay draws the detected hand skeleton onto camera frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/gesturetube/internal/detector"
	"gocv.io/x/gocv"
)

// Style controls how the skeleton is drawn.
type Style struct {
	Bone      color.RGBA
	Wrist     color.RGBA
	Tip       color.RGBA
	Joint     color.RGBA
	Label     color.RGBA
	Radius    int
	Thickness int
}

// DefaultStyle draws green bones, a red wrist, blue fingertips and orange joints.
func DefaultStyle() Style {
	return Style{
		Bone:      color.RGBA{R: 0, G: 255, B: 0, A: 255},
		Wrist:     color.RGBA{R: 255, G: 0, B: 0, A: 255},
		Tip:       color.RGBA{R: 0, G: 0, B: 255, A: 255},
		Joint:     color.RGBA{R: 255, G: 165, B: 0, A: 255},
		Label:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Radius:    4,
		Thickness: 2,
	}
}

// Renderer annotates frames in place.
type Renderer struct {
	style  Style
	mirror bool
}

// NewRenderer creates a renderer. With mirror set, frames are flipped
// horizontally so the view behaves like a mirror.
func NewRenderer(style Style, mirror bool) *Renderer {
	return &Renderer{style: style, mirror: mirror}
}

// Draw renders hand onto frame. hand may be nil. A non-empty label is
// written large in the centre of the frame.
func (r *Renderer) Draw(frame *gocv.Mat, hand *detector.HandLandmarks, label string) error {
	if frame == nil || frame.Empty() {
		return fmt.Errorf("overlay: empty frame")
	}

	if r.mirror {
		gocv.Flip(*frame, frame, 1)
	}

	if hand != nil {
		pts := Project(hand, frame.Cols(), r.mirror)

		for _, finger := range detector.Fingers {
			for i := 1; i < len(finger); i++ {
				gocv.Line(frame, pts[finger[i-1]], pts[finger[i]], r.style.Bone, r.style.Thickness)
			}
		}

		for i, p := range pts {
			gocv.Circle(frame, p, r.style.Radius, r.jointColor(i), -1)
		}
	}

	if label != "" {
		size := gocv.GetTextSize(label, gocv.FontHersheySimplex, 2, 4)
		org := image.Pt((frame.Cols()-size.X)/2, (frame.Rows()+size.Y)/2)
		gocv.PutText(frame, label, org, gocv.FontHersheySimplex, 2, r.style.Label, 4)
	}

	return nil
}

func (r *Renderer) jointColor(i int) color.RGBA {
	switch {
	case i == detector.Wrist:
		return r.style.Wrist
	case detector.IsFingertip(i):
		return r.style.Tip
	default:
		return r.style.Joint
	}
}

// Project converts landmarks to integer pixel positions. With mirror set,
// x is reflected across the frame width.
func Project(hand *detector.HandLandmarks, width int, mirror bool) [detector.NumLandmarks]image.Point {
	var pts [detector.NumLandmarks]image.Point
	for i, p := range hand.Points {
		x := p.X
		if mirror {
			x = float64(width) - x
		}
		pts[i] = image.Pt(int(x+0.5), int(p.Y+0.5))
	}
	return pts
}

// EncodeJPEG compresses frame for streaming.
func EncodeJPEG(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close frees.
	return append([]byte(nil), buf.GetBytes()...), nil
}
