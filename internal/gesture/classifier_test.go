package gesture

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ayusman/gesturetube/internal/detector"
)

// handWithTips builds a full skeleton with the wrist at wristY and the given fingertip heights
// (thumb, index, middle, ring, pinky). Non-tip joints sit on the wrist.
func handWithTips(wristY float64, tips [5]float64) []detector.Point3D {
	points := make([]detector.Point3D, detector.NumLandmarks)
	for i := range points {
		points[i] = detector.Point3D{X: 320, Y: wristY}
	}
	for i, idx := range detector.Fingertips {
		points[idx].Y = tips[i]
	}
	return points
}

func TestClassify_ShortOrAbsent(t *testing.T) {
	if got := Classify(nil); got != None {
		t.Errorf("Classify(nil) = %q, want None", got)
	}

	var thresholds Thresholds
	if got := thresholds.ClassifyHand(nil); got != None {
		t.Errorf("ClassifyHand(nil) = %q, want None", got)
	}

	rng := rand.New(rand.NewSource(7))
	for n := 0; n < detector.NumLandmarks; n++ {
		for trial := 0; trial < 20; trial++ {
			points := make([]detector.Point3D, n)
			for i := range points {
				points[i] = detector.Point3D{X: rng.Float64() * 640, Y: rng.Float64() * 480}
			}
			if got := Classify(points); got != None {
				t.Fatalf("Classify(%d points) = %q, want None", n, got)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		wristY float64
		tips   [5]float64
		want   Gesture
	}{
		{
			name:   "index at 100 and others at 131 or lower is play",
			wristY: 400,
			tips:   [5]float64{131, 100, 131, 140, 200},
			want:   Play,
		},
		{
			name:   "index margin of exactly 30 is not play",
			wristY: 400,
			tips:   [5]float64{300, 100, 130, 300, 300},
			want:   Pause,
		},
		{
			name:   "index not the highest is not play",
			wristY: 400,
			tips:   [5]float64{90, 100, 200, 200, 200},
			want:   Pause,
		},
		{
			name:   "all tips above wrist minus 30 is pause",
			wristY: 400,
			tips:   [5]float64{300, 200, 180, 200, 230},
			want:   Pause,
		},
		{
			name:   "one tip exactly at wrist minus 30 is none",
			wristY: 400,
			tips:   [5]float64{300, 200, 180, 200, 370},
			want:   None,
		},
		{
			name:   "tips below wrist is none",
			wristY: 300,
			tips:   [5]float64{350, 340, 360, 355, 380},
			want:   None,
		},
		{
			name:   "play wins when both hold",
			wristY: 400,
			tips:   [5]float64{250, 100, 250, 250, 250},
			want:   Play,
		},
		{
			name:   "index tied with another tip is not play",
			wristY: 400,
			tips:   [5]float64{100, 100, 300, 300, 300},
			want:   Pause,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(handWithTips(tt.wristY, tt.tips))
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_Presets(t *testing.T) {
	thresholds := DefaultThresholds()

	pointUp := detector.PointUpLandmarks()
	if got := thresholds.ClassifyHand(&pointUp); got != Play {
		t.Errorf("point up = %q, want Play", got)
	}

	palm := detector.OpenPalmLandmarks()
	if got := thresholds.ClassifyHand(&palm); got != Pause {
		t.Errorf("open palm = %q, want Pause", got)
	}

	fist := detector.FistLandmarks()
	if got := thresholds.ClassifyHand(&fist); got != None {
		t.Errorf("fist = %q, want None", got)
	}
}

func TestThresholds_Override(t *testing.T) {
	points := handWithTips(400, [5]float64{160, 100, 160, 160, 160})

	if got := Classify(points); got != Play {
		t.Fatalf("default thresholds = %q, want Play", got)
	}

	strict := Thresholds{PlayMargin: 80, PauseMargin: 300}
	if got := strict.Classify(points); got != None {
		t.Errorf("strict thresholds = %q, want None", got)
	}
}

func TestClassify_NaNIsNone(t *testing.T) {
	points := handWithTips(400, [5]float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()})

	if got := Classify(points); got != None {
		t.Errorf("Classify(NaN tips) = %q, want None", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   Gesture
		wantOK bool
	}{
		{"play", Play, true},
		{"Pause", Pause, true},
		{"", None, true},
		{"wave", None, false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Parse(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}

	if Play.Label() != "Play" || Pause.Label() != "Pause" || None.Label() != "" {
		t.Error("unexpected labels")
	}
}
