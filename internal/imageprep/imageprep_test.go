package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/logging"
)

func testParams() Params {
	return Params{
		UpscaleFactor: 2,
		Gamma:         0.7,
		MedianSize:    3,
		BlurSigma:     0.9,
		ContrastGain:  1.7,
		WhiteCutoff:   180,
	}
}

// scoreboardPNG renders dark text-like blocks on a light background.
func scoreboardPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: 230, G: 230, B: 235, A: 255})
		}
	}
	for y := 10; y < 16; y++ {
		for x := 8; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 20, B: 25, A: 255})
		}
	}
	for y := 24; y < 30; y++ {
		for x := 8; x < 28; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 20, B: 25, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessBinarizesAndUpscales(t *testing.T) {
	src := scoreboardPNG(t)
	out, err := Process(src, testParams())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if got, want := img.Bounds().Dx(), 120; got != want {
		t.Fatalf("output width = %d, want %d", got, want)
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y != 0 && g.Y != 255 {
				t.Fatalf("pixel (%d,%d) = %d, expected binarized 0 or 255", x, y, g.Y)
			}
		}
	}
}

func TestProcessDeterministic(t *testing.T) {
	src := scoreboardPNG(t)
	first, err := Process(src, testParams())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := Process(src, testParams())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestProcessFlatImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Process(buf.Bytes(), testParams()); err != nil {
		t.Fatalf("flat image should not fail: %v", err)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	if _, err := Process([]byte("not an image"), testParams()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSinkPrunesOldestFirst(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, 3, logging.NewNop())

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("frame_%d.png", i)
		if err := sink.Save(name, []byte{byte(i)}); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
		// Force distinct, increasing mtimes regardless of filesystem
		// timestamp resolution.
		stamp := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filepath.Join(dir, name), stamp, stamp); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	// Trigger one more prune pass now that mtimes are settled.
	if err := sink.Save("frame_5.png", []byte{5}); err != nil {
		t.Fatalf("Save final: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected cap of 3 files, found %d", len(entries))
	}
	for _, want := range []string{"frame_4.png", "frame_5.png"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Fatalf("expected newest file %s to survive: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "frame_0.png")); err == nil {
		t.Fatal("expected oldest file to be pruned")
	}
}

func TestSinkNilIsNoop(t *testing.T) {
	var sink *Sink
	if err := sink.Save("frame.png", []byte{1}); err != nil {
		t.Fatalf("nil sink should discard silently: %v", err)
	}
}
