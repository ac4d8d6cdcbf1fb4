package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"
)

const (
	Size = 128

	// The framebuffer is RGB565, two bytes per pixel.
	FrameBytes = Size * Size * 2

	refreshInterval = 500 * time.Millisecond
)

// Distance is one line of the status display.
type Distance struct {
	Name       string
	DistanceCM float64
	OK         bool
}

// Status is everything the display shows.
type Status struct {
	Distances []Distance
	RPMs      []float64
	RailVolts float64
	RailOK    bool
}

// Board holds the latest status for the display loop.
type Board struct {
	lock   sync.Mutex
	status Status
}

func (b *Board) Update(s Status) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.status = s
}

func (b *Board) Status() Status {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.status
}

// Loop redraws the framebuffer at path from b until ctx is done, then
// blanks it.
func (b *Board) Loop(ctx context.Context, path string) {
	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var buf [FrameBytes]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		buf := Pack(Render(b.Status()))
		if _, err := f.Seek(0, 0); err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}
		for i := 0; i < Size; i++ {
			if _, err := f.Write(buf[i*Size*2 : (i+1)*Size*2]); err != nil {
				fmt.Println("Screen failure: ", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws s onto a Size x Size image.
func Render(s Status) image.Image {
	dc := gg.NewContext(Size, Size)
	dc.SetRGBA(1, 0.9, 0, 1)

	y := 12.0
	for _, d := range s.Distances {
		if d.OK {
			dc.DrawString(fmt.Sprintf("%-6.6s %5.1fcm", d.Name, d.DistanceCM), 2, y)
		} else {
			dc.DrawString(fmt.Sprintf("%-6.6s   ----", d.Name), 2, y)
		}
		y += 12
	}
	for i, rpm := range s.RPMs {
		dc.DrawString(fmt.Sprintf("M%d %7.1frpm", i+1, rpm), 2, y)
		y += 12
	}

	dc.Push()
	dc.Translate(94, 30)
	drawRailBar(dc, s.RailVolts)
	if !s.RailOK {
		dc.Translate(15, -16)
		DrawWarning(dc)
	}
	dc.Pop()

	return dc.Image()
}

// Pack converts img to the panel's RGB565 layout. The panel is mounted
// rotated, so columns of the image become rows of the framebuffer.
func Pack(img image.Image) []byte {
	buf := make([]byte, FrameBytes)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(Size-1-y)*2+x*Size*2+1] = (rb << 3) | (gb >> 3)
			buf[(Size-1-y)*2+x*Size*2] = bb | (gb << 5)
		}
	}
	return buf
}

const (
	minRailVolts = 4.5
	maxRailVolts = 5.5
)

func drawRailBar(dc *gg.Context, volts float64) {
	level := (volts - minRailVolts) / (maxRailVolts - minRailVolts)
	if level < 0.1 || level > 0.9 {
		dc.SetRGBA(1, 0.2, 0, 1)
	}
	dc.DrawRectangle(0, 70, 30, 10)
	for n := 2; n < 13; n++ {
		if level >= (float64(n) / 13) {
			dc.DrawRectangle(2, 75-float64(n)*5, 26, 3)
		}
	}
	dc.Fill()
	dc.DrawString(fmt.Sprintf("%.2fv", volts), -2, 93)
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}
