package sound

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// How long Play waits for the player to pick up a sound before dropping it.
const queueTimeout = 50 * time.Millisecond

// Player plays wav files on the speaker, one at a time. A new sound cuts off
// the one playing.
type Player struct {
	sounds chan string
}

func NewPlayer() *Player {
	p := &Player{sounds: make(chan string)}
	go p.loop()
	return p
}

// Play queues the wav at path. It reports false if the player was busy and
// the sound was dropped.
func (p *Player) Play(path string) (queued bool) {
	defer func() {
		if recover() != nil {
			fmt.Println("Sound player closed, dropping", path)
			queued = false
		}
	}()
	select {
	case p.sounds <- path:
		return true
	case <-time.After(queueTimeout):
		fmt.Println("Sound player busy, dropping", path)
		return false
	}
}

// Close stops the player. Later calls to Play drop their sound.
func (p *Player) Close() {
	close(p.sounds)
}

func (p *Player) drain() {
	for s := range p.sounds {
		fmt.Println("Unable to play", s)
	}
}

func (p *Player) loop() {
	defer func() {
		recover()
		p.drain()
	}()
	sampleRate := beep.SampleRate(44100)
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/5)); err != nil {
		fmt.Println("Failed to open speaker", err)
		p.drain()
		return
	}
	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for path := range p.sounds {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			s.Close()
			s = nil
		}

		f, err := os.Open(path)
		if err != nil {
			fmt.Println("Failed to open sound", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			fmt.Println("Failed to decode sound", err)
			f.Close()
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}
