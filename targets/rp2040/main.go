//go:build rp2040 || rp2350

package main

import (
	"context"
	"errors"
	"machine"
	"time"

	"tinygo.org/x/drivers/buzzer"

	"synkino/core"
	"synkino/profile"
	"synkino/protocol"
	"synkino/track"
	"synkino/vs1053"
)

// Board wiring for the sync engine.
const (
	impulsePin = core.GPIOPin(2)
	leaderPin  = core.GPIOPin(3)
	ledPin     = core.GPIOPin(25)

	decoderCS    = core.GPIOPin(17)
	decoderDCS   = core.GPIOPin(14)
	decoderDREQ  = core.GPIOPin(15)
	decoderReset = core.GPIOPin(9)

	buzzerPin = machine.GPIO26

	// holding the button this long stops playback
	stopHoldUS = 2000000

	patchFile = "patches.053"
)

var errUSBWrite = errors.New("usb write failed")

func main() {
	// Clear any watchdog left running by a previous image
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	core.SetTimeSource(GetHardwareTime)

	gpio := NewRPGPIODriver()
	core.SetGPIODriver(gpio)
	core.SetInterruptDriver(gpio)

	reporter := protocol.NewReporter(protocol.NewFramer(&usbWriter{}))
	core.SetDebugWriter(reporter.Log)
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	prof := profile.Default()
	reporter.Hello(prof.Name)

	panel := newPanel()
	impulses := core.NewImpulseCounter(nil, nil, impulsePin, ledPin)

	// Button held at power-up: sensor alignment mode, no decoder needed.
	if panel.held() {
		core.Println("selftest: counting impulses, release and reset to leave")
		core.ImpulseTest(context.Background(), impulses, idle, func(n uint32) {
			core.Println("selftest: " + core.FormatUint(n))
		})
		return
	}

	bus, err := configureDecoderBus()
	if err != nil {
		halt("spi: " + err.Error())
	}
	dev := vs1053.New(bus, gpio, vs1053.Pins{
		CS:    decoderCS,
		DCS:   decoderDCS,
		DREQ:  decoderDREQ,
		Reset: decoderReset,
	})
	if err := dev.Configure(); err != nil {
		halt("vs1053: " + err.Error())
	}

	sd, err := mountCard()
	if err != nil {
		core.Println("sd: " + err.Error())
	}
	if f, err := sd.Open(patchFile); err == nil {
		n, err := dev.ApplyPlugin(f)
		f.Close()
		if err != nil {
			halt("vs1053: could not apply " + patchFile + ": " + err.Error())
		}
		core.Println("vs1053: " + patchFile + " applied, " + core.FormatUint(uint32(n)) + " words")
	}
	player := vs1053.NewPlayer(dev, sd.Open)
	lib := track.NewLibrary(sd)

	ctx, cancel := context.WithCancel(context.Background())
	yield := func() {
		if err := player.Service(); err != nil {
			core.Println("stream: " + err.Error())
		}
		panel.poll()
		if panel.heldFor() >= stopHoldUS {
			cancel()
		}
		time.Sleep(10 * time.Microsecond)
	}

	buzzerPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pop := buzzer.New(buzzerPin)
	pop.BPM = 60 // one beat per second, so Tone durations are seconds

	kp, ki, kd := prof.Gains()
	sess := core.NewSession(core.SessionConfig{
		Decoder:         player,
		Tracks:          lib,
		Operator:        panel,
		Impulses:        impulses,
		Leader:          core.NewLeaderDetector(nil, nil, leaderPin, ledPin),
		Blades:          prof.ShutterBladeCount,
		StartmarkOffset: prof.StartmarkOffset,
		P:               kp,
		I:               ki,
		D:               kd,
		Yield:           yield,
		OnStateChange:   reporter.StateChange,
		OnTick:          reporter.Tick,
		OnStart: func() {
			go pop.Tone(1000, 0.042) // 2-pop
		},
	})

	number := 0
	if lib.HasAutostart() {
		number = track.Autostart
	}
	for {
		if number == 0 {
			number = selectTrack(panel, lib)
		}
		err := sess.SelectAndPlay(ctx, number)
		switch core.Classify(err) {
		case core.KindNone:
		case core.KindCancelled:
			waitRelease(panel)
			ctx, cancel = context.WithCancel(context.Background())
		default:
			core.Println("session: " + err.Error())
			core.DumpTimingRing()
		}
		number = 0
	}
}

// selectTrack lets the operator dial a track number and confirm it with a
// press. Numbers with no file on the card are refused.
func selectTrack(p *panel, lib *track.Library) int {
	p.SetValue(1)
	shown := -1
	for {
		n := p.Value()
		if n < 1 {
			n = 1
			p.SetValue(n)
		}
		if n > track.Autostart {
			n = track.Autostart
			p.SetValue(n)
		}
		if n != shown {
			shown = n
			core.Println("select: track " + core.FormatUint(uint32(n)))
		}
		if p.ButtonPressed() {
			if _, err := lib.Resolve(n); err == nil {
				return n
			}
			core.Println("select: no file for track " + core.FormatUint(uint32(n)))
		}
		idle()
	}
}

func waitRelease(p *panel) {
	for p.held() {
		idle()
	}
	p.poll()
	p.take()
	p.prompting = false
}

func idle() {
	time.Sleep(100 * time.Microsecond)
}

// halt reports a fatal hardware error and blinks the LED forever.
func halt(msg string) {
	core.Println(msg)
	led := machine.Pin(ledPin)
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(400 * time.Millisecond)
	}
}
