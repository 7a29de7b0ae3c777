//go:build linux

package platform

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"
)

// GPIOConfig selects the character device lines used by a GPIO platform
type GPIOConfig struct {
	Chip      string // e.g. "gpiochip0"
	PTTLine   int
	RxLEDLine int // Negative when not fitted
	TxLEDLine int
	PTTActive bool // PTT line level that means pressed
	TxInvert  bool
}

// GPIO reads PTT from an input line and drives LEDs on output lines
type GPIO struct {
	config GPIOConfig
	ptt    *gpiocdev.Line
	leds   [2]*gpiocdev.Line
	log    *log.Logger
}

// NewGPIO requests the configured lines
func NewGPIO(config GPIOConfig, logger *log.Logger) (*GPIO, error) {
	if logger == nil {
		logger = log.Default()
	}
	g := &GPIO{config: config, log: logger}

	var err error
	g.ptt, err = gpiocdev.RequestLine(config.Chip, config.PTTLine, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request PTT line %s:%d: %w", config.Chip, config.PTTLine, err)
	}

	for i, offset := range []int{config.RxLEDLine, config.TxLEDLine} {
		if offset < 0 {
			continue
		}
		g.leds[i], err = gpiocdev.RequestLine(config.Chip, offset, gpiocdev.AsOutput(0))
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("request LED line %s:%d: %w", config.Chip, offset, err)
		}
	}

	logger.Info("GPIO platform ready", "chip", config.Chip, "ptt", config.PTTLine)
	return g, nil
}

// PTT reports the push-to-talk state. Read errors count as released.
func (g *GPIO) PTT() bool {
	v, err := g.ptt.Value()
	if err != nil {
		g.log.Warn("PTT read failed", "err", err)
		return false
	}
	return (v == 1) == g.config.PTTActive
}

// TxPhaseInverted returns the transmit phase inversion calibration
func (g *GPIO) TxPhaseInverted() bool {
	return g.config.TxInvert
}

// SetIndicator switches a status LED
func (g *GPIO) SetIndicator(i Indicator, on bool) {
	led := g.leds[i]
	if led == nil {
		return
	}
	v := 0
	if on {
		v = 1
	}
	if err := led.SetValue(v); err != nil {
		g.log.Warn("LED write failed", "led", i, "err", err)
	}
}

// Close releases all lines
func (g *GPIO) Close() {
	if g.ptt != nil {
		g.ptt.Close()
	}
	for _, led := range g.leds {
		if led != nil {
			led.Close()
		}
	}
}
