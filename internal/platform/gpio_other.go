//go:build !linux

package platform

import (
	"errors"

	"github.com/charmbracelet/log"
)

// GPIOConfig selects the character device lines used by a GPIO platform
type GPIOConfig struct {
	Chip      string
	PTTLine   int
	RxLEDLine int
	TxLEDLine int
	PTTActive bool
	TxInvert  bool
}

// GPIO is only available on Linux
type GPIO struct{}

// NewGPIO always fails outside Linux
func NewGPIO(config GPIOConfig, logger *log.Logger) (*GPIO, error) {
	return nil, errors.New("GPIO platform requires Linux")
}

func (g *GPIO) PTT() bool             { return false }
func (g *GPIO) TxPhaseInverted() bool { return false }
func (g *GPIO) SetIndicator(i Indicator, on bool) {}
func (g *GPIO) Close()                            {}
