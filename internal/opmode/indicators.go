package opmode

import "github.com/dbehnke/m17link/internal/platform"

// indicators is the desired state of the two status lights
type indicators struct {
	rx bool
	tx bool
}

// indicatorsFor derives the lights from the engine state
func indicatorsFor(state State, audioValid bool) indicators {
	switch state {
	case STATE_RX:
		return indicators{rx: audioValid}
	case STATE_TX_STREAM, STATE_TX_PACKET:
		return indicators{tx: true}
	}
	return indicators{}
}

// applyIndicators drives only the lights that changed
func (e *Engine) applyIndicators() {
	want := indicatorsFor(e.state, e.audioValid)
	if want.rx != e.lit.rx {
		e.dev.Platform.SetIndicator(platform.INDICATOR_RX, want.rx)
	}
	if want.tx != e.lit.tx {
		e.dev.Platform.SetIndicator(platform.INDICATOR_TX, want.tx)
	}
	e.lit = want
}
