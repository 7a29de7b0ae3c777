package modem

// KISS framing
const (
	FEND  = 0xC0
	FESC  = 0xDB
	TFEND = 0xDC
	TFESC = 0xDD

	kissDataFrame = 0x00 // Port 0, data frame
)

// KissEncapsulate wraps a frame as a KISS data frame
func KissEncapsulate(frame []byte) []byte {
	out := make([]byte, 0, len(frame)+4)
	out = append(out, FEND, kissDataFrame)

	for _, b := range frame {
		switch b {
		case FEND:
			out = append(out, FESC, TFEND)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, b)
		}
	}

	return append(out, FEND)
}

// kissDecoder extracts frames from a KISS byte stream
type kissDecoder struct {
	buf     []byte
	escaped bool
	inFrame bool
}

// Feed consumes one byte and returns a complete data frame when one ends.
// Non-data frames (TNC commands) are dropped.
func (d *kissDecoder) Feed(b byte) ([]byte, bool) {
	if b == FEND {
		frame := d.buf
		complete := d.inFrame && len(frame) > 1
		d.buf = nil
		d.escaped = false
		d.inFrame = true
		if !complete || frame[0]&0x0F != kissDataFrame {
			return nil, false
		}
		return frame[1:], true
	}

	if !d.inFrame {
		return nil, false
	}

	if d.escaped {
		d.escaped = false
		switch b {
		case TFEND:
			b = FEND
		case TFESC:
			b = FESC
		default:
			// Protocol error, drop the frame
			d.buf = nil
			d.inFrame = false
			return nil, false
		}
	} else if b == FESC {
		d.escaped = true
		return nil, false
	}

	if len(d.buf) < maxFrameLength {
		d.buf = append(d.buf, b)
	}
	return nil, false
}
