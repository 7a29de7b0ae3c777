package audio

import "sync"

// FRAME_LENGTH is the size of one compressed voice frame (Codec2 3200, 20 ms)
const FRAME_LENGTH = 8

// Frame is one compressed voice frame
type Frame [FRAME_LENGTH]byte

// FrameQueue is a circular buffer of voice frames shared between a producer
// and a consumer goroutine. Pop blocks until a frame is available or the
// queue is closed.
type FrameQueue struct {
	name   string
	mu     sync.Mutex
	cond   *sync.Cond
	buffer []Frame
	iPtr   int // Input pointer (where new frames are written)
	oPtr   int // Output pointer (where frames are read from)
	count  int
	closed bool

	overflows uint32
}

// NewFrameQueue creates a queue holding up to length frames
func NewFrameQueue(length int, name string) *FrameQueue {
	if length <= 0 {
		panic("FrameQueue length must be > 0")
	}

	q := &FrameQueue{
		name:   name,
		buffer: make([]Frame, length),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Name returns the queue name
func (q *FrameQueue) Name() string {
	return q.name
}

// Push adds a frame. When full the oldest frame is dropped and false is returned.
func (q *FrameQueue) Push(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	ok := true
	if q.count == len(q.buffer) {
		q.oPtr = (q.oPtr + 1) % len(q.buffer)
		q.count--
		q.overflows++
		ok = false
	}

	q.buffer[q.iPtr] = f
	q.iPtr = (q.iPtr + 1) % len(q.buffer)
	q.count++
	q.cond.Signal()
	return ok
}

func (q *FrameQueue) take() Frame {
	f := q.buffer[q.oPtr]
	q.oPtr = (q.oPtr + 1) % len(q.buffer)
	q.count--
	return f
}

// Pop waits for a frame. It returns false once the queue is closed and drained.
func (q *FrameQueue) Pop() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.count == 0 {
		return Frame{}, false
	}
	return q.take(), true
}

// TryPop returns a frame without waiting
func (q *FrameQueue) TryPop() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Frame{}, false
	}
	return q.take(), true
}

// Len returns the number of queued frames
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Overflows returns how many frames were dropped because the queue was full
func (q *FrameQueue) Overflows() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.overflows
}

// Clear drops all queued frames
func (q *FrameQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.iPtr = 0
	q.oPtr = 0
	q.count = 0
}

// Close wakes all waiters. Queued frames can still be popped.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Reopen makes a closed queue usable again, dropping its content
func (q *FrameQueue) Reopen() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = false
	q.iPtr = 0
	q.oPtr = 0
	q.count = 0
}
