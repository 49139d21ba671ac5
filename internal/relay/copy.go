package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

const relayBufferSize = 32 * 1024

// relayBuffers holds *[]byte so Put does not allocate for the slice header.
var relayBuffers = sync.Pool{
	New: func() any {
		b := make([]byte, relayBufferSize)
		return &b
	},
}

// CopyBidirectional copies bytes between left and right until one direction
// finishes, then closes both. Canceling ctx closes both as well. It returns
// nil when both directions ended cleanly, otherwise a direction's transport
// failure. The direction unblocked by closeBoth never masks that failure.
func CopyBidirectional(ctx context.Context, left, right net.Conn) error {
	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = left.Close()
			_ = right.Close()
		})
	}
	defer closeBoth()

	// If the context is canceled, close both sides to unblock Copy.
	stop := context.AfterFunc(ctx, closeBoth)
	defer stop()

	var g errgroup.Group

	g.Go(func() error {
		defer closeBoth()
		return dirtyClose(copyBuffer(left, right))
	})

	g.Go(func() error {
		defer closeBoth()
		return dirtyClose(copyBuffer(right, left))
	})

	return g.Wait()
}

func copyBuffer(dst io.Writer, src io.Reader) error {
	buf := relayBuffers.Get().(*[]byte)
	defer relayBuffers.Put(buf)

	_, err := io.CopyBuffer(dst, src, *buf)
	return err
}

func dirtyClose(err error) error {
	if IsCleanClose(err) {
		return nil
	}
	return err
}

// IsCleanClose reports whether err, as returned by CopyBidirectional, only
// reflects a side closing rather than a transport failure.
func IsCleanClose(err error) bool {
	return err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
