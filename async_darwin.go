//go:build darwin

package eventloop

import (
	"errors"

	"golang.org/x/sys/unix"
)

// writeWakeByte writes a single token byte to the dispatcher's self-pipe
// write end, retrying on interrupt. EAGAIN/EWOULDBLOCK (pipe buffer full,
// meaning an unread token is already queued) is a benign signal the reader
// will still wake; anything else short of a full 1-byte write is fatal.
func writeWakeByte(fd int) error {
	buf := [1]byte{1}
	for {
		n, err := unix.Write(fd, buf[:])
		if err == nil {
			if n == len(buf) {
				return nil
			}
			return errors.New("eventloop: short write to async wakeup pipe")
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil
		}
		return err
	}
}

// drainWakeFd repeatedly reads fd into a scratch buffer until a short read
// or EAGAIN/EWOULDBLOCK, the non-blocking-pipe signal that it is empty.
func drainWakeFd(fd int) error {
	var buf [64]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return nil
			}
			return err
		}
		if n < len(buf) {
			return nil
		}
	}
}
