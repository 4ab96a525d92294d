//go:build linux

package eventloop

import (
	"encoding/binary"
	"errors"

	"golang.org/x/sys/unix"
)

// writeWakeByte increments the dispatcher's eventfd counter by one, retrying
// on interrupt. EAGAIN/EWOULDBLOCK (counter at max) is a benign signal the
// reader will still wake; anything else not a full 8-byte write is fatal.
func writeWakeByte(fd int) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	for {
		n, err := unix.Write(fd, buf[:])
		if err == nil {
			if n == len(buf) {
				return nil
			}
			return errors.New("eventloop: short write to async eventfd")
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

// drainWakeFd reads the eventfd counter until it is exhausted (EAGAIN), the
// nonblocking-read signal that no further wakeups are queued.
func drainWakeFd(fd int) error {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err == nil {
			continue
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
