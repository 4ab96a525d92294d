//go:build windows

package eventloop

func writeWakeByte(fd int) error { return nil }

func drainWakeFd(fd int) error { return nil }
