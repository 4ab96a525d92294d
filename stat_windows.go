//go:build windows

package eventloop

import "os"

// statPath stats path on Windows via os.Lstat, the only metadata surface
// available without reaching for raw Win32 file-information calls. Fields
// the platform doesn't expose through os.FileInfo (ctime, inode, device,
// flags, generation) are left zero, matching the Linux birthtime gap: the
// equality check still works, it just can't distinguish on those axes here.
func statPath(path string) (StatSnapshot, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return StatSnapshot{}, err
	}

	mt := fi.ModTime()
	mode := uint32(fi.Mode())
	if fi.IsDir() {
		mode |= 1 << 31
	}

	return StatSnapshot{
		MtimeSec:  mt.Unix(),
		MtimeNsec: int64(mt.Nanosecond()),
		Size:      uint64(fi.Size()),
		Mode:      mode,
	}, nil
}
