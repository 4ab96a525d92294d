//go:build linux

package eventloop

import (
	"golang.org/x/sys/unix"
)

// statPath stats path on Linux. Linux's struct stat has no birthtime, flags,
// or generation fields (those are BSD/Darwin extensions), so those three
// fields are always zero here; FsPoll's equality check still treats them as
// part of the snapshot, it's simply a constant contribution on this platform.
func statPath(path string) (StatSnapshot, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return StatSnapshot{}, err
	}

	return StatSnapshot{
		CtimeSec:  int64(st.Ctim.Sec),
		CtimeNsec: int64(st.Ctim.Nsec),
		MtimeSec:  int64(st.Mtim.Sec),
		MtimeNsec: int64(st.Mtim.Nsec),
		Size:      uint64(st.Size),
		Mode:      st.Mode,
		UID:       st.Uid,
		GID:       st.Gid,
		Ino:       st.Ino,
		Dev:       uint64(st.Dev),
	}, nil
}
