//go:build darwin

package eventloop

import (
	"golang.org/x/sys/unix"
)

// statPath stats path on Darwin, which (unlike Linux) exposes birthtime,
// st_flags, and st_gen directly on struct stat.
func statPath(path string) (StatSnapshot, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return StatSnapshot{}, err
	}

	return StatSnapshot{
		CtimeSec:  int64(st.Ctimespec.Sec),
		CtimeNsec: int64(st.Ctimespec.Nsec),
		MtimeSec:  int64(st.Mtimespec.Sec),
		MtimeNsec: int64(st.Mtimespec.Nsec),
		BirthSec:  int64(st.Birthtimespec.Sec),
		BirthNsec: int64(st.Birthtimespec.Nsec),
		Size:      uint64(st.Size),
		Mode:      uint32(st.Mode),
		UID:       st.Uid,
		GID:       st.Gid,
		Ino:       st.Ino,
		Dev:       uint64(st.Dev),
		Flags:     st.Flags,
		Gen:       st.Gen,
	}, nil
}
