//go:build linux

package storage

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"

	"github.com/starford/ebi/internal/models"
)

// readMetadata uses statx so that birth time is reported where the file
// system records it.
func readMetadata(path string, info fs.FileInfo) models.FileMetadata {
	md := baseMetadata(info)

	var sx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW,
		unix.STATX_BASIC_STATS|unix.STATX_BTIME, &sx)
	if err != nil {
		return md
	}
	if sx.Mask&unix.STATX_ATIME != 0 {
		md.Accessed = statxTime(sx.Atime)
	}
	if sx.Mask&unix.STATX_BTIME != 0 {
		md.Created = statxTime(sx.Btime)
	}
	md.Unix = &models.UnixMetadata{
		Mode: info.Mode(),
		UID:  sx.Uid,
		GID:  sx.Gid,
	}
	return md
}

func statxTime(ts unix.StatxTimestamp) *time.Time {
	return models.TimePtr(time.Unix(ts.Sec, int64(ts.Nsec)))
}
