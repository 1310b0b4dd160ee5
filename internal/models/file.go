// Package models defines the domain types shared between the scanner and the shelf.
package models

import (
	"io/fs"
	"time"
)

// FileMetadata is a snapshot of a file's attributes taken at scan time.
// Timestamps are nil when the platform does not report them.
type FileMetadata struct {
	Size     int64         `json:"size"`
	ReadOnly bool          `json:"readonly"`
	Modified *time.Time    `json:"modified,omitempty"`
	Accessed *time.Time    `json:"accessed,omitempty"`
	Created  *time.Time    `json:"created,omitempty"`
	Unix     *UnixMetadata `json:"unix,omitempty"`
}

// UnixMetadata is the POSIX permission block.
type UnixMetadata struct {
	Mode fs.FileMode `json:"mode"`
	UID  uint32      `json:"uid"`
	GID  uint32      `json:"gid"`
}

// FileEntry is one regular file reported by a directory scan.
type FileEntry struct {
	Name     string       `json:"name"`
	Metadata FileMetadata `json:"metadata"`
}

// TimePtr returns a pointer to a UTC copy of t, or nil for the zero time.
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
