//go:build !linux

package storage

import (
	"io/fs"

	"github.com/starford/ebi/internal/models"
)

func readMetadata(_ string, info fs.FileInfo) models.FileMetadata {
	return baseMetadata(info)
}
