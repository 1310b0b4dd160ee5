package storage

import (
	"io/fs"

	"github.com/starford/ebi/internal/models"
)

// baseMetadata fills the portable fields of a FileMetadata.
func baseMetadata(info fs.FileInfo) models.FileMetadata {
	return models.FileMetadata{
		Size:     info.Size(),
		ReadOnly: info.Mode().Perm()&0o222 == 0,
		Modified: models.TimePtr(info.ModTime()),
	}
}
