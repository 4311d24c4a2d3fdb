package ports

import "io/fs"

// FileSystem is the file access used to list source images, read them and
// write debug output and summaries.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// ReadDir lists the entries of a directory in no particular order.
	ReadDir(path string) ([]fs.DirEntry, error)

	// WriteFile creates or truncates path.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error
	Exists(path string) (bool, error)

	// Remove deletes a file or an empty directory.
	Remove(path string) error
}
