package maintenance

import (
	"fmt"
	"io/fs"
	"os"
)

// FileSystem opens directory trees for drift detection.
type FileSystem interface {
	Dir(root string) (fs.FS, error)
}

// OSFileSystem reads the local disk.
type OSFileSystem struct{}

// Dir returns the tree rooted at root, which must be an existing directory.
func (OSFileSystem) Dir(root string) (fs.FS, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return os.DirFS(root), nil
}
