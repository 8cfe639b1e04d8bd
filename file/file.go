package file

import (
	"github.com/google/uuid"
)

// CreateFileIDMap assigns every path a fresh score ID.
func CreateFileIDMap(paths []string) map[string]string {
	res := make(map[string]string, len(paths))
	for _, v := range paths {
		res[uuid.NewString()] = v
	}
	return res
}
