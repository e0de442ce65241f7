package vault

import (
	"os"
	"time"
)

// createdTime returns the best available creation time for a file. Birth time
// is not exposed portably by the standard library, so the modification time
// stands in for it.
func createdTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
