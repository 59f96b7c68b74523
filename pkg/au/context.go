package au

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Context is the state shared by the steps of one discovery call. It is
// created by the entry point and passed by pointer; nothing in it outlives
// the call.
type Context struct {
	// VxVMAvailable is set once the volume manager root has been walked.
	VxVMAvailable bool
	// ZvolAvailable is set once the ZFS volume namespace has been found.
	ZvolAvailable bool
	// Disksets collects the software mirror diskset names seen during
	// cluster enumeration.
	Disksets sets.Set[string]
	// LastIOErrSlice is the last slice whose label read failed with an I/O
	// error during the current walk.
	LastIOErrSlice string
}

func NewContext() *Context {
	return &Context{Disksets: sets.New[string]()}
}

// SharesFailedDisk reports whether path names a sibling slice of the last
// slice that failed with an I/O error, i.e. both share every character but
// the trailing slice index.
func (c *Context) SharesFailedDisk(path string) bool {
	if c.LastIOErrSlice == "" || len(path) < 2 {
		return false
	}
	prefix := path[:len(path)-1]
	return strings.HasPrefix(c.LastIOErrSlice, prefix)
}
