package actions

import (
	"fmt"

	"github.com/genspectrum/silo/query/qerr"
	"github.com/genspectrum/silo/storage"
)

// stringify renders an arbitrary row value for use inside a group-by key; it
// is never shown to the client, only used for map-key equality.
func stringify(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

// badColumn reports an action referencing a column the table schema doesn't
// have. Unlike query/filter's badColumn, action field names aren't run
// through the matchr suggester: an action's field list is a small, fixed
// vocabulary the caller picks from the schema directly.
func badColumn(table *storage.Table, name string) error {
	return qerr.Newf(qerr.BadRequest, "unknown column %q", name)
}
