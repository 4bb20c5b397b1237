package utils

import (
	"fmt"
	"strings"

	"collectd.org/api"
)

// ValueListToString pretty prints a value list in a consistent manner for
// logging purposes.
func ValueListToString(vl *api.ValueList) string {
	values := make([]string, 0, len(vl.Values))
	for _, v := range vl.Values {
		values = append(values, fmt.Sprintf("%v", v))
	}
	return fmt.Sprintf("%s = [%s] @ %s (interval %s)", vl.Identifier.String(), strings.Join(values, ", "), vl.Time.Format("2006-01-02T15:04:05Z07:00"), vl.Interval)
}
