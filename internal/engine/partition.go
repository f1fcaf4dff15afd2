package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPartitionName is the directory value used for a null partition column.
const DefaultPartitionName = "__HIVE_DEFAULT_PARTITION__"

// PartitionValue is one partition column value; Null selects DefaultPartitionName.
type PartitionValue struct {
	Value string
	Null  bool
}

// PartitionString converts a nullable string column.
func PartitionString(v *string) PartitionValue {
	if v == nil {
		return PartitionValue{Null: true}
	}
	return PartitionValue{Value: *v}
}

// PartitionInt converts a nullable int column.
func PartitionInt(v *int32) PartitionValue {
	if v == nil {
		return PartitionValue{Null: true}
	}
	return PartitionInt32(*v)
}

// PartitionInt32 converts a non-null int column.
func PartitionInt32(v int32) PartitionValue {
	return PartitionValue{Value: strconv.FormatInt(int64(v), 10)}
}

// partitionDir renders "col=value/col=value" with hive path escaping.
func partitionDir(columns []string, values []PartitionValue) (string, error) {
	if len(columns) != len(values) {
		return "", fmt.Errorf("table has %d partition columns but row produced %d values", len(columns), len(values))
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		v := DefaultPartitionName
		if !values[i].Null && values[i].Value != "" {
			v = escapePathName(values[i].Value)
		}
		parts[i] = escapePathName(col) + "=" + v
	}
	return strings.Join(parts, "/"), nil
}

func needsEscape(c byte) bool {
	if c < 0x20 || c == 0x7f {
		return true
	}
	switch c {
	case '"', '#', '%', '\'', '*', '/', ':', '=', '?', '\\', '{', '[', ']', '^':
		return true
	}
	return false
}

func escapePathName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(c) {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
