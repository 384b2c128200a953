package store

import (
	"fmt"
	"strconv"
	"time"
)

// Row 是一行查询结果，key 为列名。不同驱动返回的整数宽度不同，读取时统一转换。
type Row map[string]any

// Int64 读取整数列。
func (r Row) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, fmt.Errorf("列 %s 为空", col)
	default:
		return 0, fmt.Errorf("列 %s 类型 %T 无法转换为整数", col, v)
	}
}

// String 读取文本列，NULL 返回空串。
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// Bool 读取布尔列，兼容 SQLite 用整数存储布尔值。
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case nil:
		return false
	default:
		n, err := r.Int64(col)
		return err == nil && n != 0
	}
}
