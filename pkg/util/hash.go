package util

import (
	"crypto/md5"
	"encoding/hex"
)

// MD5Hex 返回字符串的 md5 十六进制摘要，用于生成稳定的存储 key。
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
