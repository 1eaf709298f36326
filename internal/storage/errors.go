package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey 判断错误是否表示对象不存在 (S3/MinIO: NoSuchKey/NotFound)。
// 删除不存在的导出产物不算失败, 调用方用它做幂等处理。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	switch responseCode(err) {
	case "nosuchkey", "notfound":
		return true
	}

	// 网关或代理可能把响应包装成纯字符串错误。
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist")
}

func responseCode(err error) string {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return strings.ToLower(strings.TrimSpace(minioErr.Code))
	}
	return ""
}
