package api

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/dutchcoders/go-clamd"
)

var errMaliciousFile = errors.New("malicious file detected")

// scanUpload 在导入前把上传内容交给 clamd 扫描。
// 命中病毒返回 errMaliciousFile, daemon 不可达等情况返回其他错误。
func scanUpload(clamdAddr string, file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()

	client := clamd.NewClamd(clamdAddr)
	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := client.ScanStream(reader, abortChan)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}
