package util

import (
	"io"
	"net/http"
	"strings"
)

// DetectMimeType 基于文件头嗅探 MIME 类型，不信任客户端申报的 Content-Type
func DetectMimeType(reader io.Reader) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

// IsImage 检测是否为图片
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// IsPDF 检测是否为 PDF
func IsPDF(mimeType string) bool {
	return mimeType == MimePDF
}

// IsSpreadsheet 检测是否为电子表格类型（需要在任何上游调用之前拒绝）
func IsSpreadsheet(mimeType string) bool {
	for _, t := range SpreadsheetMimeTypes {
		if mimeType == t {
			return true
		}
	}
	return false
}

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/", "application/pdf"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	mimeType, err := DetectMimeType(reader)
	if err != nil {
		return "", err
	}

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, ErrUnsupportedFileType
}
