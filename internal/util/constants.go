package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"
)

// 电子表格类型单独列出：明确拒绝并提示转换，而不是并入通用的不支持类型
var SpreadsheetMimeTypes = []string{
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/csv",
}

const (
	// NoAnswerPlaceholder 最终提交时文本缺失的占位答案
	NoAnswerPlaceholder = "[No answer provided]"
)
