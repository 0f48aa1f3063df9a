package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrNotPublished       = errors.New("not published or not accessible")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("already submitted")
	ErrNotSubmittedYet    = errors.New("submission has not been made yet")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrNoQuestions        = errors.New("cannot publish without questions")

	// 提取管线三类面向用户的错误，保持文案各自独立（见 extraction_service）
	ErrUnsupportedFileType = errors.New("unsupported file type: please convert spreadsheets or documents to PDF or image before uploading")
	ErrFileTooLarge        = errors.New("file is too large: maximum upload size is 20MB")
	ErrEmptyExtraction     = errors.New("the extraction service returned no usable text, please try a clearer photo or PDF")
)
