package service

import (
	"bytes"
	"context"
	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/util"
	"edu_collaborate_backend/pkg/logger"
	"edu_collaborate_backend/pkg/monitoring"
	"encoding/base64"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// ExtractionService 手写作业识别管线：上传文件 -> 视觉模型提取文本 -> 逐题匹配答案。
// 原始文件不落库，仅在本次请求内存中存在。
type ExtractionService struct {
	AI  *AIService
	Cfg config.ExtractionConfig
}

func NewExtractionService(ai *AIService, cfg config.ExtractionConfig) *ExtractionService {
	return &ExtractionService{AI: ai, Cfg: cfg}
}

const (
	ExtractionSourceTextLayer = "pdf_text_layer"
	ExtractionSourceVision    = "vision"

	// PDF 文本层少于该长度视为扫描件/手写件，仍需走视觉模型
	minTextLayerLen = 20
)

type ExtractionResult struct {
	RawText    string         `json:"-"`
	Answers    map[int]string `json:"answers"`
	Found      int            `json:"found"`
	Total      int            `json:"total"`
	Missing    int            `json:"missing"`
	MissingNos []int          `json:"missingQuestionNos,omitempty"`
	Source     string         `json:"source"`
}

// ValidateUpload 大小与类型校验，必须在任何网络调用之前完成。
// 电子表格类型明确拒绝并提示先转换为 PDF/图片，绝不静默尝试。
func (s *ExtractionService) ValidateUpload(data []byte, declaredMime string) (string, error) {
	if len(data) > s.Cfg.MaxFileSizeMB<<20 {
		monitoring.ExtractionCounter.WithLabelValues("rejected").Inc()
		return "", util.ErrFileTooLarge
	}

	if util.IsSpreadsheet(declaredMime) {
		monitoring.ExtractionCounter.WithLabelValues("rejected").Inc()
		return "", util.ErrUnsupportedFileType
	}

	mimeType, err := util.DetectMimeType(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	// 某些浏览器对 PDF 申报 octet-stream，以嗅探结果为准；
	// 嗅探不出来时退回申报类型
	if mimeType == util.MimeOctetStream && declaredMime != "" {
		mimeType = declaredMime
	}

	if !util.IsImage(mimeType) && !util.IsPDF(mimeType) {
		monitoring.ExtractionCounter.WithLabelValues("rejected").Inc()
		return "", util.ErrUnsupportedFileType
	}

	return mimeType, nil
}

// ExtractAnswers 核心流程。PDF 先探测文本层，有可用文本则跳过付费的视觉调用；
// 否则恰好发起一次视觉提取。不重试，上游错误原样上抛。
func (s *ExtractionService) ExtractAnswers(ctx context.Context, data []byte, declaredMime string, questions []QuestionRef) (*ExtractionResult, error) {
	mimeType, err := s.ValidateUpload(data, declaredMime)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		monitoring.ExtractionDuration.Observe(time.Since(start).Seconds())
	}()

	var rawText, source string

	if util.IsPDF(mimeType) {
		if text := probePDFTextLayer(data); len([]rune(strings.TrimSpace(text))) >= minTextLayerLen {
			rawText = text
			source = ExtractionSourceTextLayer
			monitoring.ExtractionCounter.WithLabelValues("text_layer").Inc()
		}
	}

	if rawText == "" {
		prompt := BuildExtractionPrompt(questions)
		encoded := base64.StdEncoding.EncodeToString(data)

		text, err := s.AI.ChatVision(ctx, prompt, mimeType, encoded)
		if err != nil {
			monitoring.ExtractionCounter.WithLabelValues("upstream_error").Inc()
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			monitoring.ExtractionCounter.WithLabelValues("empty").Inc()
			return nil, util.ErrEmptyExtraction
		}
		rawText = text
		source = ExtractionSourceVision
		monitoring.ExtractionCounter.WithLabelValues("extracted").Inc()
	}

	questionNos := make([]int, len(questions))
	for i, q := range questions {
		questionNos[i] = q.QuestionNo
	}

	answers := ParseAnswers(rawText, questionNos)

	result := &ExtractionResult{
		RawText: rawText,
		Answers: answers,
		Found:   len(answers),
		Total:   len(questionNos),
		Missing: len(questionNos) - len(answers),
		Source:  source,
	}
	for _, no := range questionNos {
		if _, ok := answers[no]; !ok {
			result.MissingNos = append(result.MissingNos, no)
		}
	}

	logger.Log.Info("handwritten extraction completed",
		zap.String("source", source),
		zap.Int("found", result.Found),
		zap.Int("total", result.Total))

	return result, nil
}

// probePDFTextLayer 读取 PDF 内嵌文本层。扫描/手写 PDF 没有文本层，返回空串
func probePDFTextLayer(data []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}
