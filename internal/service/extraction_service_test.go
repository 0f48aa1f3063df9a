package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/util"
)

// pngData 最小 PNG 文件头，足以让 MIME 嗅探识别为 image/png
var pngData = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type fakeUpstream struct {
	server *httptest.Server
	calls  int64
}

// newFakeUpstream 伪造 chat-completions 上游。handler 返回 (statusCode, body)
func newFakeUpstream(t *testing.T, handler func() (int, string)) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.calls, 1)
		status, body := handler()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) Calls() int64 {
	return atomic.LoadInt64(&f.calls)
}

func chatBody(content string) string {
	quoted, _ := json.Marshal(content)
	return `{"choices":[{"message":{"role":"assistant","content":` + string(quoted) + `}}]}`
}

func newTestExtraction(f *fakeUpstream) *ExtractionService {
	ai := NewAIService(config.AIConfig{
		BaseURL:     f.server.URL,
		APIKey:      "test-key",
		Model:       "test-model",
		VisionModel: "test-vision",
		Timeout:     5 * time.Second,
	})
	return NewExtractionService(ai, config.ExtractionConfig{MaxFileSizeMB: 1, SessionTTLDays: 14})
}

func TestExtractAnswersSingleVisionCall(t *testing.T) {
	upstream := newFakeUpstream(t, func() (int, string) {
		return http.StatusOK, chatBody("Q1: Paris\nQ2: NOT FOUND")
	})
	svc := newTestExtraction(upstream)

	questions := []QuestionRef{
		{QuestionNo: 1, Question: "Capital of France?"},
		{QuestionNo: 2, Question: "Capital of Mars?"},
	}
	result, err := svc.ExtractAnswers(context.Background(), pngData, "image/png", questions)
	if err != nil {
		t.Fatal(err)
	}

	if got := upstream.Calls(); got != 1 {
		t.Fatalf("upstream must be hit exactly once, got %d calls", got)
	}
	if result.Source != ExtractionSourceVision {
		t.Errorf("source = %q", result.Source)
	}
	if result.Found != 1 || result.Total != 2 || result.Missing != 1 {
		t.Errorf("found/total/missing = %d/%d/%d", result.Found, result.Total, result.Missing)
	}
	if result.Answers[1] != "Paris" {
		t.Errorf("answer 1 = %q", result.Answers[1])
	}
	if len(result.MissingNos) != 1 || result.MissingNos[0] != 2 {
		t.Errorf("missing nos = %v", result.MissingNos)
	}
}

func TestExtractAnswersRejectsSpreadsheetBeforeUpstream(t *testing.T) {
	upstream := newFakeUpstream(t, func() (int, string) {
		return http.StatusOK, chatBody("unused")
	})
	svc := newTestExtraction(upstream)

	for _, mime := range []string{"text/csv", "application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"} {
		_, err := svc.ExtractAnswers(context.Background(), []byte("a,b,c"), mime, nil)
		if !errors.Is(err, util.ErrUnsupportedFileType) {
			t.Errorf("%s: expected ErrUnsupportedFileType, got %v", mime, err)
		}
	}
	if got := upstream.Calls(); got != 0 {
		t.Fatalf("rejected uploads must never reach the upstream, got %d calls", got)
	}
}

func TestExtractAnswersRejectsOversizedFile(t *testing.T) {
	upstream := newFakeUpstream(t, func() (int, string) {
		return http.StatusOK, chatBody("unused")
	})
	svc := newTestExtraction(upstream)

	big := make([]byte, 1<<20+1)
	copy(big, pngData)
	_, err := svc.ExtractAnswers(context.Background(), big, "image/png", nil)
	if !errors.Is(err, util.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if upstream.Calls() != 0 {
		t.Fatal("size check must run before any network call")
	}
}

func TestExtractAnswersRejectsUnsupportedContent(t *testing.T) {
	upstream := newFakeUpstream(t, func() (int, string) {
		return http.StatusOK, chatBody("unused")
	})
	svc := newTestExtraction(upstream)

	// 文本内容申报为图片：以嗅探结果为准
	_, err := svc.ExtractAnswers(context.Background(), []byte("just plain text"), "image/png", nil)
	if !errors.Is(err, util.ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	if upstream.Calls() != 0 {
		t.Fatal("sniff rejection must happen before any network call")
	}
}

func TestExtractAnswersUpstreamErrorPassthrough(t *testing.T) {
	upstream := newFakeUpstream(t, func() (int, string) {
		return http.StatusInternalServerError, `{"message": "quota exceeded"}`
	})
	svc := newTestExtraction(upstream)

	_, err := svc.ExtractAnswers(context.Background(), pngData, "image/png", nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "quota exceeded" {
		t.Fatalf("upstream message must pass through unchanged, got %q", err.Error())
	}
	// 不重试
	if got := upstream.Calls(); got != 1 {
		t.Fatalf("failed calls must not be retried, got %d calls", got)
	}
}

func TestExtractAnswersEmptyResponse(t *testing.T) {
	upstream := newFakeUpstream(t, func() (int, string) {
		return http.StatusOK, chatBody("   \n ")
	})
	svc := newTestExtraction(upstream)

	_, err := svc.ExtractAnswers(context.Background(), pngData, "image/png", nil)
	if !errors.Is(err, util.ErrEmptyExtraction) {
		t.Fatalf("expected ErrEmptyExtraction, got %v", err)
	}
}

func TestValidateUploadOctetStreamFallsBackToDeclared(t *testing.T) {
	upstream := newFakeUpstream(t, func() (int, string) {
		return http.StatusOK, chatBody("unused")
	})
	svc := newTestExtraction(upstream)

	// 嗅探不出类型的字节流，退回申报类型
	opaque := []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe}
	mime, err := svc.ValidateUpload(opaque, "application/pdf")
	if err != nil {
		t.Fatalf("declared pdf fallback: %v", err)
	}
	if mime != util.MimePDF {
		t.Errorf("mime = %q, want %q", mime, util.MimePDF)
	}
}
