package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// 答案匹配策略链。每个策略是一个纯函数 (text, questionNo) -> (answer, ok)，
// 按顺序逐题尝试，首个命中即止，各题之间互相独立（不做全局消歧）。

type answerMatcher struct {
	name  string
	match func(text string, questionNo int) (string, bool)
}

var answerMatchers = []answerMatcher{
	// 结构化格式：严格的 "Qn: ..." 段落，终止于下一个 "Qm:" 或文本结尾
	{name: "structured", match: matchStructured},
	// 宽松格式：Question/Q 标记 + Answer/Ans/A./Solution 标签
	{name: "labeled", match: matchLabeled},
	// 裸编号行："3) ..."、"3. ..." 之类，可选答案标签
	{name: "numbered", match: matchNumbered},
}

const notFoundMarker = "NOT FOUND"

// answerLabelRe 剥离答案前缀标签（Answer/Ans/A./Solution）
var answerLabelRe = regexp.MustCompile(`(?i)^\s*(?:answer|ans|a\.|solution)\s*[:.\-]?\s*`)

// cleanAnswer 去除前缀标签与首尾空白；拒绝包含 NOT FOUND 的段落，
// 以及零散标点类碎片。纯字母数字的短答案（如 "42"）是合法答案，不在拒绝之列。
func cleanAnswer(segment string) (string, bool) {
	if strings.Contains(strings.ToUpper(segment), notFoundMarker) {
		return "", false
	}
	cleaned := answerLabelRe.ReplaceAllString(segment, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || !hasAlnum(cleaned) {
		return "", false
	}
	if len([]rune(cleaned)) <= 3 && !isAlnumOnly(cleaned) {
		return "", false
	}
	return cleaned, true
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isAlnumOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func matchStructured(text string, questionNo int) (string, bool) {
	re := regexp.MustCompile(fmt.Sprintf(`(?is)\bQ%d\s*:\s*(.*?)(?:\bQ\d+\s*:|$)`, questionNo))
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return cleanAnswer(m[1])
}

func matchLabeled(text string, questionNo int) (string, bool) {
	re := regexp.MustCompile(fmt.Sprintf(
		`(?is)(?:question|q)\.?\s*%d\b.*?(?:answer|ans|a\.|solution)\s*[:.\-]?\s*(.*?)(?:(?:question|q)\.?\s*\d+\b|$)`,
		questionNo))
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return cleanAnswer(m[1])
}

func matchNumbered(text string, questionNo int) (string, bool) {
	re := regexp.MustCompile(fmt.Sprintf(
		`(?is)(?:^|\n)\s*%d\s*[:.)]\s*(.*?)(?:\n\s*\d+\s*[:.)]|$)`,
		questionNo))
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return cleanAnswer(m[1])
}

// ParseAnswers 将提取出的自由文本解析为 题号 -> 答案 的部分映射。
// 没有可信匹配的题目直接缺席，绝不填充空串。对同一输入重复调用结果一致。
func ParseAnswers(text string, questionNos []int) map[int]string {
	answers := make(map[int]string)
	if strings.TrimSpace(text) == "" {
		return answers
	}
	for _, no := range questionNos {
		for _, m := range answerMatchers {
			if ans, ok := m.match(text, no); ok {
				answers[no] = ans
				break
			}
		}
	}
	return answers
}

// BuildExtractionPrompt 构造发给视觉模型的提示词：内嵌完整编号题目列表，
// 要求严格按 "Qn: <答案或 NOT FOUND>" 逐行输出
func BuildExtractionPrompt(questions []QuestionRef) string {
	var b strings.Builder
	b.WriteString("You are reading a student's handwritten answer sheet (image or PDF).\n")
	b.WriteString("The assignment contains the following numbered questions:\n\n")
	for _, q := range questions {
		fmt.Fprintf(&b, "Q%d: %s\n", q.QuestionNo, q.Question)
	}
	b.WriteString("\nTranscribe the student's answer for each question.\n")
	b.WriteString("Respond with EXACTLY one line per question, in this strict format:\n")
	b.WriteString("Q<number>: <transcribed answer or the literal NOT FOUND>\n")
	b.WriteString("Do not add commentary, headers or markdown. If an answer is illegible or missing, write NOT FOUND.\n")
	return b.String()
}

// QuestionRef 提取提示词用到的最小题目投影
type QuestionRef struct {
	QuestionNo int
	Question   string
}
