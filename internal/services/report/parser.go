package report

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/iyunix/go-medreport/internal/domain"
)

const fence = "```"

// StripCodeFence removes one markdown code fence around text, with or
// without a language tag. Unfenced text is only trimmed, so applying it
// twice gives the same result as applying it once.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	body := s[len(fence):]
	// Language tag: "```json\n{...}" or "```json {...}```".
	i := 0
	for i < len(body) && isTagByte(body[i]) {
		i++
	}
	if i == len(body) || strings.ContainsRune(" \t\r\n{[", rune(body[i])) {
		body = body[i:]
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, fence)
	return strings.TrimSpace(body)
}

func isTagByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '-' || b == '_' || b == '+'
}

// ParseAnalysis decodes the model's answer into an analysis. The answer
// may be wrapped in a code fence; every field must be a string and title
// and summary must be present.
func ParseAnalysis(text string) (*domain.MedicalReportAnalysis, error) {
	raw := StripCodeFence(text)
	if raw == "" {
		return nil, NewParseError("parse_analysis", "model returned no JSON", nil)
	}
	var analysis domain.MedicalReportAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, NewParseError("parse_analysis", "model output is not the expected JSON object", err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, NewParseError("parse_analysis", "analysis failed validation", err)
	}
	return &analysis, nil
}

// ValidateImage accepts JPEG uploads only, checked against both the
// declared content type and the leading bytes.
func ValidateImage(image []byte, contentType string, maxBytes int64) error {
	if len(image) == 0 {
		return NewInvalidInputError("validate_image", "uploaded file is empty")
	}
	if maxBytes > 0 && int64(len(image)) > maxBytes {
		return NewInvalidInputError("validate_image", "uploaded file is too large")
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return NewInvalidInputError("validate_image", "invalid content type, only JPEG/JPG images are allowed")
	}
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
	default:
		return NewInvalidInputError("validate_image", "invalid file type, only JPEG/JPG images are allowed")
	}
	if http.DetectContentType(image) != "image/jpeg" {
		return NewInvalidInputError("validate_image", "file content is not a JPEG image")
	}
	return nil
}

// truncateForLog keeps log lines readable when the model rambles.
func truncateForLog(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
