package security

import "testing"

// 全タグが除去されテキストのみ残ることを検証
func TestContentSanitizer_StripsAllTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "bugün çok güzel bir gündü", "bugün çok güzel bir gündü"},
		{"script removed", `<script>alert("x")</script>merhaba`, "merhaba"},
		{"markup stripped", "<p>merhaba <strong>dünya</strong></p>", "merhaba dünya"},
		{"img removed", `önce<img src="https://example.com/x.png">sonra`, "öncesonra"},
		{"empty input", "", ""},
		{"event handler removed", `<div onclick="steal()">metin</div>`, "metin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// HTMLエンティティが元の文字に戻ることを検証
func TestContentSanitizer_UnescapesEntities(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`"tırnaklı" & işaretli`)
	if got != `"tırnaklı" & işaretli` {
		t.Errorf("Sanitize = %q", got)
	}
}

// 冪等性を検証（2回適用しても結果が変わらない）
func TestContentSanitizer_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<b>kalın</b> "metin" & daha fazlası`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("not idempotent: %q != %q", once, twice)
	}
}
