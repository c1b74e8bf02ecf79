package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"Code":        "code",
		"PhoneNumber": "phone_number",
		"UserID":      "user_id",
		"HTTPServer":  "http_server",
		"userAgent":   "user_agent",
		"Retry2Count": "retry2_count",
		"dead-letter": "dead_letter",
		"_Leading":    "leading",
	}

	for in, want := range tests {
		if got := ToLowerSnake(in); got != want {
			t.Errorf("ToLowerSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
