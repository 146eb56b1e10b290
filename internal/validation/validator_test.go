package validation

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid username", "user123", false},
		{"Valid with underscore", "user_name", false},
		{"Valid with hyphen", "user-name", false},
		{"Minimum length", "abc", false},
		{"Above maximum length", "a12345678901234567890", true},  // 21 chars
		{"Too short", "ab", true},
		{"Empty", "", true},
		{"With spaces", "user name", true},
		{"With special chars", "user@name", true},
		{"With unicode", "us√©r", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid strong password", "Password123", false},
		{"Valid with special chars", "Pass@word123", false},
		{"Too short", "Pass1", true},
		{"No uppercase", "password123", true},
		{"No lowercase", "PASSWORD123", true},
		{"No number", "PasswordABC", true},
		{"Empty", "", true},
		{"Too long", strings.Repeat("A", 129) + "a1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name    string
		uuid    string
		wantErr bool
	}{
		{"Valid UUID", "550e8400-e29b-41d4-a716-446655440000", false},
		{"Valid UUID uppercase", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Invalid format", "not-a-uuid", true},
		{"Missing hyphens", "550e8400e29b41d4a716446655440000", true},
		{"Too short", "550e8400-e29b-41d4-a716", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUUID(tt.uuid)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUUID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIntRange(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		fieldName string
		wantErr   bool
	}{
		{"Within range", 5, 1, 10, "test", false},
		{"At minimum", 1, 1, 10, "test", false},
		{"At maximum", 10, 1, 10, "test", false},
		{"Below minimum", 0, 1, 10, "test", true},
		{"Above maximum", 11, 1, 10, "test", true},
		{"Negative in positive range", -5, 0, 10, "test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntRange(tt.value, tt.min, tt.max, tt.fieldName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIntRange() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckSQLInjection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Clean input", "hello world", false},
		{"Single quote", "it's fine", true},
		{"Double quote", "he said \"hello\"", true},
		{"SQL comment", "text -- comment", true},
		{"SQL keyword SELECT", "SELECT * FROM users", true},
		{"SQL keyword DROP", "DROP TABLE users", true},
		{"SQL UNION", "UNION SELECT password", true},
		{"Clean with numbers", "user123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSQLInjection(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckSQLInjection() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckXSS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Clean input", "hello world", false},
		{"Script tag", "<script>alert('xss')</script>", true},
		{"JavaScript protocol", "javascript:alert(1)", true},
		{"Onerror handler", "<img onerror='alert(1)'>", true},
		{"Iframe tag", "<iframe src='evil.com'>", true},
		{"Clean HTML-like", "less than < and greater than >", false},
		{"Clean with brackets", "array[0]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckXSS(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckXSS() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNonNegativeInt(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"Positive", 5, false},
		{"Zero", 0, false},
		{"Negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegativeInt(tt.value, "test")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNonNegativeInt() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnum(t *testing.T) {
	allowed := []string{"up", "down", "none"}
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"Allowed value", "up", false},
		{"Another allowed value", "none", false},
		{"Not allowed", "sideways", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnum(tt.value, allowed, "direction")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEnum() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Clean string", "hello", "hello"},
		{"With whitespace", "  hello  ", "hello"},
		{"With null byte", "hello\x00world", "helloworld"},
		{"Multiple spaces", "hello    world", "hello    world"}, // Only trims edges
		{"Empty", "", ""},
		{"Only whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeString(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeString() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestValidateSafeString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		minLen    int
		maxLen    int
		fieldName string
		wantErr   bool
	}{
		{"Valid string", "hello", 1, 10, "test", false},
		{"With whitespace", "  hello  ", 1, 10, "test", false},
		{"Too short after sanitize", "   ", 1, 10, "test", true},
		{"Too long", "hello world long string", 1, 10, "test", true},
		{"With SQL injection", "'; DROP TABLE users; --", 1, 100, "test", true},
		{"With XSS", "<script>alert(1)</script>", 1, 100, "test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSafeString(tt.input, tt.minLen, tt.maxLen, tt.fieldName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSafeString() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
