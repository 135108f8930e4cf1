package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		wantErr bool
	}{
		{"valid BTCUSDT", "BTCUSDT", false},
		{"valid lowercase", "btcusdt", false},
		{"valid with hyphen", "BTC-USDT", false},
		{"valid with underscore", "BTC_USDT", false},
		{"valid with slash", "BTC/USDT", false},
		{"valid with numbers", "1INCHUSDT", false},
		{"empty", "", true},
		{"single char", "B", true},
		{"too long", strings.Repeat("B", 31), true},
		{"special chars", "BTC@USDT", true},
		{"spaces", "BTC USDT", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbol(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"btcusdt", "BTCUSDT"},
		{"btc-usdt", "BTCUSDT"},
		{"BTC_USDT", "BTCUSDT"},
		{"btc/usdt", "BTCUSDT"},
		{" Eth-Usdt ", "ETHUSDT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSymbol(tt.input); got != tt.expected {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr bool
	}{
		{"binance style 64 chars", strings.Repeat("aB3", 21) + "x", false},
		{"valid 16 chars", "1234567890123456", false},
		{"valid with dashes", "abcd-1234-5678-efgh", false},
		{"empty", "", true},
		{"too short", "123456789012345", true},
		{"special chars", "abcd!@#$efgh1234", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.apiKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.apiKey, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAPISecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"valid 16 chars", "1234567890123456", false},
		{"valid with special", "abcd1234!@#$%^&*", false},
		{"empty", "", true},
		{"too short", "123456789012345", true},
		{"whitespace", "abcd1234 efgh5678", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPISecret(tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPISecret(%q) error = %v, wantErr %v", tt.secret, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOwnerID(t *testing.T) {
	valid := []string{"mem_clx9a8b7c6", "user-1", "auth0:abc.def"}
	for _, id := range valid {
		if err := ValidateOwnerID(id); err != nil {
			t.Errorf("ValidateOwnerID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "has space", strings.Repeat("a", 129), "drop;table"}
	for _, id := range invalid {
		if err := ValidateOwnerID(id); !errors.Is(err, ErrInvalidOwnerID) {
			t.Errorf("ValidateOwnerID(%q) = %v, want ErrInvalidOwnerID", id, err)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors

	errs.AddError("ignored", nil)
	if errs.HasErrors() {
		t.Fatal("AddError(nil) should not add error")
	}

	errs.Add("botName", "botName is required")
	errs.AddError("pair", ErrInvalidSymbol)

	if len(errs) != 2 {
		t.Fatalf("len = %d, want 2", len(errs))
	}
	if !strings.Contains(errs.Error(), "botName: botName is required") {
		t.Errorf("Error() = %q", errs.Error())
	}
	msgs := errs.Messages()
	if msgs[1] != ErrInvalidSymbol.Error() {
		t.Errorf("Messages()[1] = %q", msgs[1])
	}
}
