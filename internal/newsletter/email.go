package newsletter

import (
	"net/mail"
	"strings"
)

// maxEmailLength はメールアドレスの最大長（RFC 5321のパス長上限）。
const maxEmailLength = 320

// NormalizeEmail はメールアドレスを比較・保存用に正規化する。
// 前後の空白を除去し、小文字化する。冪等である。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail はメールアドレスの形式を検証し、問題があれば理由を返す。
// 問題がない場合は空文字列を返す。前後の空白は検証前に除去する。
// 表示名付きの形式（"Name <addr>"）は受け付けない。
func ValidateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Required"
	}
	if len(email) > maxEmailLength {
		return "Email is too long"
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "Invalid email"
	}

	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || len(domain)-dot-1 < 2 || strings.HasPrefix(domain, "[") {
		return "Invalid email"
	}

	return ""
}
