package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"23505", &pq.Error{Code: "23505"}, true},
		{"ラップされた23505", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"外部キー違反", &pq.Error{Code: "23503"}, false},
		{"pq以外のエラー", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
