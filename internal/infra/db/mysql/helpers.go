package mysql

import (
	"strings"

	"github.com/bryanwahyu/marine-vision/internal/domain/history"
)

// namespaceOrDefault returns history.Namespace when the input is empty/whitespace
func namespaceOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return history.Namespace
	}
	return s
}
