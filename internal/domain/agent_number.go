package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AgentNumberPrefix is the fixed prefix of every agent number
const AgentNumberPrefix = "AGT"

// FormatAgentNumber renders a sequence value as AGT### (zero-padded to at least 3 digits).
func FormatAgentNumber(seq int) string {
	return fmt.Sprintf("%s%03d", AgentNumberPrefix, seq)
}

// ParseAgentNumber extracts the trailing digits of an agent number.
// Returns 0 and false when the value has no trailing digits.
func ParseAgentNumber(number string) (int, bool) {
	number = strings.TrimSpace(number)
	end := len(number)
	start := end
	for start > 0 && number[start-1] >= '0' && number[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(number[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsValidAgentNumber reports whether number has the AGT### shape
func IsValidAgentNumber(number string) bool {
	if !strings.HasPrefix(number, AgentNumberPrefix) || len(number) < len(AgentNumberPrefix)+3 {
		return false
	}
	_, ok := ParseAgentNumber(number)
	return ok && strings.TrimLeft(number[len(AgentNumberPrefix):], "0123456789") == ""
}
