package headers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Level is a heading ordinal. In JSON it accepts either a number or the
// "Header N" form classifiers tend to echo back.
type Level int

func (l *Level) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*l = Level(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("level: expected number or string, got %s", string(b))
	}
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "Header"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("level: %q is not a heading level", s)
	}
	*l = Level(n)
	return nil
}
