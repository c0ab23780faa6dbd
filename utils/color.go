package utils

import (
	"fmt"
	"os"
)

const (
	ColorDarkGray = 90
)

func Colorize(s interface{}, c int, enabled bool) string {
	if !enabled || c == 0 || os.Getenv("NO_COLOR") != "" {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
