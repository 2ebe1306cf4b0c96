package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	ansiReset = "\033[0m"
	ansiBlue  = "34"
)

type levelStyle struct {
	tag   string
	color string
}

var levelStyles = map[string]levelStyle{
	zerolog.LevelTraceValue: {"TRC", ""},
	zerolog.LevelDebugValue: {"DBG", "36"},
	zerolog.LevelInfoValue:  {"INF", "32"},
	zerolog.LevelWarnValue:  {"WRN", "33"},
	zerolog.LevelErrorValue: {"ERR", "31"},
	zerolog.LevelFatalValue: {"FTL", "35"},
}

func colorize(s, color string, noColor bool) string {
	if noColor || color == "" {
		return s
	}
	return "\033[" + color + "m" + s + ansiReset
}

// consoleWriter renders entries as "15:04:05 [WHI][INF] message key:value".
// The bracketed service tag is the first three letters of the service name.
func consoleWriter(out io.Writer, serviceName string, noColor bool) zerolog.ConsoleWriter {
	tag := ""
	if serviceName != "default" && len(serviceName) >= 3 {
		tag = colorize("["+strings.ToUpper(serviceName[:3])+"]", ansiBlue, noColor)
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToLower(fmt.Sprint(i))
			style, ok := levelStyles[lvl]
			if !ok {
				style = levelStyle{tag: strings.ToUpper(lvl)}
			}
			return tag + colorize("["+style.tag+"]", style.color, noColor)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprint(i) + ":"
		},
	}
}
