package logging

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"simplepng/config"
	"simplepng/oops"
)

func init() {
	zerolog.ErrorStackMarshaler = oops.ZerologStackMarshaler
	log.Logger = log.Output(NewPrettyZerologWriter(os.Stderr))
	zerolog.SetGlobalLevel(config.Config.LogLevel)
}

func GlobalLogger() *zerolog.Logger {
	return &log.Logger
}

func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func Debug() *zerolog.Event {
	return log.Debug().Timestamp()
}

func Info() *zerolog.Event {
	return log.Info().Timestamp()
}

func Warn() *zerolog.Event {
	return log.Warn().Timestamp()
}

func Error() *zerolog.Event {
	return log.Error().Timestamp().Stack()
}

func Fatal() *zerolog.Event {
	return log.Fatal().Timestamp().Stack()
}

const (
	ansiReset    = "\033[0m"
	ansiBold     = "\033[1m"
	ansiRed      = "\033[31m"
	ansiBlue     = "\033[34m"
	ansiGray     = "\033[90m"
	ansiBgRed    = "\033[41m"
	ansiBgYellow = "\033[43m"
	ansiBgBlue   = "\033[44m"
)

var colorFromLevel = map[string]string{
	"trace": ansiGray,
	"debug": ansiGray,
	"info":  ansiBgBlue,
	"warn":  ansiBgYellow,
	"error": ansiBgRed,
	"fatal": ansiBgRed,
	"panic": ansiBgRed,
}

// PrettyZerologWriter renders zerolog's JSON events as readable, possibly
// multi-line text.
type PrettyZerologWriter struct {
	out                 io.Writer
	wd                  string
	wasLastLogMultiline bool
}

type PrettyLogEntry struct {
	Timestamp  string
	Level      string
	Message    string
	Error      string
	StackTrace []interface{}

	OtherFields []PrettyField
}

type PrettyField struct {
	Name  string
	Value interface{}
}

func NewPrettyZerologWriter(out io.Writer) *PrettyZerologWriter {
	wd, _ := os.Getwd()
	return &PrettyZerologWriter{
		out: out,
		wd:  wd,
	}
}

func (w *PrettyZerologWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	err := json.Unmarshal(p, &fields)
	if err != nil {
		return w.out.Write(p)
	}

	var pretty PrettyLogEntry
	for name, val := range fields {
		switch name {
		case zerolog.TimestampFieldName:
			pretty.Timestamp, _ = val.(string)
		case zerolog.LevelFieldName:
			pretty.Level, _ = val.(string)
		case zerolog.MessageFieldName:
			pretty.Message, _ = val.(string)
		case zerolog.ErrorFieldName:
			pretty.Error, _ = val.(string)
		case zerolog.ErrorStackFieldName:
			pretty.StackTrace, _ = val.([]interface{})
		default:
			pretty.OtherFields = append(pretty.OtherFields, PrettyField{
				Name:  name,
				Value: val,
			})
		}
	}

	sort.Slice(pretty.OtherFields, func(i, j int) bool {
		return strings.Compare(pretty.OtherFields[i].Name, pretty.OtherFields[j].Name) < 0
	})

	isMultiline := (pretty.Error != "" || pretty.StackTrace != nil || pretty.OtherFields != nil)

	var b strings.Builder
	if isMultiline || w.wasLastLogMultiline {
		b.WriteString("---------------------------------------\n")
	}
	if pretty.Timestamp != "" {
		b.WriteString(pretty.Timestamp)
		b.WriteString(" ")
	}
	if pretty.Level != "" {
		b.WriteString(colorFromLevel[pretty.Level])
		b.WriteString(ansiBold)
		b.WriteString(strings.ToUpper(pretty.Level))
		b.WriteString(ansiReset)
		b.WriteString(": ")
	}
	b.WriteString(pretty.Message)
	b.WriteString("\n")
	if pretty.Error != "" {
		b.WriteString("  " + ansiBold + ansiRed + "ERROR:" + ansiReset + " ")
		b.WriteString(pretty.Error)
		b.WriteString("\n")
	}
	if len(pretty.OtherFields) > 0 {
		b.WriteString("  " + ansiBold + ansiBlue + "Fields:" + ansiReset + "\n")
		for _, field := range pretty.OtherFields {
			valuePretty, _ := json.MarshalIndent(field.Value, "    ", "  ")
			b.WriteString("    ")
			b.WriteString(field.Name)
			b.WriteString(": ")
			b.Write(valuePretty)
			b.WriteString("\n")
		}
	}
	if pretty.StackTrace != nil {
		b.WriteString("  " + ansiBold + ansiBlue + "Stack trace:" + ansiReset + "\n")
		for _, frame := range pretty.StackTrace {
			frameMap, ok := frame.(map[string]interface{})
			if !ok {
				continue
			}
			file, _ := frameMap["file"].(string)
			file = strings.Replace(file, w.wd, ".", 1)
			function, _ := frameMap["function"].(string)
			line, _ := frameMap["line"].(float64)

			b.WriteString("    ")
			b.WriteString(function)
			b.WriteString(" (")
			b.WriteString(file)
			b.WriteString(":")
			b.WriteString(strconv.Itoa(int(line)))
			b.WriteString(")\n")
		}
	}

	w.wasLastLogMultiline = isMultiline

	if _, err := io.WriteString(w.out, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func LogPanics(logger *zerolog.Logger) {
	if r := recover(); r != nil {
		LogPanicValue(logger, r, "recovered from panic")
	}
}

func LogPanicValue(logger *zerolog.Logger, val interface{}, msg string) {
	if logger == nil {
		logger = GlobalLogger()
	}

	if err, ok := val.(error); ok {
		l := logger.Error().Err(err)
		if _, ok := err.(*oops.Error); !ok {
			l = l.Interface(zerolog.ErrorStackFieldName, oops.Trace())
		}
		l.Msg(msg)
	} else {
		logger.Error().
			Interface("recovered", val).
			Interface(zerolog.ErrorStackFieldName, oops.Trace()).
			Msg(msg)
	}
}
