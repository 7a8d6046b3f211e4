package log

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// formatter renders a logrus entry through a pattern string understanding
// the %time, %level, %field, %msg, %caller, %func, and %goroutine tokens.
type formatter struct {
	pattern string
	time    string
}

// Format implements logrus.Formatter.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	output := f.pattern
	output = strings.Replace(output, "%time", entry.Time.Format(f.time), 1)
	output = strings.Replace(output, "%level", entry.Level.String(), 1)
	output = strings.Replace(output, "%field", buildFields(entry), 1)
	output = strings.Replace(output, "%msg", entry.Message, 1)
	output = strings.Replace(output, "%caller", callerLocation(entry), 1)
	output = strings.Replace(output, "%func", callerFunc(entry), 1)
	output = strings.Replace(output, "%goroutine", goroutineID(), 1)
	return []byte(output + "\n"), nil
}

// callFrame resolves the call site logrus recorded on entry, falling back
// to runtime.Caller when report-caller was left disabled. The skip depth
// matches logrus's own call stack when invoked through logrusAdapter.
func callFrame(entry *logrus.Entry) (file string, line int, function string, ok bool) {
	if entry.HasCaller() {
		return entry.Caller.File, entry.Caller.Line, entry.Caller.Function, true
	}
	pc, file, line, ok := runtime.Caller(8)
	if !ok {
		return "", 0, "", false
	}
	function = ""
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
	}
	return file, line, function, true
}

// callerLocation renders "package/file:line", trimming both down to their
// final path segment.
func callerLocation(entry *logrus.Entry) string {
	file, line, function, ok := callFrame(entry)
	if !ok {
		return "unknown"
	}
	file = lastSegment(file, "/")
	pkg := ""
	if function != "" {
		funcParts := strings.Split(function, ".")
		pkg = lastSegment(funcParts[0], "/")
	}
	return fmt.Sprintf("%s/%s:%d", pkg, file, line)
}

// callerFunc renders the bare method/function name, dropping its package
// and receiver-type qualification.
func callerFunc(entry *logrus.Entry) string {
	_, _, function, ok := callFrame(entry)
	if !ok || function == "" {
		return "unknown"
	}
	if dot := strings.LastIndex(function, "."); dot != -1 && dot+1 < len(function) {
		return function[dot+1:]
	}
	return function
}

func lastSegment(s, sep string) string {
	if idx := strings.LastIndex(s, sep); idx != -1 && idx+1 < len(s) {
		return s[idx+1:]
	}
	return s
}

// goroutineID extracts the numeric goroutine ID from a one-frame stack
// dump; there is no supported stdlib accessor for it.
func goroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	stack := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	fields := strings.Fields(stack)
	if len(fields) > 0 {
		return fields[0]
	}
	return "unknown"
}

// buildFields renders entry.Data as "key=value,key=value" in a
// deterministic key order — Go map iteration order is randomized, and an
// unordered %field token would make grepping or diffing log lines across
// otherwise-identical calls unreliable.
func buildFields(entry *logrus.Entry) string {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		v := entry.Data[k]
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		fields = append(fields, k+"="+s)
	}
	return strings.Join(fields, ",")
}
