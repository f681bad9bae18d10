package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Level is the severity of an entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps CMS_LOG_LEVEL onto a Level. Unknown names resolve to
// LevelInfo and report false.
func ParseLevel(name string) (Level, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "":
		return LevelInfo, true
	case "warning":
		return LevelWarn, true
	}
	for i, label := range levelNames {
		if strings.EqualFold(label, normalized) {
			return Level(i), true
		}
	}
	return LevelInfo, false
}

// Options configures the console provider. Without a MinLevel everything from
// DEBUG up is written. When Focus lists logger name prefixes, loggers outside
// them only write WARN and above.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
	Focus    []string
}

type provider struct {
	mu       sync.Mutex
	out      io.Writer
	clock    func() time.Time
	minLevel Level
	focus    []string
}

// NewProvider returns a provider that writes one logfmt style line per entry,
// to stderr unless Options.Writer is set.
func NewProvider(opts Options) interfaces.LoggerProvider {
	p := &provider{
		out:      opts.Writer,
		clock:    opts.TimeFunc,
		minLevel: LevelDebug,
	}
	if p.out == nil {
		p.out = os.Stderr
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if opts.MinLevel != nil {
		p.minLevel = *opts.MinLevel
	}
	for _, prefix := range opts.Focus {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			p.focus = append(p.focus, trimmed)
		}
	}
	return p
}

func (p *provider) GetLogger(name string) interfaces.Logger {
	return &consoleLogger{
		p:       p,
		floor:   p.floorFor(name),
		fields:  map[string]any{"logger": name},
		context: context.Background(),
	}
}

func (p *provider) floorFor(name string) Level {
	if len(p.focus) == 0 {
		return p.minLevel
	}
	for _, prefix := range p.focus {
		if strings.HasPrefix(name, prefix) {
			return p.minLevel
		}
	}
	return max(p.minLevel, LevelWarn)
}

type consoleLogger struct {
	p       *provider
	floor   Level
	fields  map[string]any
	context context.Context
}

var (
	_ interfaces.Logger       = (*consoleLogger)(nil)
	_ interfaces.FieldsLogger = (*consoleLogger)(nil)
)

func (l *consoleLogger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *consoleLogger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *consoleLogger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *consoleLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	next := *l
	next.fields = merge(l.fields, fields)
	return &next
}

func (l *consoleLogger) WithContext(ctx context.Context) interfaces.Logger {
	next := *l
	if ctx != nil {
		next.context = ctx
	}
	return &next
}

func (l *consoleLogger) write(level Level, msg string, args []any) {
	if level < l.floor {
		return
	}
	fields := merge(l.fields, logging.ContextFields(l.context))
	fields = merge(fields, pairs(args))
	line := render(l.p.clock().UTC(), level, msg, fields)

	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	_, _ = io.WriteString(l.p.out, line)
}

func merge(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// pairs reads alternating key/value arguments. Values without a usable key
// are kept under arg_N.
func pairs(args []any) map[string]any {
	out := make(map[string]any, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			out["arg_"+strconv.Itoa(i/2)] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg_" + strconv.Itoa(i/2)
		}
		out[key] = args[i+1]
	}
	return out
}

func render(ts time.Time, level Level, msg string, fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(value(fields[k]))
	}
	b.WriteByte('\n')
	return b.String()
}

func value(v any) string {
	switch typed := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if typed == nil {
			return "null"
		}
		return typed.UTC().Format(time.RFC3339Nano)
	case error:
		return quote(errorText(typed))
	case fmt.Stringer:
		return quote(typed.String())
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return quote(fmt.Sprint(typed))
	}
}

// errorText prefixes categorised errors with their text code so log lines
// carry the same code clients see.
func errorText(err error) string {
	var typed *goerrors.Error
	if errors.As(err, &typed) && typed.TextCode != "" {
		return typed.TextCode + ": " + err.Error()
	}
	return err.Error()
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
