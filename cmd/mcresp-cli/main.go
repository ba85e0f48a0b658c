package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pior/mcresp"
	"github.com/pior/mcresp/text"
)

func main() {
	fmt.Println("Memcache Response CLI Tool")
	fmt.Println("==========================")
	fmt.Println(`Commands: line <text>, feed <text>, show, value, reset, stats, help, quit (text accepts Go escapes like \r\n)`)
	fmt.Println()

	s := newSession(os.Stdout)
	if err := s.run(os.Stdin, "> "); err != nil {
		fmt.Printf("Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// session accumulates bytes typed by the user and classifies them after
// every command, the way a connection reader would after every read.
type session struct {
	out   io.Writer
	buf   []byte
	last  []byte
	stats *mcresp.Stats
}

func newSession(out io.Writer) *session {
	return &session{out: out, stats: mcresp.NewStats()}
}

func (s *session) run(in io.Reader, prompt string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.handle(line) {
			return nil
		}
	}
	return scanner.Err()
}

// handle runs one command and reports whether the session goes on.
func (s *session) handle(line string) bool {
	command, arg, _ := strings.Cut(line, " ")

	switch strings.ToLower(command) {
	case "line":
		s.feed(arg, true)

	case "feed":
		if arg == "" {
			fmt.Fprintln(s.out, "Usage: feed <text>")
			return true
		}
		s.feed(arg, false)

	case "show":
		fmt.Fprintf(s.out, "Buffer (%d bytes): %q\n", len(s.buf), s.buf)

	case "value":
		s.showValue()

	case "reset":
		s.buf = s.buf[:0]
		fmt.Fprintln(s.out, "Buffer cleared")

	case "stats":
		s.showStats()

	case "help":
		fmt.Fprintln(s.out, "Commands:")
		fmt.Fprintln(s.out, "  line <text>   - Append text followed by CRLF")
		fmt.Fprintln(s.out, "  feed <text>   - Append text as is")
		fmt.Fprintln(s.out, "  show          - Print the pending bytes")
		fmt.Fprintln(s.out, "  value         - Parse the last complete response as a value")
		fmt.Fprintln(s.out, "  reset         - Drop the pending bytes")
		fmt.Fprintln(s.out, "  stats         - Show counts of complete responses")
		fmt.Fprintln(s.out, "  quit          - Exit the CLI")

	case "quit", "exit":
		fmt.Fprintln(s.out, "Goodbye!")
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s. Type 'help' for available commands.\n", command)
	}
	return true
}

func (s *session) feed(arg string, crlf bool) {
	data, err := unescape(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid text: %v\n", err)
		return
	}

	s.buf = append(s.buf, data...)
	if crlf {
		s.buf = append(s.buf, text.CRLF...)
	}

	out := text.Classify(s.buf)
	if !out.IsTerminal() {
		fmt.Fprintf(s.out, "%s (%d bytes pending)\n", out, len(s.buf))
		return
	}

	fmt.Fprintf(s.out, "%s (%d bytes)\n", out, len(s.buf))
	if err := out.Err(); err != nil {
		fmt.Fprintf(s.out, "  error: %v (close connection: %t)\n", err, text.ShouldCloseConnection(err))
	}

	s.stats.Record(out, len(s.buf))
	s.last = append(s.last[:0], s.buf...)
	s.buf = s.buf[:0]
}

func (s *session) showValue() {
	if len(s.last) == 0 {
		fmt.Fprintln(s.out, "No complete response yet")
		return
	}

	v, err := text.ParseValue(s.last)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Key: %s\n", v.Key)
	fmt.Fprintf(s.out, "Flags: %d\n", v.Flags)
	if v.HasCAS {
		fmt.Fprintf(s.out, "CAS: %d\n", v.CAS)
	}
	fmt.Fprintf(s.out, "Data (%d bytes): %q\n", len(v.Data), v.Data)
}

func (s *session) showStats() {
	snap := s.stats.Snapshot()
	if snap.Total() == 0 {
		fmt.Fprintln(s.out, "No statistics available")
		return
	}

	fmt.Fprintf(s.out, "Responses: %d (%d bytes)\n", snap.Total(), snap.Bytes)
	for _, kind := range text.Kinds() {
		if n := snap.Count(kind); n > 0 {
			fmt.Fprintf(s.out, "  %-10s %d\n", kind, n)
		}
	}
}

// unescape interprets Go escape sequences in s. Bare double quotes are
// taken literally.
func unescape(s string) ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			sb.WriteByte(c)
			i++
			sb.WriteByte(s[i])
		case c == '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')

	u, err := strconv.Unquote(sb.String())
	if err != nil {
		return nil, err
	}
	return []byte(u), nil
}
