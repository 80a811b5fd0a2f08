package match

import (
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/daviddao/permmatch/internal/types"
)

// Suppression explains why a raw occurrence was not accepted.
type Suppression string

// Suppression reasons.
const (
	NotSuppressed     Suppression = ""
	SuppressedHeader  Suppression = "header"
	SuppressedManager Suppression = "manager"
)

// Candidate is a raw occurrence of a name or ID together with the
// suppression decision taken for it.
type Candidate struct {
	types.Occurrence
	Suppressed Suppression `json:"suppressed,omitempty"`
}

// Valid reports whether the candidate survived both suppression rules.
func (c Candidate) Valid() bool {
	return c.Suppressed == NotSuppressed
}

// Scanner finds occurrences of an employee inside a message.
type Scanner struct {
	cfg      Config
	prefixes []string
	managers []string
}

// NewScanner builds a Scanner. Prefixes and manager keywords are lower-cased
// once here.
func NewScanner(cfg Config) *Scanner {
	s := &Scanner{cfg: cfg}
	for _, p := range cfg.HeaderPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			s.prefixes = append(s.prefixes, strings.ToLower(p))
		}
	}
	for _, kw := range cfg.ManagerKeywords {
		if kw != "" {
			s.managers = append(s.managers, strings.ToLower(kw))
		}
	}
	return s
}

// FindValidMatches returns the occurrences of emp in msg that are neither on a
// quoted header line nor in manager context. Subject, body and attachments
// are scanned in that order.
func (s *Scanner) FindValidMatches(emp types.Employee, msg *types.Message) []types.Occurrence {
	var out []types.Occurrence
	for _, c := range s.Scan(emp, msg) {
		if c.Valid() {
			out = append(out, c.Occurrence)
		}
	}
	return out
}

// Scan returns every raw occurrence of emp in msg with its suppression
// decision.
func (s *Scanner) Scan(emp types.Employee, msg *types.Message) []Candidate {
	name := strings.TrimSpace(emp.Name)
	id := strings.TrimSpace(emp.ID)
	if name == "" && id == "" {
		return nil
	}

	var out []Candidate
	out = append(out, s.scanSource(name, id, types.SourceSubject, -1, msg.Subject)...)
	out = append(out, s.scanSource(name, id, types.SourceBody, -1, msg.Body)...)
	for i, a := range msg.Attachments {
		if a.Text == "" {
			continue
		}
		out = append(out, s.scanSource(name, id, types.SourceAttachment, i, a.Text)...)
	}
	return out
}

func (s *Scanner) scanSource(name, id string, kind types.SourceKind, attachment int, text string) []Candidate {
	if text == "" {
		return nil
	}

	type hit struct {
		pos    int
		needle string
	}
	var hits []hit
	if name != "" {
		for _, pos := range indexFoldAll(text, name) {
			hits = append(hits, hit{pos: pos, needle: name})
		}
	}
	if id != "" && id != name {
		for _, pos := range indexAll(text, id) {
			hits = append(hits, hit{pos: pos, needle: id})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		end := h.pos + len(h.needle)
		c := Candidate{
			Occurrence: types.Occurrence{
				Source:     kind,
				Attachment: attachment,
				Position:   h.pos,
				Needle:     h.needle,
				Snippet:    snippet(text, h.pos, end, s.cfg.SnippetRadius),
			},
		}
		switch {
		case s.onHeaderLine(text, h.pos):
			c.Suppressed = SuppressedHeader
		case s.inManagerContext(text, h.pos, end):
			c.Suppressed = SuppressedManager
		}
		out = append(out, c)
	}
	return out
}

// onHeaderLine reports whether the line holding pos is a quoted header line.
func (s *Scanner) onHeaderLine(text string, pos int) bool {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := len(text)
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		end = pos + i
	}
	line := text[start:end]

	if s.cfg.SkipAddressLines && isAddressLine(line) {
		return true
	}
	trimmed := strings.ToLower(strings.TrimLeft(strings.TrimSpace(line), "> \t"))
	for _, p := range s.prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

var listSeparators = strings.NewReplacer("，", ",", "；", ",", ";", ",", "、", ",")

// isAddressLine reports whether line is a quoted line with an address, or
// nothing but mailboxes such as `张三 <zhangsan@corp.com>; 李四 <lisi@corp.com>`.
func isAddressLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "@") {
		return false
	}
	if strings.HasPrefix(trimmed, ">") {
		return true
	}
	list := strings.Trim(listSeparators.Replace(trimmed), ", ")
	_, err := mail.ParseAddressList(list)
	return err == nil
}

func (s *Scanner) inManagerContext(text string, pos, end int) bool {
	if len(s.managers) == 0 {
		return false
	}
	var window string
	if s.cfg.ManagerWindowBefore > 0 {
		window = lastRunes(text[:pos], s.cfg.ManagerWindowBefore)
	}
	if s.cfg.ManagerWindowAfter > 0 {
		window += "\n" + firstRunes(text[end:], s.cfg.ManagerWindowAfter)
	}
	if window == "" {
		return false
	}
	window = strings.ToLower(window)
	for _, kw := range s.managers {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// indexAll returns the byte offsets of non-overlapping occurrences of sub.
func indexAll(s, sub string) []int {
	var out []int
	for from := 0; from <= len(s)-len(sub); {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			break
		}
		out = append(out, from+i)
		from += i + len(sub)
	}
	return out
}

// indexFoldAll is indexAll under Unicode case folding. Candidate positions
// are rune boundaries; the compared window has the byte length of sub.
func indexFoldAll(s, sub string) []int {
	var out []int
	n := len(sub)
	for i := 0; i+n <= len(s); {
		if strings.EqualFold(s[i:i+n], sub) {
			out = append(out, i)
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return out
}

func lastRunes(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func firstRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

func snippet(text string, start, end, radius int) string {
	if radius < 0 {
		radius = 0
	}
	raw := lastRunes(text[:start], radius) + text[start:end] + firstRunes(text[end:], radius)
	return strings.Join(strings.Fields(raw), " ")
}
