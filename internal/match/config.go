// Package match implements the employee-to-message matching pipeline: the
// candidate scanner, the scenario classifier and the most-recent-message
// resolver.
package match

// Keywords holds the keyword lists counted for each scenario.
type Keywords struct {
	Add    []string `koanf:"add" yaml:"add"`
	Remove []string `koanf:"remove" yaml:"remove"`
	Modify []string `koanf:"modify" yaml:"modify"`
}

// Config holds the matching and classification heuristics.
type Config struct {
	// ManagerKeywords mark supervisory context. Matched case-insensitively.
	ManagerKeywords []string `koanf:"manager_keywords" yaml:"manager_keywords"`
	// ManagerWindowBefore and ManagerWindowAfter are measured in runes.
	ManagerWindowBefore int `koanf:"manager_window_before" yaml:"manager_window_before"`
	ManagerWindowAfter  int `koanf:"manager_window_after" yaml:"manager_window_after"`
	// HeaderPrefixes identify quoted header lines. Matched case-insensitively
	// after leading whitespace and '>' quote markers are trimmed.
	HeaderPrefixes []string `koanf:"header_prefixes" yaml:"header_prefixes"`
	// SkipAddressLines treats address lines as header lines: quoted lines
	// holding an '@', and lines that parse as a list of mailboxes.
	SkipAddressLines bool `koanf:"skip_address_lines" yaml:"skip_address_lines"`
	// SnippetRadius is the number of runes kept on each side of a match.
	SnippetRadius int `koanf:"snippet_radius" yaml:"snippet_radius"`

	Keywords Keywords `koanf:"keywords" yaml:"keywords"`
	// Exclusions are removed from the text before keywords are counted.
	Exclusions []string `koanf:"exclusions" yaml:"exclusions"`
}

// DefaultConfig returns the stock heuristics.
func DefaultConfig() Config {
	return Config{
		ManagerKeywords:     []string{"manager", "经理", "主管"},
		ManagerWindowBefore: 200,
		ManagerWindowAfter:  20,
		HeaderPrefixes: []string{
			"from:", "to:", "cc:", "sent:", "subject:",
			"发件人:", "收件人:", "抄送:", "发送时间:", "主题:",
			"发件人：", "收件人：", "抄送：", "发送时间：", "主题：",
		},
		SkipAddressLines: true,
		SnippetRadius:    80,
		Keywords: Keywords{
			Add:    []string{"新增"},
			Remove: []string{"删除"},
			Modify: []string{"修改"},
		},
		Exclusions: []string{"修改密码"},
	}
}
