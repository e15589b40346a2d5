package render

// Strings holds the fixed display copy of the page. The site ships in a
// single locale; Default is that locale.
type Strings struct {
	DefaultName   string
	DefaultRole   string
	Problem       string
	Solution      string
	Impact        string
	KeyFeatures   string
	LinksPending  string
	EmptyValue    string
	LinkHint      string
	MetaSeparator string
	LocationMark  string
	EmailMark     string
	AvatarAlt     string
	FatalTitle    string
	FatalSubtitle string
}

var Default = Strings{
	DefaultName:   "Portfolio",
	DefaultRole:   "Application Developer",
	Problem:       "Problem",
	Solution:      "Solution",
	Impact:        "Impact",
	KeyFeatures:   "Key features",
	LinksPending:  "Links coming soon",
	EmptyValue:    "—",
	LinkHint:      "↗",
	MetaSeparator: " · ",
	LocationMark:  "📍 ",
	EmailMark:     "✉️ ",
	AvatarAlt:     "%s profile photo",
	FatalTitle:    "Couldn't load the page data",
	FatalSubtitle: "The page content failed to load. Check the message below, then reload to try again.",
}
