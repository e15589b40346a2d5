// Package portfolio turns the loosely-typed profile document into a fully
// defaulted view-model. Every field of the result is safe to render: strings
// are either present or "", lists are never nil-checked by callers.
package portfolio

import (
	"fmt"

	json "github.com/goccy/go-json"
)

type Site struct {
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Profile struct {
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Summary    string   `json:"summary"`
	Avatar     string   `json:"avatar"`
	Location   string   `json:"location"`
	Email      string   `json:"email"`
	Highlights []string `json:"highlights"`
	Links      []Link   `json:"links"`
}

type Skills struct {
	Primary []string `json:"primary"`
	Tools   []string `json:"tools"`
}

// ProjectLinks are the outbound links of a project card.
type ProjectLinks struct {
	Repo  string `json:"repo"`
	Demo  string `json:"demo"`
	Store string `json:"store"`
}

type Project struct {
	Name     string       `json:"name"`
	OneLiner string       `json:"oneLiner"`
	Type     string       `json:"type"`
	Year     string       `json:"year"`
	Status   string       `json:"status"`
	Problem  string       `json:"problem"`
	Solution string       `json:"solution"`
	Impact   []string     `json:"impact"`
	Features []string     `json:"features"`
	Stack    []string     `json:"stack"`
	Links    ProjectLinks `json:"links"`
}

type Experience struct {
	Title   string   `json:"title"`
	Org     string   `json:"org"`
	Period  string   `json:"period"`
	Details []string `json:"details"`
}

type Footer struct {
	Text string `json:"text"`
}

// Portfolio is the view-model handed to the section renderers.
type Portfolio struct {
	Site       Site         `json:"site"`
	Profile    Profile      `json:"profile"`
	Skills     Skills       `json:"skills"`
	Projects   []Project    `json:"projects"`
	Experience []Experience `json:"experience"`
	Footer     Footer       `json:"footer"`
}

// Parse decodes a raw document body and builds the view-model from it.
// Only malformed JSON is an error; any well-formed value, including one of
// the wrong shape, yields a (possibly empty) Portfolio.
func Parse(body []byte) (*Portfolio, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding profile document: %w", err)
	}
	return FromRaw(raw), nil
}

// FromRaw applies the absent-or-blank policy to an arbitrary decoded value.
func FromRaw(raw any) *Portfolio {
	doc := Object(raw)
	site := Object(doc["site"])
	profile := Object(doc["profile"])
	skills := Object(doc["skills"])

	p := &Portfolio{
		Site: Site{
			Title:   String(site["title"]),
			Tagline: String(site["tagline"]),
		},
		Profile: Profile{
			Name:       String(profile["name"]),
			Role:       String(profile["role"]),
			Summary:    String(profile["summary"]),
			Avatar:     String(profile["avatar"]),
			Location:   String(profile["location"]),
			Email:      String(profile["email"]),
			Highlights: Strings(profile["highlights"]),
			Links:      links(profile["links"]),
		},
		Skills: Skills{
			Primary: Strings(skills["primary"]),
			Tools:   Strings(skills["tools"]),
		},
		Footer: Footer{Text: String(Object(doc["footer"])["text"])},
	}

	for _, item := range List(doc["projects"]) {
		p.Projects = append(p.Projects, project(Object(item)))
	}
	for _, item := range List(doc["experience"]) {
		e := Object(item)
		p.Experience = append(p.Experience, Experience{
			Title:   String(e["title"]),
			Org:     String(e["org"]),
			Period:  String(e["period"]),
			Details: Strings(e["details"]),
		})
	}
	return p
}

func project(m map[string]any) Project {
	l := Object(m["links"])
	return Project{
		Name:     String(m["name"]),
		OneLiner: String(m["oneLiner"]),
		Type:     String(m["type"]),
		Year:     String(m["year"]),
		Status:   String(m["status"]),
		Problem:  String(m["problem"]),
		Solution: String(m["solution"]),
		Impact:   Strings(m["impact"]),
		Features: Strings(m["features"]),
		Stack:    Strings(m["stack"]),
		Links: ProjectLinks{
			Repo:  String(l["repo"]),
			Demo:  String(l["demo"]),
			Store: String(l["store"]),
		},
	}
}

// links keeps record-shaped entries. Entries with a blank url are kept so the
// renderer can apply its own skip rule; only non-records are dropped.
func links(v any) []Link {
	var out []Link
	for _, item := range List(v) {
		m := Object(item)
		if m == nil {
			continue
		}
		out = append(out, Link{Label: String(m["label"]), URL: String(m["url"])})
	}
	return out
}
