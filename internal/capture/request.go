// internal/capture/request.go
package capture

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Scope selects which outputs a request wants.
type Scope int

const (
	// ScopeBoth captures the screenshot and downloads attached media.
	ScopeBoth Scope = iota
	// ScopeScreenshotOnly skips media extraction entirely.
	ScopeScreenshotOnly
	// ScopeMediaOnly skips the screenshot.
	ScopeMediaOnly
)

func (s Scope) String() string {
	switch s {
	case ScopeScreenshotOnly:
		return "screenshot-only"
	case ScopeMediaOnly:
		return "media-only"
	default:
		return "both"
	}
}

// WantsScreenshot reports whether the scope includes the rasterized crop.
func (s Scope) WantsScreenshot() bool { return s != ScopeMediaOnly }

// WantsMedia reports whether the scope includes attached photos and videos.
func (s Scope) WantsMedia() bool { return s != ScopeScreenshotOnly }

// linkPattern accepts twitter.com and x.com status links, with or without
// scheme and www, and tolerates trailing query/fragment noise.
var linkPattern = regexp.MustCompile(
	`^(?:https?://)?(?:www\.)?(?:twitter\.com|x\.com)/(\w+)/status(?:es)?/(\d+)(?:\S*)?$`)

// Link is a normalized reference to one tweet.
type Link struct {
	// URL is the canonical form, always on twitter.com. The conversion
	// site only accepts twitter.com links, so normalization happens here
	// once rather than at every consumer.
	URL      string
	UserName string
	ID       string
}

// ParseLink normalizes a raw tweet link.
func ParseLink(raw string) (Link, error) {
	m := linkPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Link{}, fmt.Errorf("invalid tweet link: %q", raw)
	}
	return Link{
		URL:      fmt.Sprintf("https://twitter.com/%s/status/%s", m[1], m[2]),
		UserName: m[1],
		ID:       m[2],
	}, nil
}

// Request describes one capture. It is immutable once built; out-of-range
// mode, night mode and wait values are clamped during construction.
type Request struct {
	Link      Link
	Mode      int
	NightMode int
	Wait      time.Duration
	Scope     Scope

	// OutputDir receives screenshot.png, MediaDir the numbered media
	// files. Both derive from the tweet ID so concurrent requests never
	// collide on the filesystem.
	OutputDir string
	MediaDir  string
}

// NewRequest builds a Request for one tweet under outputRoot.
func NewRequest(link Link, mode, nightMode, waitSeconds int, scope Scope, outputRoot string) Request {
	outDir := filepath.Join(outputRoot, "screenshots-"+link.ID)
	return Request{
		Link:      link,
		Mode:      clamp(mode, 0, 4),
		NightMode: clamp(nightMode, 0, 2),
		Wait:      time.Duration(clamp(waitSeconds, 1, 30)) * time.Second,
		Scope:     scope,
		OutputDir: outDir,
		MediaDir:  filepath.Join(outDir, "media"),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseCommand parses the inbound chat command format:
//
//	<link> [--mode N] [--night N] [-m|--media-only | -s|--screenshot-only]
//
// The first token must be the tweet link. Defaults fill anything omitted.
func ParseCommand(text string, defaultMode, defaultNight, waitSeconds int, outputRoot string) (Request, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Request{}, fmt.Errorf("empty command")
	}

	link, err := ParseLink(fields[0])
	if err != nil {
		return Request{}, err
	}

	mode := defaultMode
	night := defaultNight
	scope := ScopeBoth

	args := fields[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--mode":
			if i+1 >= len(args) {
				return Request{}, fmt.Errorf("--mode requires a value")
			}
			i++
			mode, err = strconv.Atoi(args[i])
			if err != nil {
				return Request{}, fmt.Errorf("--mode: %w", err)
			}
		case "--night":
			if i+1 >= len(args) {
				return Request{}, fmt.Errorf("--night requires a value")
			}
			i++
			night, err = strconv.Atoi(args[i])
			if err != nil {
				return Request{}, fmt.Errorf("--night: %w", err)
			}
		case "-m", "--media-only":
			if scope == ScopeScreenshotOnly {
				return Request{}, fmt.Errorf("media-only and screenshot-only are mutually exclusive")
			}
			scope = ScopeMediaOnly
		case "-s", "--screenshot-only":
			if scope == ScopeMediaOnly {
				return Request{}, fmt.Errorf("media-only and screenshot-only are mutually exclusive")
			}
			scope = ScopeScreenshotOnly
		default:
			return Request{}, fmt.Errorf("unrecognized argument: %q", args[i])
		}
	}

	return NewRequest(link, mode, night, waitSeconds, scope, outputRoot), nil
}

// Tag is an informational marker detected during a capture.
type Tag string

// TagPremiumBadge means the author carries the paid verification badge. The
// chat side uses it to prepend a content warning.
const TagPremiumBadge Tag = "TB"

// Result carries the informational tags of a finished capture. The captured
// files themselves are filesystem side effects under the request's output
// directories.
type Result struct {
	Tags []Tag
}

// HasTag reports whether the result carries the given tag.
func (r Result) HasTag(t Tag) bool {
	for _, have := range r.Tags {
		if have == t {
			return true
		}
	}
	return false
}
