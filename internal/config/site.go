package config

import (
	"maps"
	"net/url"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
	"github.com/nao1215/a11yscan/internal/source"
)

// TargetConfig holds settings for one target or one host.
type TargetConfig struct {
	// Cookie is an HTTP cookie sent with requests for this target.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Level overrides the conformance level for this target.
	Level model.Level `yaml:"level,omitempty"`

	// Industry and Tone select the design preset for this target.
	Industry string `yaml:"industry,omitempty"`
	Tone     string `yaml:"tone,omitempty"`

	// Depth overrides the global crawl depth for this target.
	// If zero, the global CrawlDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path patterns to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// Request returns the HTTP settings of the target config.
func (tc TargetConfig) Request() source.Request {
	return source.Request{Headers: tc.Headers, Cookie: tc.Cookie}
}

// File represents the structure of the .a11yscan configuration file.
type File struct {
	// Defaults apply to every target unless a target entry overrides them.
	Defaults TargetConfig `yaml:"defaults,omitempty"`

	// Targets maps a target (file path or URL) or a bare host name to its
	// settings.
	Targets map[string]TargetConfig `yaml:"targets,omitempty"`

	// Rules is an optional rule table override.
	Rules *ruleset.Table `yaml:"rules,omitempty"`
}

// GetTargetConfig returns the configuration for target, merged over the
// defaults. An exact target entry wins over an entry for the URL's host.
func (cf *File) GetTargetConfig(target string) TargetConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	entry, ok := cf.Targets[target]
	if !ok {
		if host := hostOf(target); host != "" {
			entry, ok = cf.Targets[host]
		}
	}
	if !ok {
		return result
	}

	if entry.Cookie != "" {
		result.Cookie = entry.Cookie
	}
	if len(entry.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(entry.Headers))
		}
		maps.Copy(result.Headers, entry.Headers)
	}
	if entry.Level != "" {
		result.Level = entry.Level
	}
	if entry.Industry != "" {
		result.Industry = entry.Industry
	}
	if entry.Tone != "" {
		result.Tone = entry.Tone
	}
	if entry.Depth != 0 {
		result.Depth = entry.Depth
	}
	if len(entry.IgnorePatterns) > 0 {
		result.IgnorePatterns = entry.IgnorePatterns
	}
	if len(entry.FollowPatterns) > 0 {
		result.FollowPatterns = entry.FollowPatterns
	}

	return result
}

// hostOf returns the lowercased host of an http(s) URL target, or "".
func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.ToLower(u.Host)
}
