// Package cti implements the CTI Pipeline (C9): extracting IOCs from free
// text, bucketing and chunking them per platform limits, and handing the
// chunks to a platform-specific CTI renderer.
package cti

import "regexp"

// Type names one IOC kind, doubling as the generic_field bucket key used
// when mapping to platform field names (spec.md §4.9 step 2).
type Type string

const (
	IP       Type = "src_ip"
	Domain   Type = "domain"
	URL      Type = "url"
	MD5      Type = "md5"
	SHA1     Type = "sha1"
	SHA256   Type = "sha256"
	SHA512   Type = "sha512"
	Email    Type = "email"
	Filename Type = "filename"
	RegistryPath Type = "registry_path"
)

// HashTypes is the set of Types considered "hash types" for
// include_hash_types filtering.
var HashTypes = []Type{MD5, SHA1, SHA256, SHA512}

// patterns holds one compiled regexp per IOC type, evaluated in a fixed
// order so that more specific patterns (url, email) are tried before the
// patterns they could be mistaken for (domain).
var patterns = []struct {
	typ Type
	re  *regexp.Regexp
}{
	{URL, regexp.MustCompile(`\bhttps?://[^\s"'<>]+`)},
	{Email, regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)},
	{IP, regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)},
	{SHA512, regexp.MustCompile(`\b[a-fA-F0-9]{128}\b`)},
	{SHA256, regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`)},
	{SHA1, regexp.MustCompile(`\b[a-fA-F0-9]{40}\b`)},
	{MD5, regexp.MustCompile(`\b[a-fA-F0-9]{32}\b`)},
	{RegistryPath, regexp.MustCompile(`\bHKEY_[A-Z_]+\\[^\s"']+`)},
	{Filename, regexp.MustCompile(`\b[\w,\s-]+\.(?:exe|dll|bat|ps1|vbs|scr|sys|cmd)\b`)},
	{Domain, regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`)},
}

// IOC is one extracted indicator.
type IOC struct {
	Type  Type
	Value string
}
