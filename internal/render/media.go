package render

import (
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	embedRe = regexp.MustCompile(`!\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)
	imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(\s*(<[^>]*>|[^)\s]+)(?:\s+"[^"]*")?\s*\)`)
)

// ConvertEmbeds rewrites Obsidian image embeds ![[file.png|alt]] into
// markdown images with an escaped destination
func ConvertEmbeds(body string) string {
	return embedRe.ReplaceAllStringFunc(body, func(m string) string {
		sub := embedRe.FindStringSubmatch(m)
		return "![" + sub[2] + "](" + escapePath(strings.TrimSpace(sub[1])) + ")"
	})
}

func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

// MediaLink is a local file referenced by an image in a note
type MediaLink struct {
	// Path is the file path relative to the note
	Path string
	// Link is the destination as written in the note and the rendered HTML
	Link string
}

// MediaLinks lists the local images of body after ConvertEmbeds. Remote
// URLs and duplicates are skipped.
func MediaLinks(body string) []MediaLink {
	body = ConvertEmbeds(body)

	seen := make(map[string]bool)
	var links []MediaLink
	for _, m := range imageRe.FindAllStringSubmatch(body, -1) {
		link := strings.TrimSuffix(strings.TrimPrefix(m[2], "<"), ">")
		if link == "" || seen[link] || isRemote(link) {
			continue
		}
		seen[link] = true

		p, err := url.PathUnescape(link)
		if err != nil {
			p = link
		}
		links = append(links, MediaLink{Path: filepath.FromSlash(p), Link: link})
	}
	return links
}

func isRemote(link string) bool {
	u, err := url.Parse(link)
	return err == nil && (u.Scheme != "" || strings.HasPrefix(link, "//"))
}

// MIMEType guesses the content type of a media file from its name
func MIMEType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}
