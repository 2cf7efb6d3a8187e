package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/bugparty/wpctl/internal/settings"
)

// Options control how a note body becomes post content
type Options struct {
	CommentConvertMode settings.CommentConvertMode
	// EnableHTML keeps raw HTML of the note instead of sanitizing it
	EnableHTML bool
	// UploadRawMarkdown skips markdown rendering
	UploadRawMarkdown bool
	MathJaxOutputType settings.MathJaxOutputType
}

// OptionsFrom takes the render options from the plugin settings
func OptionsFrom(s settings.Settings) Options {
	return Options{
		CommentConvertMode: s.CommentConvertMode,
		EnableHTML:         s.EnableHTML,
		UploadRawMarkdown:  s.UploadRawMarkdown,
		MathJaxOutputType:  s.MathJaxOutputType,
	}
}

var (
	commentRe = regexp.MustCompile(`(?s)%%(.*?)%%`)
	mathRe    = regexp.MustCompile(`(?s)\$\$.+?\$\$|\\\(.+?\\\)|\\\[.+?\\\]`)
)

// Renderer renders note bodies. It is safe for concurrent use.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRenderer creates a Renderer with GitHub flavored markdown
func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts comments per opts, renders markdown to HTML and
// sanitizes it unless raw HTML is enabled
func (r *Renderer) Render(body string, opts Options) (string, error) {
	body = ConvertEmbeds(body)

	var comments []string
	body = commentRe.ReplaceAllStringFunc(body, func(m string) string {
		if opts.CommentConvertMode != settings.CommentHTML {
			return ""
		}
		comments = append(comments, commentRe.FindStringSubmatch(m)[1])
		return commentToken(len(comments) - 1)
	})

	if opts.UploadRawMarkdown {
		return restoreComments(body, comments), nil
	}

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	out := buf.String()
	if !opts.EnableHTML {
		out = r.policy.Sanitize(out)
	}
	out = restoreComments(out, comments)

	if opts.MathJaxOutputType != "" && mathRe.MatchString(body) {
		out = fmt.Sprintf("<div data-mathjax=%q>\n%s</div>\n", opts.MathJaxOutputType, out)
	}
	return out, nil
}

// commentToken is a placeholder markdown and the sanitizer leave untouched
func commentToken(i int) string {
	return fmt.Sprintf("WPCTLCOMMENT%dEND", i)
}

func restoreComments(s string, comments []string) string {
	for i, c := range comments {
		token := commentToken(i)
		marker := "<!--" + strings.ReplaceAll(c, "--", "- -") + "-->"
		s = strings.ReplaceAll(s, "<p>"+token+"</p>", marker)
		s = strings.ReplaceAll(s, token, marker)
	}
	return s
}
