package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bugparty/wpctl/internal/api"
	"github.com/bugparty/wpctl/internal/i18n"
	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/render"
)

var (
	publishTitle         string
	publishStatus        string
	publishCommentStatus string
	publishPostType      string
	publishCategories    []int
	publishTags          []string
	publishDate          string
	publishDryRun        bool
	publishNoWriteBack   bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <note.md>",
	Short: "Publish a markdown note",
	Long: `Render a markdown note and publish it to the selected profile.

Front matter keys (title, tags, categories, postId, postType, status,
commentStatus, date) fill in what the flags leave out. After publishing,
the post ID and categories are written back to the note so the next
publish updates the same post.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notePath := args[0]
		src, err := os.ReadFile(notePath)
		if err != nil {
			return fmt.Errorf("failed to read note: %w", err)
		}
		note, err := render.ParseNote(src)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		post, err := buildPost(a, notePath, note)
		if err != nil {
			return err
		}

		if publishDryRun {
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"title":   post.Title,
					"content": post.Content,
					"params":  post.Params,
					"tags":    post.TagNames,
				})
			}
			fmt.Println(post.Content)
			return nil
		}

		profile, err := a.selectedProfile()
		if err != nil {
			return err
		}
		client, err := a.client(*profile)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("categories") && len(note.FrontMatter.Categories) == 0 &&
			a.settings.RememberLastSelectedCategories && len(profile.LastSelectedCategories) > 0 {
			post.Params.Categories = append([]int(nil), profile.LastSelectedCategories...)
		}

		publisher := api.NewPublisher(client, *profile, a.credentials(),
			api.WithMediaLinkReplacement(a.settings.ReplaceMediaLinks),
			api.WithPublisherLogger(a.logger),
			api.WithPublisherTranslator(a.i18n),
		)
		result, err := publisher.Publish(cmd.Context(), post)
		if err != nil {
			return err
		}
		if !result.OK() {
			if jsonOutput {
				_ = json.NewEncoder(os.Stdout).Encode(result)
			}
			return fmt.Errorf("✗ Publish failed: %s", result.Error.Message)
		}

		if !publishNoWriteBack {
			if err := writeBack(notePath, src, result.Data); err != nil {
				return err
			}
		}
		if a.settings.RememberLastSelectedCategories {
			profile.LastSelectedCategories = result.Data.Categories
			if err := a.store.Save(a.settings); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		fmt.Printf("✓ %s\n", a.i18n.T(i18n.MsgPublishSuccessfully))
		fmt.Printf("  Post ID: %s\n", result.Data.PostID)
		if len(result.Data.Categories) > 0 {
			fmt.Printf("  Categories: %s\n", joinInts(result.Data.Categories))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVarP(&publishTitle, "title", "t", "", "Post title (default: front matter title, then file name)")
	publishCmd.Flags().StringVarP(&publishStatus, "status", "s", "", "Post status: draft, publish, pending, private, future")
	publishCmd.Flags().StringVar(&publishCommentStatus, "comment-status", "", "Comment status: open, closed")
	publishCmd.Flags().StringVar(&publishPostType, "post-type", "", "Post type (default: post)")
	publishCmd.Flags().IntSliceVarP(&publishCategories, "categories", "c", nil, "Comma-separated category IDs")
	publishCmd.Flags().StringSliceVarP(&publishTags, "tags", "T", nil, "Comma-separated tag names")
	publishCmd.Flags().StringVar(&publishDate, "date", "", "Publish date for scheduled posts, e.g. 2030-01-02 10:00")
	publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "Render the note and print it without publishing")
	publishCmd.Flags().BoolVar(&publishNoWriteBack, "no-write-back", false, "Do not write postId and categories back to the note")
}

// buildPost merges flags, front matter and settings into a Post, renders
// the body and collects local media
func buildPost(a *app, notePath string, note render.Note) (api.Post, error) {
	fm := note.FrontMatter

	title := firstNonEmpty(publishTitle, fm.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(notePath), filepath.Ext(notePath))
	}

	params := models.PostParams{
		Status:        models.PostStatus(firstNonEmpty(publishStatus, fm.Status, string(a.settings.DefaultPostStatus))),
		CommentStatus: models.CommentStatus(firstNonEmpty(publishCommentStatus, fm.CommentStatus, string(a.settings.DefaultCommentStatus))),
		PostType:      firstNonEmpty(publishPostType, fm.PostType, a.settings.DefaultPostType, models.PostTypePost),
		Categories:    fm.Categories,
		PostID:        fm.PostID,
	}
	if len(publishCategories) > 0 {
		params.Categories = publishCategories
	}
	if params.Categories == nil {
		params.Categories = []int{}
	}

	when, err := render.FrontMatter{Date: firstNonEmpty(publishDate, fm.Date)}.Datetime()
	if err != nil {
		return api.Post{}, err
	}
	params.Datetime = when

	content, err := render.NewRenderer().Render(note.Body, render.OptionsFrom(a.settings))
	if err != nil {
		return api.Post{}, err
	}

	tags := append([]string(nil), fm.Tags...)
	tags = append(tags, publishTags...)

	return api.Post{
		Title:    title,
		Content:  content,
		Params:   params,
		TagNames: tags,
		Media:    collectMedia(a, filepath.Dir(notePath), note.Body),
	}, nil
}

// collectMedia reads the local images of a note. Missing files are skipped
// and left as they are in the content.
func collectMedia(a *app, dir, body string) []api.MediaRef {
	var refs []api.MediaRef
	for _, link := range render.MediaLinks(body) {
		path := link.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			a.logger.Warn().Err(err).Str("file", path).Msg("skipping media")
			continue
		}
		refs = append(refs, api.MediaRef{
			Link: link.Link,
			Media: models.Media{
				MIMEType: render.MIMEType(path),
				FileName: filepath.Base(path),
				Content:  content,
			},
		})
	}
	return refs
}

// writeBack records the post ID and categories in the note front matter
func writeBack(notePath string, src []byte, published models.PublishResult) error {
	out, err := render.SetFrontMatter(src, "postId", published.PostID)
	if err != nil {
		return err
	}
	if out, err = render.SetFrontMatter(out, "categories", published.Categories); err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(notePath); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(notePath, out, mode); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
