package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bugparty/wpctl/internal/i18n"
	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/passcrypto"
)

// CredentialSource supplies the credentials of a profile when its client
// needs a login
type CredentialSource interface {
	Credentials(ctx context.Context, profile models.Profile) (Credentials, error)
}

// CredentialSourceFunc adapts a function to CredentialSource
type CredentialSourceFunc func(ctx context.Context, profile models.Profile) (Credentials, error)

// Credentials calls f
func (f CredentialSourceFunc) Credentials(ctx context.Context, profile models.Profile) (Credentials, error) {
	return f(ctx, profile)
}

// ErrNoCredentials is returned when a profile has no saved password and no
// prompt is available
var ErrNoCredentials = errors.New("no saved credentials")

// StoredCredentials reads the saved username and decrypts the saved
// password of a profile. An in-memory Password wins over the saved one.
func StoredCredentials(cipher *passcrypto.Cipher) CredentialSource {
	return CredentialSourceFunc(func(_ context.Context, profile models.Profile) (Credentials, error) {
		if profile.Password != "" {
			return Credentials{Username: profile.Username, Password: profile.Password}, nil
		}
		if !profile.SavePassword || profile.EncryptedPassword == nil {
			return Credentials{}, fmt.Errorf("%w for profile %q", ErrNoCredentials, profile.Name)
		}
		password, err := cipher.DecryptBundle(*profile.EncryptedPassword)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to decrypt password of profile %q: %w", profile.Name, err)
		}
		return Credentials{Username: profile.Username, Password: password}, nil
	})
}

// MediaRef is a file attached to a post. Link is how the content refers
// to it before upload.
type MediaRef struct {
	Link  string
	Media models.Media
}

// Post is everything needed to publish one note
type Post struct {
	Title   string
	Content string
	Params  models.PostParams
	// TagNames are resolved to term IDs with GetTag and appended to Params.Tags
	TagNames []string
	Media    []MediaRef
}

// Publisher drives a Client through uploading media, resolving tags and
// publishing a post
type Publisher struct {
	client            Client
	profile           models.Profile
	credentials       CredentialSource
	replaceMediaLinks bool
	logger            zerolog.Logger
	i18n              i18n.Translator
}

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithMediaLinkReplacement rewrites media links in the content to the
// uploaded URLs
func WithMediaLinkReplacement(enabled bool) PublisherOption {
	return func(p *Publisher) { p.replaceMediaLinks = enabled }
}

// WithPublisherLogger sets the logger
func WithPublisherLogger(logger zerolog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// WithPublisherTranslator sets the catalog for user-facing messages
func WithPublisherTranslator(t i18n.Translator) PublisherOption {
	return func(p *Publisher) { p.i18n = t }
}

// NewPublisher creates a Publisher for client. credentials is only asked
// when the client needs a login.
func NewPublisher(client Client, profile models.Profile, credentials CredentialSource, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:      client,
		profile:     profile,
		credentials: credentials,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.i18n == nil {
		p.i18n = i18n.MustNew(i18n.SupportedLanguages[0])
	}
	return p
}

// Login resolves the credentials for the client, or empty credentials
// when it needs none
func (p *Publisher) Login(ctx context.Context) (Credentials, error) {
	if !p.client.NeedsLogin() {
		return Credentials{}, nil
	}
	if p.credentials == nil {
		return Credentials{}, fmt.Errorf("%w for profile %q", ErrNoCredentials, p.profile.Name)
	}
	return p.credentials.Credentials(ctx, p.profile)
}

// Publish uploads the media of post, resolves its tags and publishes it.
// A failed upload stops the publish and is returned as the Result.
func (p *Publisher) Publish(ctx context.Context, post Post) (Result[models.PublishResult], error) {
	auth, err := p.Login(ctx)
	if err != nil {
		return Result[models.PublishResult]{}, err
	}

	content := post.Content
	for _, ref := range post.Media {
		uploaded, err := p.client.UploadMedia(ctx, ref.Media, auth)
		if err != nil {
			return Result[models.PublishResult]{}, err
		}
		if !uploaded.OK() {
			p.logger.Warn().Str("file", ref.Media.FileName).Msg("media upload failed")
			failed := convertFailure[models.PublishResult](uploaded)
			if msg := p.i18n.T(i18n.ErrUploadFailed); failed.Error != nil && failed.Error.Message != msg {
				failed.Error.Message = msg + ": " + failed.Error.Message
			}
			return failed, nil
		}
		p.logger.Debug().Str("file", ref.Media.FileName).Str("url", uploaded.Data.URL).Msg("media uploaded")
		if p.replaceMediaLinks && ref.Link != "" {
			content = strings.ReplaceAll(content, ref.Link, uploaded.Data.URL)
		}
	}

	params := post.Params
	params.Tags = append([]string(nil), params.Tags...)
	for _, name := range post.TagNames {
		term, err := p.client.GetTag(ctx, name, auth)
		if err != nil {
			return Result[models.PublishResult]{}, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		params.Tags = append(params.Tags, term.ID)
	}

	return p.client.Publish(ctx, post.Title, content, params, auth)
}
