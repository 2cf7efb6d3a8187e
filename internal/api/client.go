package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bugparty/wpctl/internal/i18n"
	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/wpcom"
)

// Credentials are the username and password handed to each privileged call
type Credentials struct {
	Username string
	Password string
}

// Client is the publishing contract every WordPress protocol implements
type Client interface {
	// Name identifies the implementation and dialect in logs
	Name() string
	// NeedsLogin reports whether the caller must collect credentials
	// before invoking privileged operations
	NeedsLogin() bool
	Publish(ctx context.Context, title, content string, params models.PostParams, auth Credentials) (Result[models.PublishResult], error)
	GetCategories(ctx context.Context, auth Credentials) ([]models.Term, error)
	GetPostTypes(ctx context.Context, auth Credentials) ([]string, error)
	ValidateUser(ctx context.Context, auth Credentials) (Result[bool], error)
	// GetTag finds the tag called name, creating it when it does not exist
	GetTag(ctx context.Context, name string, auth Credentials) (models.Term, error)
	UploadMedia(ctx context.Context, media models.Media, auth Credentials) (Result[models.MediaUploadResult], error)
}

// baseClient carries what every implementation shares
type baseClient struct {
	name    string
	profile models.Profile
	logger  zerolog.Logger
	i18n    i18n.Translator
	now     func() time.Time
}

func newBaseClient(name string, profile models.Profile, o *options) baseClient {
	return baseClient{
		name:    name,
		profile: profile,
		logger:  o.logger.With().Str("client", name).Str("profile", profile.Name).Logger(),
		i18n:    o.translator,
		now:     o.now,
	}
}

// Name returns the client name
func (c *baseClient) Name() string {
	return c.name
}

// NeedsLogin is true unless an implementation opts out
func (c *baseClient) NeedsLogin() bool {
	return true
}

type options struct {
	logger     zerolog.Logger
	translator i18n.Translator
	requester  Requester
	caller     Caller
	boundary   BoundaryFunc
	now        func() time.Time
}

// Option configures a client built by NewClient
type Option func(*options)

// WithLogger sets the logger. Clients log nothing by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTranslator sets the catalog used for user-facing error messages
func WithTranslator(t i18n.Translator) Option {
	return func(o *options) { o.translator = t }
}

// WithRequester replaces the HTTP transport
func WithRequester(r Requester) Option {
	return func(o *options) { o.requester = r }
}

// WithCaller replaces the XML-RPC caller. Only used by XML-RPC profiles.
func WithCaller(c Caller) Option {
	return func(o *options) { o.caller = c }
}

// WithBoundary replaces the multipart boundary generator
func WithBoundary(f BoundaryFunc) Option {
	return func(o *options) { o.boundary = f }
}

// WithClock replaces the clock used for scheduled posts without a date
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger:   zerolog.Nop(),
		boundary: NewBoundary,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.translator == nil {
		o.translator = i18n.MustNew(i18n.SupportedLanguages[0])
	}
	if o.requester == nil {
		o.requester = NewHTTPRequester(DefaultTimeout)
	}
	return o
}

// NewClient builds the client matching the profile's API type. Unusable
// profiles fail with ErrConfiguration before any request is made.
func NewClient(profile models.Profile, opts ...Option) (Client, error) {
	switch profile.APIType {
	case models.APITypeXMLRPC:
		if err := requireEndpoint(profile); err != nil {
			return nil, err
		}
		return NewXMLRPCClient(profile, opts...), nil
	case models.APITypeMiniOrange:
		if err := requireEndpoint(profile); err != nil {
			return nil, err
		}
		return NewRestClient(profile, MiniOrangeContext(), opts...), nil
	case models.APITypeApplicationPasswords:
		if err := requireEndpoint(profile); err != nil {
			return nil, err
		}
		return NewRestClient(profile, AppPasswordContext(), opts...), nil
	case models.APITypeWpComOAuth2:
		t := profile.WpComOAuth2Token
		if t == nil || t.AccessToken == "" || t.BlogID == "" {
			return nil, fmt.Errorf("%w: profile %q has no WordPress.com token, run profile login-wpcom", ErrConfiguration, profile.Name)
		}
		return NewRestClient(profile, WpComContext(t.BlogID, wpcom.OAuth2Token(*t)), opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown API type %q", ErrConfiguration, profile.APIType)
	}
}

func requireEndpoint(profile models.Profile) error {
	endpoint := strings.TrimSpace(profile.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("%w: profile %q has no endpoint", ErrConfiguration, profile.Name)
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return fmt.Errorf("%w: endpoint %q must start with http:// or https://", ErrConfiguration, endpoint)
	}
	return nil
}
