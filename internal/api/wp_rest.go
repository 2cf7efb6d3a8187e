package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bugparty/wpctl/internal/i18n"
	"github.com/bugparty/wpctl/internal/models"
)

// Endpoint names an entry of a REST endpoint table
type Endpoint string

const (
	EndpointBase          Endpoint = "base"
	EndpointNewPost       Endpoint = "newPost"
	EndpointEditPost      Endpoint = "editPost"
	EndpointGetCategories Endpoint = "getCategories"
	EndpointNewTag        Endpoint = "newTag"
	EndpointGetTag        Endpoint = "getTag"
	EndpointValidateUser  Endpoint = "validateUser"
	EndpointUploadFile    Endpoint = "uploadFile"
	EndpointGetPostTypes  Endpoint = "getPostTypes"
)

// PathFunc computes an endpoint path. The result may contain {name}
// placeholders filled in by ExpandPath.
type PathFunc func() string

// Literal is a PathFunc returning a fixed path
func Literal(path string) PathFunc {
	return func() string { return path }
}

// EndpointTable overrides endpoint paths. Missing entries use the
// self-hosted WordPress REST paths; a missing EndpointBase uses the
// profile endpoint.
type EndpointTable map[Endpoint]PathFunc

var defaultEndpoints = EndpointTable{
	EndpointNewPost:       Literal("wp-json/wp/v2/posts"),
	EndpointEditPost:      Literal("wp-json/wp/v2/posts/{postId}"),
	EndpointGetCategories: Literal("wp-json/wp/v2/categories?per_page=100"),
	EndpointNewTag:        Literal("wp-json/wp/v2/tags"),
	EndpointGetTag:        Literal("wp-json/wp/v2/tags?per_page=100&search={name}"),
	EndpointValidateUser:  Literal("wp-json/wp/v2/users/me"),
	EndpointUploadFile:    Literal("wp-json/wp/v2/media"),
	EndpointGetPostTypes:  Literal("wp-json/wp/v2/types"),
}

// HeaderBuilder turns credentials into the auth headers of a dialect
type HeaderBuilder interface {
	Headers(auth Credentials) map[string]string
}

// HeaderBuilderFunc adapts a function to HeaderBuilder
type HeaderBuilderFunc func(auth Credentials) map[string]string

// Headers calls f
func (f HeaderBuilderFunc) Headers(auth Credentials) map[string]string {
	return f(auth)
}

// ResponseParser decodes the JSON responses of one REST dialect
type ResponseParser interface {
	PublishResult(params models.PostParams, raw json.RawMessage) (models.PublishResult, error)
	MediaUploadResult(raw json.RawMessage) (models.MediaUploadResult, error)
	Terms(raw json.RawMessage) ([]models.Term, error)
	Term(raw json.RawMessage) (models.Term, error)
	PostTypes(raw json.RawMessage) ([]string, error)
}

// RestContext describes one REST dialect
type RestContext struct {
	Name      string
	Endpoints EndpointTable
	Headers   HeaderBuilder
	Parser    ResponseParser
	// LoginRequired overrides the default login policy when set
	LoginRequired *bool
	NameMapper    FormItemNameMapper
}

// RestClient implements Client over the WordPress REST API
type RestClient struct {
	baseClient
	context   RestContext
	transport *restTransport
}

// NewRestClient creates a REST client speaking the dialect of rc
func NewRestClient(profile models.Profile, rc RestContext, opts ...Option) *RestClient {
	o := buildOptions(opts)
	c := &RestClient{
		baseClient: newBaseClient("WpRestClient", profile, o),
		context:    rc,
	}

	base := profile.Endpoint
	if f, ok := rc.Endpoints[EndpointBase]; ok {
		base = f()
	}
	c.transport = newRestTransport(base, o.requester, o.boundary, c.logger)
	c.logger.Debug().Str("context", rc.Name).Str("base", base).Msg("rest client ready")
	return c
}

// Context returns the dialect of the client
func (c *RestClient) Context() RestContext {
	return c.context
}

// NeedsLogin follows the dialect when it declares a policy
func (c *RestClient) NeedsLogin() bool {
	if c.context.LoginRequired != nil {
		return *c.context.LoginRequired
	}
	return c.baseClient.NeedsLogin()
}

func (c *RestClient) path(e Endpoint, params map[string]string) (string, error) {
	f, ok := c.context.Endpoints[e]
	if !ok {
		f, ok = defaultEndpoints[e]
	}
	if !ok {
		return "", fmt.Errorf("%w: no path for endpoint %s", ErrConfiguration, e)
	}
	return ExpandPath(f(), params)
}

func (c *RestClient) headers(auth Credentials) map[string]string {
	if c.context.Headers == nil {
		return nil
	}
	return c.context.Headers.Headers(auth)
}

// Publish creates a post, or updates it when params.PostID is set
func (c *RestClient) Publish(ctx context.Context, title, content string, params models.PostParams, auth Credentials) (Result[models.PublishResult], error) {
	var (
		path string
		err  error
	)
	if params.PostID != "" {
		path, err = c.path(EndpointEditPost, map[string]string{"postId": url.PathEscape(params.PostID)})
	} else {
		path, err = c.path(EndpointNewPost, nil)
	}
	if err != nil {
		return c.configurationFailure(err), nil
	}

	tags, err := tagIDs(params.Tags)
	if err != nil {
		return c.configurationFailure(err), nil
	}
	categories := params.Categories
	if categories == nil {
		categories = []int{}
	}

	body := map[string]any{
		"title":          title,
		"content":        content,
		"status":         params.Status,
		"comment_status": params.CommentStatus,
		"categories":     categories,
		"tags":           tags,
	}
	if params.Status == models.PostStatusFuture {
		date := c.now()
		if params.Datetime != nil {
			date = *params.Datetime
		}
		body["date"] = date.Format(time.RFC3339)
	}

	raw, err := c.transport.post(ctx, path, body, c.headers(auth), nil)
	if err != nil {
		if ctx.Err() != nil {
			return Result[models.PublishResult]{}, ctx.Err()
		}
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn().Err(err).Msg("cannot parse publish response")
			return errorResult[models.PublishResult](string(CodeServerInternalError), c.i18n.T(i18n.ErrCannotParseResponse), string(raw)), nil
		}
		c.logger.Warn().Err(err).Msg("publish failed")
		return networkFailure[models.PublishResult](c.i18n.T(i18n.ErrNetwork), err), nil
	}

	result, err := c.context.Parser.PublishResult(params, raw)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cannot parse publish response")
		return errorResult[models.PublishResult](string(CodeServerInternalError), c.i18n.T(i18n.ErrCannotParseResponse), raw), nil
	}
	c.logger.Info().Str("postId", result.PostID).Msg("post published")
	return okResult(result, raw), nil
}

// GetCategories lists the categories of the site
func (c *RestClient) GetCategories(ctx context.Context, auth Credentials) ([]models.Term, error) {
	path, err := c.path(EndpointGetCategories, nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.transport.get(ctx, path, c.headers(auth))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	terms, err := c.context.Parser.Terms(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: categories: %v", ErrMalformedResponse, err)
	}
	return terms, nil
}

// GetPostTypes lists the post type names of the site
func (c *RestClient) GetPostTypes(ctx context.Context, auth Credentials) ([]string, error) {
	path, err := c.path(EndpointGetPostTypes, nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.transport.get(ctx, path, c.headers(auth))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post types: %w", err)
	}
	types, err := c.context.Parser.PostTypes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: post types: %v", ErrMalformedResponse, err)
	}
	return types, nil
}

// ValidateUser checks the credentials against an authenticated endpoint
func (c *RestClient) ValidateUser(ctx context.Context, auth Credentials) (Result[bool], error) {
	path, err := c.path(EndpointValidateUser, nil)
	if err != nil {
		return c.invalidUser(err), nil
	}
	raw, err := c.transport.get(ctx, path, c.headers(auth))
	if err != nil {
		if ctx.Err() != nil {
			return Result[bool]{}, ctx.Err()
		}
		return c.invalidUser(err), nil
	}
	return okResult(truthy(raw), raw), nil
}

func (c *RestClient) invalidUser(err error) Result[bool] {
	c.logger.Warn().Err(err).Msg("user validation failed")
	return errorResult[bool](string(CodeError), c.i18n.T(i18n.ErrInvalidUser), responseOf(err))
}

// GetTag searches the tag by name and creates it when no tag carries
// exactly that name
func (c *RestClient) GetTag(ctx context.Context, name string, auth Credentials) (models.Term, error) {
	headers := c.headers(auth)

	path, err := c.path(EndpointGetTag, map[string]string{"name": url.QueryEscape(name)})
	if err != nil {
		return models.Term{}, err
	}
	raw, err := c.transport.get(ctx, path, headers)
	if err != nil {
		return models.Term{}, fmt.Errorf("failed to search tag %q: %w", name, err)
	}
	existing, err := c.context.Parser.Terms(raw)
	if err != nil {
		return models.Term{}, fmt.Errorf("%w: tags: %v", ErrMalformedResponse, err)
	}
	if term, ok := matchTerm(existing, name); ok {
		return term, nil
	}

	path, err = c.path(EndpointNewTag, nil)
	if err != nil {
		return models.Term{}, err
	}
	raw, err = c.transport.post(ctx, path, map[string]string{"name": name}, headers, nil)
	if err != nil {
		return models.Term{}, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	c.logger.Debug().Str("tag", name).RawJSON("response", raw).Msg("tag created")
	term, err := c.context.Parser.Term(raw)
	if err != nil {
		return models.Term{}, fmt.Errorf("%w: new tag: %v", ErrMalformedResponse, err)
	}
	return term, nil
}

// UploadMedia uploads one file to the media library
func (c *RestClient) UploadMedia(ctx context.Context, media models.Media, auth Credentials) (Result[models.MediaUploadResult], error) {
	path, err := c.path(EndpointUploadFile, nil)
	if err != nil {
		return c.configurationFailureMedia(err), nil
	}

	form := NewFormItems().AppendMedia("file", media)
	raw, err := c.transport.post(ctx, path, form, c.headers(auth), c.context.NameMapper)
	if err != nil {
		if ctx.Err() != nil {
			return Result[models.MediaUploadResult]{}, ctx.Err()
		}
		c.logger.Warn().Err(err).Str("file", media.FileName).Msg("upload failed")
		return errorResult[models.MediaUploadResult](string(CodeServerInternalError), c.i18n.T(i18n.ErrUploadFailed), responseOf(err)), nil
	}

	result, err := c.context.Parser.MediaUploadResult(raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", media.FileName).Msg("upload rejected")
		return errorResult[models.MediaUploadResult](string(CodeServerInternalError), c.i18n.T(i18n.ErrUploadFailed), raw), nil
	}
	return okResult(result, raw), nil
}

func (c *RestClient) configurationFailure(err error) Result[models.PublishResult] {
	c.logger.Warn().Err(err).Msg("publish not attempted")
	return errorResult[models.PublishResult](string(CodeConfigurationError), c.i18n.T(i18n.ErrInvalidConfiguration), err.Error())
}

func (c *RestClient) configurationFailureMedia(err error) Result[models.MediaUploadResult] {
	return convertFailure[models.MediaUploadResult](c.configurationFailure(err))
}

// tagIDs converts the term IDs returned by GetTag into the numeric IDs the
// REST API expects
func tagIDs(tags []string) ([]int, error) {
	ids := make([]int, 0, len(tags))
	for _, tag := range tags {
		id, err := strconv.Atoi(strings.TrimSpace(tag))
		if err != nil {
			return nil, fmt.Errorf("%w: tag id %q is not numeric", ErrConfiguration, tag)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// matchTerm returns the first term whose name equals name, ignoring case.
// WordPress returns names HTML-escaped.
func matchTerm(terms []models.Term, name string) (models.Term, bool) {
	for _, t := range terms {
		if strings.EqualFold(html.UnescapeString(t.Name), name) {
			return t, true
		}
	}
	return models.Term{}, false
}

func networkFailure[T any](message string, err error) Result[T] {
	return errorResult[T](string(CodeNetworkError), message, responseOf(err))
}

// responseOf extracts the server payload from a transport error
func responseOf(err error) any {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Body
	}
	return err.Error()
}
