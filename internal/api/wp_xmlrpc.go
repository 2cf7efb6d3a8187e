package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/kolo/xmlrpc"

	"github.com/bugparty/wpctl/internal/i18n"
	"github.com/bugparty/wpctl/internal/models"
)

// XML-RPC calls always target the first blog of the site
const xmlrpcBlogID = 0

// XMLRPCClient implements Client over the WordPress XML-RPC API.
//
// Remote faults of GetCategories and GetPostTypes are returned as *Fault
// errors, while Publish, ValidateUser and UploadMedia report them in the
// Result. Callers check both.
type XMLRPCClient struct {
	baseClient
	caller Caller
}

// NewXMLRPCClient creates an XML-RPC client for the profile
func NewXMLRPCClient(profile models.Profile, opts ...Option) *XMLRPCClient {
	o := buildOptions(opts)
	c := &XMLRPCClient{baseClient: newBaseClient("WpXmlRpcClient", profile, o)}

	c.caller = o.caller
	if c.caller == nil {
		c.caller = NewXMLRPCCaller(xmlrpcURL(profile.Endpoint, profile.XMLRPCPath), o.requester, c.logger)
	}
	return c
}

// Publish calls wp.newPost, or wp.editPost when params.PostID is set
func (c *XMLRPCClient) Publish(ctx context.Context, title, content string, params models.PostParams, auth Credentials) (Result[models.PublishResult], error) {
	post := map[string]any{
		"post_type":      params.PostType,
		"post_status":    string(params.Status),
		"comment_status": string(params.CommentStatus),
		"post_title":     title,
		"post_content":   content,
	}
	if params.PostType != models.PostTypePage {
		categories := params.Categories
		if categories == nil {
			categories = []int{}
		}
		tags := params.Tags
		if tags == nil {
			tags = []string{}
		}
		post["terms"] = map[string]any{models.TaxonomyCategory: categories}
		post["terms_names"] = map[string]any{models.TaxonomyTag: tags}
	}
	if params.Status == models.PostStatusFuture {
		date := c.now()
		if params.Datetime != nil {
			date = *params.Datetime
		}
		post["post_date"] = date
	}

	var (
		resp any
		err  error
	)
	if params.PostID != "" {
		resp, err = c.caller.Call(ctx, "wp.editPost", xmlrpcBlogID, auth.Username, auth.Password, params.PostID, post)
	} else {
		resp, err = c.caller.Call(ctx, "wp.newPost", xmlrpcBlogID, auth.Username, auth.Password, post)
	}
	if fault := asFault(resp, err); fault != nil {
		c.logger.Warn().Str("faultCode", fault.Code).Msg("publish fault")
		return errorResult[models.PublishResult](fault.Code, fault.String, fault), nil
	}
	if err != nil {
		return xmlrpcFailure[models.PublishResult](ctx, c, "publish failed", err)
	}

	result := models.PublishResult{PostID: params.PostID, Categories: params.Categories}
	if result.PostID == "" {
		result.PostID = stringValue(resp)
	}
	c.logger.Info().Str("postId", result.PostID).Msg("post published")
	return okResult(result, resp), nil
}

// GetCategories calls wp.getTerms for the category taxonomy
func (c *XMLRPCClient) GetCategories(ctx context.Context, auth Credentials) ([]models.Term, error) {
	resp, err := c.caller.Call(ctx, "wp.getTerms", xmlrpcBlogID, auth.Username, auth.Password, models.TaxonomyCategory)
	if fault := asFault(resp, err); fault != nil {
		return nil, fault
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	items, ok := resp.([]any)
	if !ok {
		return []models.Term{}, nil
	}
	terms := make([]models.Term, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		terms = append(terms, models.Term{
			ID:          stringValue(m["term_id"]),
			Name:        stringValue(m["name"]),
			Slug:        stringValue(m["slug"]),
			Taxonomy:    stringValue(m["taxonomy"]),
			Description: stringValue(m["description"]),
			Count:       intValue(m["count"]),
		})
	}
	return terms, nil
}

// GetPostTypes calls wp.getPostTypes and returns the type names sorted
func (c *XMLRPCClient) GetPostTypes(ctx context.Context, auth Credentials) ([]string, error) {
	resp, err := c.caller.Call(ctx, "wp.getPostTypes", xmlrpcBlogID, auth.Username, auth.Password)
	if fault := asFault(resp, err); fault != nil {
		return nil, fault
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post types: %w", err)
	}

	m, ok := resp.(map[string]any)
	if !ok {
		return []string{}, nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ValidateUser calls wp.getProfile
func (c *XMLRPCClient) ValidateUser(ctx context.Context, auth Credentials) (Result[bool], error) {
	resp, err := c.caller.Call(ctx, "wp.getProfile", xmlrpcBlogID, auth.Username, auth.Password)
	if fault := asFault(resp, err); fault != nil {
		return errorResult[bool](fault.Code, fault.Error(), fault), nil
	}
	if err != nil {
		return xmlrpcFailure[bool](ctx, c, "validation failed", err)
	}
	return okResult(resp != nil, resp), nil
}

// GetTag makes up a post_tag term. XML-RPC assigns tags by name, so no
// request is needed.
func (c *XMLRPCClient) GetTag(_ context.Context, name string, _ Credentials) (models.Term, error) {
	return models.Term{
		ID:          name,
		Name:        name,
		Slug:        name,
		Taxonomy:    models.TaxonomyTag,
		Description: name,
	}, nil
}

// UploadMedia calls wp.uploadFile with the content as base64 bits
func (c *XMLRPCClient) UploadMedia(ctx context.Context, media models.Media, auth Credentials) (Result[models.MediaUploadResult], error) {
	file := map[string]any{
		"name": media.FileName,
		"type": media.MIMEType,
		"bits": xmlrpc.Base64(base64.StdEncoding.EncodeToString(media.Content)),
	}
	resp, err := c.caller.Call(ctx, "wp.uploadFile", xmlrpcBlogID, auth.Username, auth.Password, file)
	if fault := asFault(resp, err); fault != nil {
		c.logger.Warn().Str("faultCode", fault.Code).Str("file", media.FileName).Msg("upload fault")
		return errorResult[models.MediaUploadResult](fault.Code, fault.Error(), fault), nil
	}
	if err != nil {
		return xmlrpcFailure[models.MediaUploadResult](ctx, c, "upload failed", err)
	}

	var url string
	if m, ok := resp.(map[string]any); ok {
		url = stringValue(m["url"])
	}
	return okResult(models.MediaUploadResult{URL: url}, resp), nil
}

// xmlrpcFailure turns a failed write call into a Result. Only cancellation
// and request encoding errors are returned as errors.
func xmlrpcFailure[T any](ctx context.Context, c *XMLRPCClient, msg string, err error) (Result[T], error) {
	if ctx.Err() != nil {
		return Result[T]{}, ctx.Err()
	}
	switch {
	case errors.Is(err, ErrMalformedResponse):
		c.logger.Warn().Err(err).Msg(msg)
		return errorResult[T](string(CodeServerInternalError), c.i18n.T(i18n.ErrCannotParseResponse), err.Error()), nil
	case errors.Is(err, ErrNetwork):
		c.logger.Warn().Err(err).Msg(msg)
		return networkFailure[T](c.i18n.T(i18n.ErrNetwork), err), nil
	}
	return Result[T]{}, err
}

// asFault recognizes a fault returned as error or as a fault-shaped struct
func asFault(resp any, err error) *Fault {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}
	if err != nil {
		return nil
	}
	m, ok := resp.(map[string]any)
	if !ok {
		return nil
	}
	code, ok := m["faultCode"]
	if !ok {
		return nil
	}
	return &Fault{Code: stringValue(code), String: stringValue(m["faultString"])}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func intValue(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}
