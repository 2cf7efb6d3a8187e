package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/bugparty/wpctl/internal/models"
)

// WpComAPIBase is the REST host of WordPress.com
const WpComAPIBase = "https://public-api.wordpress.com"

// WpComContext is the dialect of sites hosted on WordPress.com. Every path
// is scoped to site, the numeric blog ID granted with token.
func WpComContext(site string, token *oauth2.Token) RestContext {
	loginRequired := false
	sitePath := func(suffix string) PathFunc {
		return func() string { return "/rest/v1.1/sites/" + site + suffix }
	}

	return RestContext{
		Name: "WpRestClientWpComOAuth2Context",
		Endpoints: EndpointTable{
			EndpointBase:          Literal(WpComAPIBase),
			EndpointNewPost:       sitePath("/posts/new"),
			EndpointEditPost:      sitePath("/posts/{postId}"),
			EndpointGetCategories: sitePath("/categories"),
			EndpointNewTag:        sitePath("/tags/new"),
			EndpointGetTag:        sitePath("/tags?number=100&search={name}"),
			EndpointValidateUser:  sitePath("/posts?number=1"),
			EndpointUploadFile:    sitePath("/media/new"),
			EndpointGetPostTypes:  sitePath("/post-types"),
		},
		Headers: HeaderBuilderFunc(func(Credentials) map[string]string {
			return map[string]string{"Authorization": token.Type() + " " + token.AccessToken}
		}),
		Parser:        wpcomParser{},
		LoginRequired: &loginRequired,
		NameMapper:    wpcomNameMapper,
	}
}

// wpcomNameMapper renames the single upload field to the media[] array
// expected by media/new
func wpcomNameMapper(name string, isArray bool) string {
	if name == "file" && !isArray {
		return "media[]"
	}
	return name
}

// wpcomParser decodes the v1.1 responses of WordPress.com
type wpcomParser struct{}

type wpcomPost struct {
	ID         *flexID         `json:"ID"`
	Categories json.RawMessage `json:"categories"`
}

type wpcomTerm struct {
	ID          flexID `json:"ID"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PostCount   int    `json:"post_count"`
}

func (t wpcomTerm) term(taxonomy string) models.Term {
	return models.Term{
		ID:          string(t.ID),
		Name:        t.Name,
		Slug:        t.Slug,
		Taxonomy:    taxonomy,
		Description: t.Description,
		Count:       t.PostCount,
	}
}

type wpcomMediaItem struct {
	Link string `json:"link"`
	URL  string `json:"URL"`
}

type wpcomUpload struct {
	Media  []wpcomMediaItem `json:"media"`
	Errors json.RawMessage  `json:"errors"`
}

type wpcomError struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func (wpcomParser) PublishResult(params models.PostParams, raw json.RawMessage) (models.PublishResult, error) {
	if !isJSONObject(raw) {
		return models.PublishResult{}, errors.New("publish response is not an object")
	}
	var post wpcomPost
	if err := json.Unmarshal(raw, &post); err != nil {
		return models.PublishResult{}, err
	}
	if post.ID == nil {
		return models.PublishResult{}, errors.New("publish response has no ID")
	}

	result := models.PublishResult{PostID: params.PostID, Categories: params.Categories}
	if result.PostID == "" {
		result.PostID = string(*post.ID)
	}
	if len(result.Categories) == 0 {
		categories, err := wpcomCategoryIDs(post.Categories)
		if err != nil {
			return models.PublishResult{}, err
		}
		result.Categories = categories
	}
	return result, nil
}

// wpcomCategoryIDs reads categories given as an object keyed by name, or
// as an array, whose values are category objects or bare IDs
func wpcomCategoryIDs(raw json.RawMessage) ([]int, error) {
	var values []json.RawMessage
	switch {
	case isJSONObject(raw):
		entries, _, err := objectEntries(raw)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			values = append(values, e.Value)
		}
	case isJSONArray(raw):
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, err
		}
	}

	ids := make([]int, 0, len(values))
	for _, v := range values {
		var id flexID
		if isJSONObject(v) {
			var t wpcomTerm
			if err := json.Unmarshal(v, &t); err != nil {
				return nil, err
			}
			id = t.ID
		} else if err := json.Unmarshal(v, &id); err != nil {
			return nil, err
		}
		n, err := id.int()
		if err != nil {
			return nil, fmt.Errorf("category id %q is not numeric", id)
		}
		ids = append(ids, n)
	}
	return ids, nil
}

func (wpcomParser) MediaUploadResult(raw json.RawMessage) (models.MediaUploadResult, error) {
	if !isJSONObject(raw) {
		return models.MediaUploadResult{}, errors.New("upload failed")
	}
	var upload wpcomUpload
	if err := json.Unmarshal(raw, &upload); err != nil {
		return models.MediaUploadResult{}, err
	}
	if len(upload.Media) > 0 {
		m := upload.Media[0]
		if m.Link != "" {
			return models.MediaUploadResult{URL: m.Link}, nil
		}
		if m.URL != "" {
			return models.MediaUploadResult{URL: m.URL}, nil
		}
	}
	if msg := wpcomErrorMessage(upload.Errors); msg != "" {
		return models.MediaUploadResult{}, errors.New(msg)
	}
	return models.MediaUploadResult{}, errors.New("upload failed")
}

// wpcomErrorMessage reads {"error": {"message": ...}} as well as the
// per-file array [{"error": "...", "message": ...}]
func wpcomErrorMessage(raw json.RawMessage) string {
	var items []wpcomError
	switch {
	case isJSONObject(raw):
		var single wpcomError
		if err := json.Unmarshal(raw, &single); err != nil {
			return ""
		}
		items = append(items, single)
	case isJSONArray(raw):
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
	}

	for _, it := range items {
		if it.Message != "" {
			return it.Message
		}
		if isJSONObject(it.Error) {
			var nested wpcomError
			if err := json.Unmarshal(it.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
		}
		var code string
		if err := json.Unmarshal(it.Error, &code); err == nil && code != "" {
			return code
		}
	}
	return ""
}

// Terms accepts {"found": n, "categories"|"tags": [...]} where the list may
// also be an object keyed by slug. Anything else is an empty list.
func (wpcomParser) Terms(raw json.RawMessage) ([]models.Term, error) {
	if !hasMember(raw, "found") {
		return []models.Term{}, nil
	}
	var listing struct {
		Found      json.Number     `json:"found"`
		Categories json.RawMessage `json:"categories"`
		Tags       json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, err
	}

	list, taxonomy := listing.Categories, models.TaxonomyCategory
	if len(list) == 0 {
		list, taxonomy = listing.Tags, models.TaxonomyTag
	}

	var items []wpcomTerm
	switch {
	case isJSONArray(list):
		if err := json.Unmarshal(list, &items); err != nil {
			return nil, err
		}
	case isJSONObject(list):
		entries, _, err := objectEntries(list)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			var t wpcomTerm
			if err := json.Unmarshal(e.Value, &t); err != nil {
				return nil, err
			}
			items = append(items, t)
		}
	default:
		return []models.Term{}, nil
	}

	terms := make([]models.Term, 0, len(items))
	for _, it := range items {
		terms = append(terms, it.term(taxonomy))
	}
	return terms, nil
}

func (wpcomParser) Term(raw json.RawMessage) (models.Term, error) {
	if !hasMember(raw, "ID") {
		return models.Term{}, errors.New("term response has no ID")
	}
	var t wpcomTerm
	if err := json.Unmarshal(raw, &t); err != nil {
		return models.Term{}, err
	}
	return t.term(models.TaxonomyTag), nil
}

// PostTypes accepts post_types as an array of type objects or names, or as
// an object keyed by type name
func (wpcomParser) PostTypes(raw json.RawMessage) ([]string, error) {
	if !hasMember(raw, "found") {
		return []string{}, nil
	}
	var listing struct {
		PostTypes json.RawMessage `json:"post_types"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, err
	}

	if isJSONObject(listing.PostTypes) {
		return objectKeys(listing.PostTypes)
	}
	if !isJSONArray(listing.PostTypes) {
		return []string{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(listing.PostTypes, &items); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		if isJSONObject(it) {
			var pt struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(it, &pt); err != nil {
				return nil, err
			}
			names = append(names, pt.Name)
			continue
		}
		var name string
		if err := json.Unmarshal(it, &name); err != nil {
			names = append(names, string(it))
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
