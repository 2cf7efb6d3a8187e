package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/bugparty/wpctl/internal/models"
)

// MiniOrangeContext is the dialect of sites using the miniOrange REST auth plugin
func MiniOrangeContext() RestContext {
	return commonContext("WpRestClientMiniOrangeContext")
}

// AppPasswordContext is the dialect of sites using WordPress application passwords
func AppPasswordContext() RestContext {
	return commonContext("WpRestClientAppPasswordContext")
}

func commonContext(name string) RestContext {
	return RestContext{
		Name:    name,
		Headers: HeaderBuilderFunc(basicAuthHeaders),
		Parser:  commonParser{},
	}
}

func basicAuthHeaders(auth Credentials) map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
	return map[string]string{"Authorization": "Basic " + token}
}

// commonParser decodes the wp/v2 REST responses of self-hosted sites
type commonParser struct{}

type commonPost struct {
	ID         *flexID `json:"id"`
	Categories []int   `json:"categories"`
}

type commonMedia struct {
	SourceURL *string `json:"source_url"`
}

type commonTerm struct {
	ID          flexID `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Taxonomy    string `json:"taxonomy"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

func (t commonTerm) term() models.Term {
	return models.Term{
		ID:          string(t.ID),
		Name:        t.Name,
		Slug:        t.Slug,
		Taxonomy:    t.Taxonomy,
		Description: t.Description,
		Count:       t.Count,
	}
}

func (commonParser) PublishResult(params models.PostParams, raw json.RawMessage) (models.PublishResult, error) {
	if !isJSONObject(raw) {
		return models.PublishResult{}, errors.New("publish response is not an object")
	}
	var post commonPost
	if err := json.Unmarshal(raw, &post); err != nil {
		return models.PublishResult{}, err
	}
	if post.ID == nil {
		return models.PublishResult{}, errors.New("publish response has no id")
	}

	result := models.PublishResult{PostID: params.PostID, Categories: params.Categories}
	if result.PostID == "" {
		result.PostID = string(*post.ID)
	}
	if len(result.Categories) == 0 {
		result.Categories = post.Categories
	}
	if result.Categories == nil {
		result.Categories = []int{}
	}
	return result, nil
}

func (commonParser) MediaUploadResult(raw json.RawMessage) (models.MediaUploadResult, error) {
	var media commonMedia
	if !isJSONObject(raw) {
		return models.MediaUploadResult{}, errors.New("upload response is not an object")
	}
	if err := json.Unmarshal(raw, &media); err != nil {
		return models.MediaUploadResult{}, err
	}
	if media.SourceURL == nil {
		return models.MediaUploadResult{}, errors.New("upload response has no source_url")
	}
	return models.MediaUploadResult{URL: *media.SourceURL}, nil
}

// Terms returns an empty list for anything but an array
func (commonParser) Terms(raw json.RawMessage) ([]models.Term, error) {
	if !isJSONArray(raw) {
		return []models.Term{}, nil
	}
	var items []commonTerm
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	terms := make([]models.Term, 0, len(items))
	for _, it := range items {
		terms = append(terms, it.term())
	}
	return terms, nil
}

func (commonParser) Term(raw json.RawMessage) (models.Term, error) {
	if !hasMember(raw, "id") {
		return models.Term{}, errors.New("term response has no id")
	}
	var t commonTerm
	if err := json.Unmarshal(raw, &t); err != nil {
		return models.Term{}, err
	}
	return t.term(), nil
}

// PostTypes returns the keys of the types object in server order
func (commonParser) PostTypes(raw json.RawMessage) ([]string, error) {
	if !isJSONObject(raw) {
		return []string{}, nil
	}
	return objectKeys(raw)
}
