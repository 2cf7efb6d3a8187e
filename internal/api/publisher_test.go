package api

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/passcrypto"
)

// stubClient records the calls a Publisher makes
type stubClient struct {
	needsLogin bool
	uploads    []models.Media
	uploadURL  string
	uploadFail bool
	uploadMsg  string
	tags       []string
	published  struct {
		content string
		params  models.PostParams
		auth    Credentials
	}
}

func (s *stubClient) Name() string     { return "stub" }
func (s *stubClient) NeedsLogin() bool { return s.needsLogin }

func (s *stubClient) Publish(_ context.Context, _, content string, params models.PostParams, auth Credentials) (Result[models.PublishResult], error) {
	s.published.content = content
	s.published.params = params
	s.published.auth = auth
	return okResult(models.PublishResult{PostID: "1"}, nil), nil
}

func (s *stubClient) GetCategories(context.Context, Credentials) ([]models.Term, error) {
	return nil, nil
}

func (s *stubClient) GetPostTypes(context.Context, Credentials) ([]string, error) {
	return nil, nil
}

func (s *stubClient) ValidateUser(context.Context, Credentials) (Result[bool], error) {
	return okResult(true, nil), nil
}

func (s *stubClient) GetTag(_ context.Context, name string, _ Credentials) (models.Term, error) {
	s.tags = append(s.tags, name)
	return models.Term{ID: "id-" + name, Name: name}, nil
}

func (s *stubClient) UploadMedia(_ context.Context, media models.Media, _ Credentials) (Result[models.MediaUploadResult], error) {
	s.uploads = append(s.uploads, media)
	if s.uploadFail {
		return errorResult[models.MediaUploadResult](string(CodeServerInternalError), s.uploadMsg, nil), nil
	}
	return okResult(models.MediaUploadResult{URL: s.uploadURL}, nil), nil
}

func staticCredentials(auth Credentials) CredentialSource {
	return CredentialSourceFunc(func(context.Context, models.Profile) (Credentials, error) {
		return auth, nil
	})
}

func TestPublisher_UploadsMediaAndResolvesTags(t *testing.T) {
	client := &stubClient{needsLogin: true, uploadURL: "https://blog.example.com/a.png"}
	p := NewPublisher(client, models.Profile{Name: "p"}, staticCredentials(testAuth), WithMediaLinkReplacement(true))

	result, err := p.Publish(context.Background(), Post{
		Title:    "t",
		Content:  `<img src="a.png">`,
		Params:   models.PostParams{Tags: []string{"existing"}},
		TagNames: []string{"go", "rust"},
		Media:    []MediaRef{{Link: "a.png", Media: models.Media{FileName: "a.png"}}},
	})
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if !result.OK() {
		t.Fatalf("expected success, got %+v", result.Error)
	}

	if len(client.uploads) != 1 {
		t.Errorf("expected 1 upload, got %d", len(client.uploads))
	}
	if want := []string{"go", "rust"}; !reflect.DeepEqual(client.tags, want) {
		t.Errorf("expected tag lookups %v, got %v", want, client.tags)
	}
	if want := []string{"existing", "id-go", "id-rust"}; !reflect.DeepEqual(client.published.params.Tags, want) {
		t.Errorf("expected tags %v, got %v", want, client.published.params.Tags)
	}
	if want := `<img src="https://blog.example.com/a.png">`; client.published.content != want {
		t.Errorf("expected content %q, got %q", want, client.published.content)
	}
	if client.published.auth != testAuth {
		t.Errorf("expected credentials %+v, got %+v", testAuth, client.published.auth)
	}
}

func TestPublisher_KeepsLinksWithoutReplacement(t *testing.T) {
	client := &stubClient{uploadURL: "https://blog.example.com/a.png"}
	p := NewPublisher(client, models.Profile{}, nil)

	_, err := p.Publish(context.Background(), Post{
		Content: "![](a.png)",
		Media:   []MediaRef{{Link: "a.png"}},
	})
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if client.published.content != "![](a.png)" {
		t.Errorf("expected links untouched, got %q", client.published.content)
	}
}

func TestPublisher_SkipsLoginWhenNotNeeded(t *testing.T) {
	client := &stubClient{needsLogin: false}
	asked := false
	creds := CredentialSourceFunc(func(context.Context, models.Profile) (Credentials, error) {
		asked = true
		return Credentials{}, nil
	})

	if _, err := NewPublisher(client, models.Profile{}, creds).Publish(context.Background(), Post{Title: "t"}); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if asked {
		t.Error("expected no credential lookup")
	}
}

func TestPublisher_UploadFailureStopsPublish(t *testing.T) {
	tests := []struct {
		name      string
		uploadMsg string
		want      string
	}{
		{"server detail is prefixed", "too big", "Uploading media to WordPress failed.: too big"},
		{"localized message is not repeated", "Uploading media to WordPress failed.", "Uploading media to WordPress failed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{uploadFail: true, uploadMsg: tt.uploadMsg}
			p := NewPublisher(client, models.Profile{}, nil)

			result, err := p.Publish(context.Background(), Post{
				Title: "t",
				Media: []MediaRef{{Link: "big.bin"}},
			})
			if err != nil {
				t.Fatalf("Publish() failed: %v", err)
			}
			if result.OK() || result.Error == nil {
				t.Fatalf("expected a failed result, got %+v", result)
			}
			if result.Error.Message != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, result.Error.Message)
			}
			if client.published.content != "" {
				t.Error("expected publish to be skipped")
			}
		})
	}
}

func TestPublisher_MissingCredentials(t *testing.T) {
	p := NewPublisher(&stubClient{needsLogin: true}, models.Profile{Name: "p"}, nil)

	if _, err := p.Publish(context.Background(), Post{}); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestStoredCredentials(t *testing.T) {
	cipher := passcrypto.New()
	enc, err := cipher.Encrypt("s3cret")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	source := StoredCredentials(cipher)

	creds, err := source.Credentials(context.Background(), models.Profile{
		Username:          "admin",
		SavePassword:      true,
		EncryptedPassword: &enc,
	})
	if err != nil {
		t.Fatalf("Credentials() failed: %v", err)
	}
	if want := (Credentials{Username: "admin", Password: "s3cret"}); creds != want {
		t.Errorf("expected %+v, got %+v", want, creds)
	}

	creds, err = source.Credentials(context.Background(), models.Profile{Username: "admin", Password: "typed"})
	if err != nil {
		t.Fatalf("Credentials() failed: %v", err)
	}
	if creds.Password != "typed" {
		t.Errorf("expected the in-memory password, got %q", creds.Password)
	}

	_, err = source.Credentials(context.Background(), models.Profile{Name: "p", Username: "admin"})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}

	tampered := enc
	tampered.Vector = enc.Key[:16]
	_, err = source.Credentials(context.Background(), models.Profile{SavePassword: true, EncryptedPassword: &tampered})
	if err == nil || strings.Contains(err.Error(), "s3cret") {
		t.Errorf("expected a decrypt error, got %v", err)
	}
}
