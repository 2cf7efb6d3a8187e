package wpcom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/bugparty/wpctl/internal/models"
)

func TestTokenFrom(t *testing.T) {
	tok := (&oauth2.Token{AccessToken: "abc", TokenType: "bearer"}).WithExtra(map[string]any{
		"blog_id":  float64(12345),
		"blog_url": "https://example.wordpress.com",
	})

	got, err := TokenFrom(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.AccessToken)
	assert.Equal(t, "12345", got.BlogID)
	assert.Equal(t, "https://example.wordpress.com", got.BlogURL)
}

func TestTokenFrom_MissingBlog(t *testing.T) {
	_, err := TokenFrom(&oauth2.Token{AccessToken: "abc"})
	assert.Error(t, err)

	_, err = TokenFrom(nil)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "tok", "token_type": "bearer", "blog_id": "77", "blog_url": "https://x.wordpress.com"}`))
	}))
	defer server.Close()

	config := Config("client", "secret", "http://localhost/callback")
	config.Endpoint.TokenURL = server.URL

	var shown string
	got, err := Login(context.Background(), config, func(authURL string) (string, error) {
		shown = authURL
		return "the-code", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "77", got.BlogID)
	assert.Equal(t, "tok", got.AccessToken)

	u, err := url.Parse(shown)
	require.NoError(t, err)
	assert.Equal(t, "public-api.wordpress.com", u.Host)
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.NotEmpty(t, u.Query().Get("state"))
}

func TestOAuth2Token(t *testing.T) {
	tok := OAuth2Token(models.WpComToken{AccessToken: "abc"})
	assert.Equal(t, "Bearer", tok.Type())
}
