package models

import (
	"fmt"
	"strings"

	"github.com/bugparty/wpctl/internal/passcrypto"
)

// APIType selects the wire protocol (and REST dialect) of a profile
type APIType string

const (
	APITypeXMLRPC               APIType = "xml-rpc"
	APITypeMiniOrange           APIType = "miniOrange"
	APITypeApplicationPasswords APIType = "application-passwords"
	APITypeWpComOAuth2          APIType = "WpComOAuth2"
)

// APITypes lists every supported API type
var APITypes = []APIType{
	APITypeXMLRPC,
	APITypeMiniOrange,
	APITypeApplicationPasswords,
	APITypeWpComOAuth2,
}

// ParseAPIType validates a user supplied API type
func ParseAPIType(s string) (APIType, error) {
	for _, t := range APITypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown API type %q", s)
}

// DefaultXMLRPCPath is used when a profile does not set its own path
const DefaultXMLRPCPath = "/xmlrpc.php"

// WpComToken is the OAuth2 token granted by WordPress.com for one site
type WpComToken struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType,omitempty"`
	BlogID      string `json:"blogId"`
	BlogURL     string `json:"blogUrl,omitempty"`
}

// Profile is one configured remote WordPress site
type Profile struct {
	Name       string  `json:"name"`
	APIType    APIType `json:"apiType"`
	Endpoint   string  `json:"endpoint"`
	XMLRPCPath string  `json:"xmlRpcPath,omitempty"`
	Username   string  `json:"username,omitempty"`
	// Password is only held in memory, never persisted
	Password               string                `json:"-"`
	EncryptedPassword      *passcrypto.Encrypted `json:"encryptedPassword,omitempty"`
	SaveUsername           bool                  `json:"saveUsername"`
	SavePassword           bool                  `json:"savePassword"`
	IsDefault              bool                  `json:"isDefault"`
	LastSelectedCategories []int                 `json:"lastSelectedCategories,omitempty"`
	WpComOAuth2Token       *WpComToken           `json:"wpComOAuth2Token,omitempty"`
}

// IsREST reports whether the profile talks to the REST API
func (p Profile) IsREST() bool {
	return p.APIType != APITypeXMLRPC
}
