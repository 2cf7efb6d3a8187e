package settings

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/passcrypto"
)

// Encrypter encrypts legacy plaintext passwords during migration
type Encrypter interface {
	Encrypt(message string) (passcrypto.Encrypted, error)
}

// UpgradeResult is the outcome of Upgrade
type UpgradeResult struct {
	NeedUpgrade bool
	Settings    Settings
}

// Upgrade migrates a loaded settings blob to the target version.
//
// A typed Settings is already in the current layout and only gets its
// missing version stamped. Non-object input yields the defaults. Input that already carries a version
// tag is returned as is; there is no downgrade path. Unversioned (V1) input is
// rebuilt as V2, folding the legacy flat endpoint and credentials into a single
// default profile. Running Upgrade on its own output is a no-op.
func Upgrade(raw any, to Version, enc Encrypter) (UpgradeResult, error) {
	switch v := raw.(type) {
	case Settings:
		return upgradeTyped(v, to), nil
	case *Settings:
		if v != nil {
			return upgradeTyped(*v, to), nil
		}
	}

	legacy, ok := asObject(raw)
	if !ok {
		return UpgradeResult{Settings: Defaults()}, nil
	}

	if version, present := legacy["version"]; present && version != nil {
		s, err := Decode(legacy)
		if err != nil {
			return UpgradeResult{}, err
		}
		return UpgradeResult{Settings: s}, nil
	}

	if to != V2 {
		s, err := Decode(legacy)
		if err != nil {
			return UpgradeResult{}, err
		}
		return UpgradeResult{Settings: s}, nil
	}

	next := Defaults()
	next.Version = V2
	next.DefaultPostType = models.PostTypePost
	if v, ok := legacy["lang"].(string); ok {
		next.Lang = v
	}
	if v, ok := legacy["showRibbonIcon"].(bool); ok {
		next.ShowRibbonIcon = v
	}
	if v, ok := legacy["defaultPostStatus"].(string); ok {
		next.DefaultPostStatus = models.PostStatus(v)
	}
	if v, ok := legacy["defaultCommentStatus"].(string); ok {
		next.DefaultCommentStatus = models.CommentStatus(v)
	}
	if v, ok := legacy["rememberLastSelectedCategories"].(bool); ok {
		next.RememberLastSelectedCategories = v
	}
	if v, ok := legacy["showWordPressEditConfirm"].(bool); ok {
		next.ShowWordPressEditConfirm = v
	}
	if v, ok := legacy["mathJaxOutputType"].(string); ok {
		next.MathJaxOutputType = MathJaxOutputType(v)
	}
	if v, ok := legacy["commentConvertMode"].(string); ok {
		next.CommentConvertMode = CommentConvertMode(v)
	}

	if endpoint, _ := legacy["endpoint"].(string); endpoint != "" {
		profile, err := legacyProfile(legacy, endpoint, enc)
		if err != nil {
			return UpgradeResult{}, err
		}
		next.Profiles = []models.Profile{profile}
	}

	return UpgradeResult{NeedUpgrade: true, Settings: next}, nil
}

func legacyProfile(legacy map[string]any, endpoint string, enc Encrypter) (models.Profile, error) {
	password, _ := legacy["password"].(string)
	encrypted, err := enc.Encrypt(password)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to encrypt legacy password: %w", err)
	}

	apiType := models.APITypeXMLRPC
	if v, ok := legacy["apiType"].(string); ok && v != "" {
		apiType = models.APIType(v)
	}
	xmlRPCPath, _ := legacy["xmlRpcPath"].(string)
	username, _ := legacy["username"].(string)

	categories := []int{1}
	if list, ok := legacy["lastSelectedCategories"].([]any); ok {
		categories = make([]int, 0, len(list))
		for _, item := range list {
			if id, ok := toInt(item); ok {
				categories = append(categories, id)
			}
		}
	}

	return models.Profile{
		Name:                   DefaultProfileName,
		APIType:                apiType,
		Endpoint:               endpoint,
		XMLRPCPath:             xmlRPCPath,
		Username:               username,
		SaveUsername:           legacy["username"] != nil,
		SavePassword:           legacy["password"] != nil,
		IsDefault:              true,
		LastSelectedCategories: categories,
		EncryptedPassword:      &encrypted,
	}, nil
}

// Decode converts an untyped settings blob into Settings. Fields missing
// from the blob keep their default values.
func Decode(raw any) (Settings, error) {
	s := Defaults()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("failed to create settings decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case []byte:
		return unmarshalObject(v)
	case json.RawMessage:
		return unmarshalObject(v)
	case Settings, *Settings:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return unmarshalObject(data)
	}
	return nil, false
}

func unmarshalObject(data []byte) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func upgradeTyped(s Settings, to Version) UpgradeResult {
	if s.Version != "" {
		return UpgradeResult{Settings: s}
	}
	s.Version = to
	return UpgradeResult{NeedUpgrade: true, Settings: s}
}
