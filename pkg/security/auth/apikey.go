package auth

import (
	"errors"
	"sync"

	"seleniumrobot/infoserver/pkg/config"
)

// Errors returned while resolving credentials.
var (
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrDisabledCredential = errors.New("credential disabled")
)

// APIKeyInfo is one static API key and the principal it resolves to.
type APIKeyInfo struct {
	Key       string
	Principal *Principal
	Enabled   bool
}

// APIKeyValidator validates API keys against a configured set of keys
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[string]*APIKeyInfo
}

// NewAPIKeyValidator creates a new API key validator with the given keys
func NewAPIKeyValidator(keys []*APIKeyInfo) *APIKeyValidator {
	keyMap := make(map[string]*APIKeyInfo)
	for _, key := range keys {
		keyMap[key.Key] = key
	}

	return &APIKeyValidator{
		keys: keyMap,
	}
}

// APIKeysFromConfig converts the configured key table.
func APIKeysFromConfig(cfgs []config.APIKeyConfig) []*APIKeyInfo {
	keys := make([]*APIKeyInfo, 0, len(cfgs))
	for _, c := range cfgs {
		enabled := c.Enabled == nil || *c.Enabled
		keys = append(keys, &APIKeyInfo{
			Key:       c.Key,
			Principal: NewPrincipal(c.Principal, c.Superuser, c.Capabilities),
			Enabled:   enabled,
		})
	}
	return keys
}

// Authenticate returns the principal for the key.
func (v *APIKeyValidator) Authenticate(key string) (*Principal, error) {
	info, err := v.Validate(key)
	if err != nil {
		return nil, err
	}
	return info.Principal, nil
}

// Validate checks if the given API key is valid and returns its info
func (v *APIKeyValidator) Validate(key string) (*APIKeyInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok {
		return nil, ErrInvalidCredential
	}

	if !info.Enabled {
		return nil, ErrDisabledCredential
	}

	return info, nil
}

// Replace swaps the whole key table, used when the configuration is reloaded.
func (v *APIKeyValidator) Replace(keys []*APIKeyInfo) {
	keyMap := make(map[string]*APIKeyInfo, len(keys))
	for _, key := range keys {
		keyMap[key.Key] = key
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys = keyMap
}

// Len returns the number of configured keys.
func (v *APIKeyValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keys)
}
