package config

import (
	"context"
	"fmt"
	"sort"

	"github.com/mattjoyce/crewtool/internal/crew"
)

// CredentialStore serves the credentials block to crew.Tool, keyed by
// package name.
type CredentialStore struct {
	byPackage map[string]map[string]string
}

var _ crew.EnvProvider = (*CredentialStore)(nil)

// CredentialStore returns the credentials block as a crew.EnvProvider.
func (c *Config) CredentialStore() *CredentialStore {
	byPackage := make(map[string]map[string]string, len(c.Credentials))
	for pkg, env := range c.Credentials {
		copied := make(map[string]string, len(env))
		for k, v := range env {
			copied[k] = v
		}
		byPackage[pkg] = copied
	}
	return &CredentialStore{byPackage: byPackage}
}

// Env returns the variables configured for req.Package. A placeholder left
// unresolved at load time is reported here so only the affected package fails.
func (s *CredentialStore) Env(_ context.Context, req crew.Request) (map[string]string, error) {
	env, ok := s.byPackage[req.Package]
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(env))
	for _, k := range keys {
		v := env[k]
		if m := envVarPattern.FindStringSubmatch(v); m != nil {
			return nil, fmt.Errorf("credentials.%s.%s: environment variable ${%s} is not set", req.Package, k, m[1])
		}
		out[k] = v
	}
	return out, nil
}

// Packages lists the packages that have credentials configured.
func (s *CredentialStore) Packages() []string {
	pkgs := make([]string, 0, len(s.byPackage))
	for p := range s.byPackage {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)
	return pkgs
}
