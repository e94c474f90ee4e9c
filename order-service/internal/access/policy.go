package access

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

type RolePolicy struct {
	Own []Action `yaml:"own"`
	Any []Action `yaml:"any"`
}

type PolicyConfig struct {
	Roles map[Role]RolePolicy `yaml:"roles"`
}

func ParsePolicy(data []byte) (*PolicyConfig, error) {
	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid access policy: %w", err)
	}

	for role, rp := range cfg.Roles {
		if !role.Valid() {
			return nil, fmt.Errorf("invalid access policy: unknown role %q", role)
		}
		for _, a := range append(append([]Action{}, rp.Own...), rp.Any...) {
			if _, ok := knownActions[a]; !ok {
				return nil, fmt.Errorf("invalid access policy: role %q has unknown action %q", role, a)
			}
		}
	}
	return &cfg, nil
}

// LoadPolicy reads the policy file at path, or the built-in policy when path is empty.
func LoadPolicy(path string) (*PolicyConfig, error) {
	if path == "" {
		return DefaultPolicy()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read access policy %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Loaded access policy")
	return ParsePolicy(data)
}

func DefaultPolicy() (*PolicyConfig, error) {
	return ParsePolicy(defaultPolicy)
}

type capabilities struct {
	own map[Action]struct{}
	any map[Action]struct{}
}

type PolicyAuthorizer struct {
	roles map[Role]capabilities
}

func NewPolicyAuthorizer(cfg *PolicyConfig) *PolicyAuthorizer {
	roles := make(map[Role]capabilities, len(cfg.Roles))
	for role, rp := range cfg.Roles {
		c := capabilities{
			own: make(map[Action]struct{}, len(rp.Own)),
			any: make(map[Action]struct{}, len(rp.Any)),
		}
		for _, a := range rp.Own {
			c.own[a] = struct{}{}
		}
		for _, a := range rp.Any {
			c.any[a] = struct{}{}
		}
		roles[role] = c
	}
	return &PolicyAuthorizer{roles: roles}
}

func (p *PolicyAuthorizer) Authorize(actor Actor, action Action, resource Resource) error {
	c, ok := p.roles[actor.Role]
	if ok {
		if _, ok := c.any[action]; ok {
			return nil
		}
		if _, ok := c.own[action]; ok && resource.OwnerID != nil && *resource.OwnerID == actor.UserID {
			return nil
		}
	}

	log.Warn().
		Stringer("user_id", actor.UserID).
		Str("role", string(actor.Role)).
		Str("action", string(action)).
		Msg("access: action denied")
	return fmt.Errorf("%w: role %q cannot perform %s", ErrForbidden, actor.Role, action)
}
