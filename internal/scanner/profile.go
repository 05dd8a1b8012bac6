package scanner

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"

	"misinfo-guard/internal/models"
)

// GenericSelector picks heading-like and paragraph-like elements.
const GenericSelector = `h1, h2, h3, h4, [role="heading"], p`

// Profile describes which elements of a site are scan candidates. For a
// microblog profile Container selects whole posts and Body, when present
// inside a post, is preferred as the anchor and text source.
type Profile struct {
	Name      string             `yaml:"name"`
	Kind      models.SiteProfile `yaml:"kind"`
	Hosts     []string           `yaml:"hosts"`
	Container string             `yaml:"container"`
	Body      string             `yaml:"body"`
}

// DefaultProfiles returns the built-in site profiles.
func DefaultProfiles() []Profile {
	return []Profile{{
		Name:      "x",
		Kind:      models.ProfileMicroblog,
		Hosts:     []string{"x.com", "twitter.com"},
		Container: `article[data-testid="tweet"]`,
		Body:      `div[data-testid="tweetText"]`,
	}}
}

type compiledProfile struct {
	Profile
	container cascadia.Selector
	body      cascadia.Selector
}

// Profiles resolves a host to the profile that scans it.
type Profiles struct {
	sites   []compiledProfile
	generic compiledProfile
}

// NewProfiles compiles the selectors of every profile. Hosts not covered by
// any of them use the generic profile.
func NewProfiles(list []Profile) (*Profiles, error) {
	generic, err := compile(Profile{Name: "generic", Kind: models.ProfileGeneric, Container: GenericSelector})
	if err != nil {
		return nil, err
	}
	ps := &Profiles{generic: generic}
	for _, p := range list {
		cp, err := compile(p)
		if err != nil {
			return nil, err
		}
		ps.sites = append(ps.sites, cp)
	}
	return ps, nil
}

func compile(p Profile) (compiledProfile, error) {
	if p.Container == "" {
		return compiledProfile{}, fmt.Errorf("profile %q: empty container selector", p.Name)
	}
	c, err := cascadia.Compile(p.Container)
	if err != nil {
		return compiledProfile{}, fmt.Errorf("profile %q: container: %w", p.Name, err)
	}
	cp := compiledProfile{Profile: p, container: c}
	if p.Body != "" {
		b, err := cascadia.Compile(p.Body)
		if err != nil {
			return compiledProfile{}, fmt.Errorf("profile %q: body: %w", p.Name, err)
		}
		cp.body = b
	}
	if cp.Kind == "" {
		cp.Kind = models.ProfileGeneric
	}
	return cp, nil
}

// For returns the profile for host. A profile host matches itself and any
// subdomain of it.
func (ps *Profiles) For(host string) compiledProfile {
	host = strings.ToLower(host)
	for _, p := range ps.sites {
		for _, h := range p.Hosts {
			h = strings.ToLower(h)
			if host == h || strings.HasSuffix(host, "."+h) {
				return p
			}
		}
	}
	return ps.generic
}
