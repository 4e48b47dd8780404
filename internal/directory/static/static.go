// Package static implementa directory.Directory desde un YAML local.
// Pensado para desarrollo y tests, no para producción.
package static

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/multiblog/internal/directory"
)

type file struct {
	Users []struct {
		Login       string `yaml:"login"`
		Email       string `yaml:"email"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"users"`
	Groups map[string][]string `yaml:"groups"` // dn -> logins
}

type Dir struct {
	users  map[string]directory.UserInfo
	groups map[string][]string
}

// Load lee el directorio desde un archivo YAML.
func Load(path string) (*Dir, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	d := &Dir{users: map[string]directory.UserInfo{}, groups: f.Groups}
	for _, u := range f.Users {
		d.users[u.Login] = directory.UserInfo{Login: u.Login, Email: u.Email, DisplayName: u.DisplayName}
	}
	if d.groups == nil {
		d.groups = map[string][]string{}
	}
	return d, nil
}

// New construye un directorio en memoria (tests).
func New(users []directory.UserInfo, groups map[string][]string) *Dir {
	d := &Dir{users: map[string]directory.UserInfo{}, groups: groups}
	for _, u := range users {
		d.users[u.Login] = u
	}
	if d.groups == nil {
		d.groups = map[string][]string{}
	}
	return d
}

func (d *Dir) LookupUser(_ context.Context, login string) (*directory.UserInfo, error) {
	u, ok := d.users[login]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return &u, nil
}

func (d *Dir) GroupMembers(_ context.Context, groupDN string) ([]directory.UserInfo, error) {
	logins, ok := d.groups[groupDN]
	if !ok {
		return nil, directory.ErrGroupNotFound
	}
	out := make([]directory.UserInfo, 0, len(logins))
	for _, l := range logins {
		if u, ok := d.users[l]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
