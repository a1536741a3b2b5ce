package users

import (
	"sync"

	"github.com/jrsteele09/go-tenant-console/internal/reactive"
	"github.com/jrsteele09/go-tenant-console/sessions"
)

// Profile is the denormalized view of the signed-in user shown by front ends.
// Set and reset always cover this whole field set.
type Profile struct {
	Username    string   `json:"username"`
	Nickname    string   `json:"nickname"`
	Avatar      string   `json:"avatar"`
	Role        string   `json:"role"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	TenantID    string   `json:"tenant_id"`
}

// EmptyProfile is the signed-out profile.
func EmptyProfile() Profile {
	return Profile{Roles: []string{}, Permissions: []string{}}
}

// ProfileFromUser derives the profile fields from an identity.
func ProfileFromUser(u *sessions.User) Profile {
	if u == nil {
		return EmptyProfile()
	}
	return Profile{
		Username:    u.Email,
		Nickname:    u.Nickname(),
		Avatar:      u.Avatar(),
		Role:        u.Role(),
		Roles:       u.Roles(),
		Permissions: u.Permissions(),
		TenantID:    u.TenantID(),
	}
}

func (p Profile) clone() Profile {
	p.Roles = append([]string{}, p.Roles...)
	p.Permissions = append([]string{}, p.Permissions...)
	return p
}

// ProfileStore is process-wide profile state with setter actions.
type ProfileStore struct {
	lock     sync.RWMutex
	profile  Profile
	watchers reactive.Watchers[Profile]
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profile: EmptyProfile()}
}

// Snapshot returns a copy of the current profile.
func (s *ProfileStore) Snapshot() Profile {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.profile.clone()
}

func (s *ProfileStore) update(fn func(p *Profile)) {
	s.lock.Lock()
	fn(&s.profile)
	snap := s.profile.clone()
	s.lock.Unlock()
	s.watchers.Notify(snap)
}

func (s *ProfileStore) SetUsername(v string) { s.update(func(p *Profile) { p.Username = v }) }
func (s *ProfileStore) SetNickname(v string) { s.update(func(p *Profile) { p.Nickname = v }) }
func (s *ProfileStore) SetAvatar(v string)   { s.update(func(p *Profile) { p.Avatar = v }) }
func (s *ProfileStore) SetRole(v string)     { s.update(func(p *Profile) { p.Role = v }) }
func (s *ProfileStore) SetTenantID(v string) { s.update(func(p *Profile) { p.TenantID = v }) }

func (s *ProfileStore) SetRoles(v []string) {
	s.update(func(p *Profile) { p.Roles = append([]string{}, v...) })
}

func (s *ProfileStore) SetPermissions(v []string) {
	s.update(func(p *Profile) { p.Permissions = append([]string{}, v...) })
}

// Apply replaces the whole profile with one notification.
func (s *ProfileStore) Apply(v Profile) {
	s.update(func(p *Profile) { *p = v.clone() })
}

// Reset clears every field.
func (s *ProfileStore) Reset() {
	s.Apply(EmptyProfile())
}

// Watch registers fn for every change.
func (s *ProfileStore) Watch(fn func(Profile)) (cancel func()) {
	return s.watchers.Add(fn)
}
