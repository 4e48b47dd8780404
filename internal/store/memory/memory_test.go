package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	core "github.com/dropDatabas3/multiblog/internal/store/core"
)

func TestCreateBlogConflict(t *testing.T) {
	ctx := context.Background()
	s := New()

	b := &core.Blog{Name: "aula", Path: "/aula/"}
	require.NoError(t, s.CreateBlog(ctx, b))
	require.NotZero(t, b.ID)

	err := s.CreateBlog(ctx, &core.Blog{Name: "aula", Path: "/aula/"})
	require.True(t, core.IsConflict(err))
}

func TestGetBlogIDByName(t *testing.T) {
	ctx := context.Background()
	s := New()

	b := &core.Blog{Name: "aula", Path: "/aula/"}
	require.NoError(t, s.CreateBlog(ctx, b))

	id, err := s.GetBlogIDByName(ctx, "aula")
	require.NoError(t, err)
	require.Equal(t, b.ID, id)

	_, err = s.GetBlogIDByName(ctx, "otro")
	require.True(t, core.IsNotFound(err))
}

func TestSearchBlogsOrderedByPath(t *testing.T) {
	ctx := context.Background()
	s := New()

	var ids []int64
	for _, name := range []string{"zeta", "aula", "aula2"} {
		b := &core.Blog{Name: name, Path: "/" + name + "/"}
		require.NoError(t, s.CreateBlog(ctx, b))
		ids = append(ids, b.ID)
	}

	got, err := s.SearchBlogs(ctx, "/aula")
	require.NoError(t, err)
	require.Equal(t, []int64{ids[1], ids[2]}, got, "results ordered by path")

	got, err = s.SearchBlogs(ctx, "/")
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestUpsertUserByLoginIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	u1, err := s.UpsertUserByLogin(ctx, &core.User{Login: "ana", Email: "ana@example.edu"})
	require.NoError(t, err)
	require.NotEmpty(t, u1.ID)

	u2, err := s.UpsertUserByLogin(ctx, &core.User{Login: "ana", Email: "otra@example.edu"})
	require.NoError(t, err)
	require.Equal(t, u1.ID, u2.ID)
	require.Equal(t, "ana@example.edu", u2.Email, "existing account wins")
}

func TestMemberships(t *testing.T) {
	ctx := context.Background()
	s := New()

	b := &core.Blog{Name: "aula", Path: "/aula/"}
	require.NoError(t, s.CreateBlog(ctx, b))
	u, err := s.UpsertUserByLogin(ctx, &core.User{Login: "ana"})
	require.NoError(t, err)

	require.NoError(t, s.AddMembership(ctx, b.ID, u.ID, "author"))
	err = s.AddMembership(ctx, b.ID, u.ID, "author")
	require.True(t, core.IsConflict(err), "same role twice is a conflict")

	// un segundo rol distinto convive
	require.NoError(t, s.AddMembership(ctx, b.ID, u.ID, "editor"))
	roles, err := s.MembershipRoles(ctx, b.ID, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"author", "editor"}, roles)

	ok, err := s.IsMember(ctx, b.ID, u.ID)
	require.NoError(t, err)
	require.True(t, ok)

	blogs, err := s.BlogsOfUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{b.ID}, blogs)

	// la remoción es total y es idempotente
	require.NoError(t, s.RemoveMembership(ctx, b.ID, u.ID))
	require.NoError(t, s.RemoveMembership(ctx, b.ID, u.ID))
	ok, err = s.IsMember(ctx, b.ID, u.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAddMembershipUnknownBlog(t *testing.T) {
	s := New()
	err := s.AddMembership(context.Background(), 999, "u1", "author")
	require.True(t, core.IsNotFound(err))
}

func TestSyncedGroupUpsertPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &core.SyncedGroup{BlogID: 1, GroupDN: "cn=g", Role: "author"}
	require.NoError(t, s.UpsertSyncedGroup(ctx, g))

	rules, err := s.ListSyncedGroups(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	created := rules[0].CreatedAt
	require.False(t, created.IsZero())

	// reemplazar el rol conserva la fecha de alta de la regla
	require.NoError(t, s.UpsertSyncedGroup(ctx, &core.SyncedGroup{BlogID: 1, GroupDN: "cn=g", Role: "editor"}))
	rules, err = s.ListSyncedGroups(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, "editor", rules[0].Role)
	require.Equal(t, created, rules[0].CreatedAt)
}

func TestSiteOptions(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetSiteOption(ctx, "registration")
	require.True(t, core.IsNotFound(err))

	require.NoError(t, s.SetSiteOption(ctx, "registration", "all"))
	v, err := s.GetSiteOption(ctx, "registration")
	require.NoError(t, err)
	require.Equal(t, "all", v)
}
