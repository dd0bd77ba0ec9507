package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/learning-hub/catalog"
	"github.com/hearthside/learning-hub/store/sqlite"
)

func newReadinessStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func checkNames(r *catalog.Readiness) []string {
	var out []string
	for _, issue := range r.Issues {
		out = append(out, issue.Check)
	}
	return out
}

func TestCheckReadiness_EmptyInstallation(t *testing.T) {
	store := newReadinessStore(t)

	readiness, err := catalog.CheckReadiness(context.Background(), store)
	require.NoError(t, err)

	assert.False(t, readiness.Ready)
	names := checkNames(readiness)
	assert.Contains(t, names, "admin_member")
	assert.Contains(t, names, "single_student")
	assert.Contains(t, names, "active_school")
}

func TestCheckReadiness_FullySetUp(t *testing.T) {
	store := newReadinessStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
		Name: "Dana", Role: catalog.RoleParent, IsAdmin: true,
	}))
	require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
		Name: "Sam", Role: catalog.RoleStudent, IsStudent: true,
	}))
	require.NoError(t, store.CreateSchool(ctx, &catalog.School{
		Code: "lincoln", Name: "Lincoln", Active: true,
	}))
	value := "15"
	_, err := store.SetConfig(ctx, "bonus_fund_weekly_topup", &value, "weekly slots", true)
	require.NoError(t, err)

	readiness, err := catalog.CheckReadiness(ctx, store)
	require.NoError(t, err)
	assert.True(t, readiness.Ready)
	assert.Empty(t, readiness.Issues)
}

func TestCheckReadiness_TwoStudents(t *testing.T) {
	store := newReadinessStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
		Name: "Dana", Role: catalog.RoleParent, IsAdmin: true,
	}))
	for _, name := range []string{"Sam", "Alex"} {
		require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
			Name: name, Role: catalog.RoleStudent, IsStudent: true,
		}))
	}
	require.NoError(t, store.CreateSchool(ctx, &catalog.School{
		Code: "lincoln", Name: "Lincoln", Active: true,
	}))

	readiness, err := catalog.CheckReadiness(ctx, store)
	require.NoError(t, err)
	assert.False(t, readiness.Ready)
	assert.Equal(t, []string{"single_student"}, checkNames(readiness))
}

func TestCheckReadiness_UnsetRequiredConfig(t *testing.T) {
	store := newReadinessStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
		Name: "Dana", Role: catalog.RoleParent, IsAdmin: true,
	}))
	require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
		Name: "Sam", Role: catalog.RoleStudent, IsStudent: true,
	}))
	require.NoError(t, store.CreateSchool(ctx, &catalog.School{
		Code: "lincoln", Name: "Lincoln", Active: true,
	}))
	_, err := store.SetConfig(ctx, "grade_to_minutes_map", nil, "grade map", true)
	require.NoError(t, err)
	// Optional entries may stay unset
	_, err = store.SetConfig(ctx, "homework_bonus_ontime_minutes", nil, "on-time bonus", false)
	require.NoError(t, err)

	readiness, err := catalog.CheckReadiness(ctx, store)
	require.NoError(t, err)
	assert.False(t, readiness.Ready)
	assert.Equal(t, []string{"required_config"}, checkNames(readiness))
}

func TestCheckReadiness_InactiveSchoolDoesNotCount(t *testing.T) {
	store := newReadinessStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSchool(ctx, &catalog.School{
		Code: "closed", Name: "Closed", Active: false,
	}))

	readiness, err := catalog.CheckReadiness(ctx, store)
	require.NoError(t, err)
	assert.Contains(t, checkNames(readiness), "active_school")
}
