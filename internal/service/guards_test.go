package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/examind-api/internal/models"
)

func TestEnsurePlan(t *testing.T) {
	free := studentContext(1)
	premium := studentContext(2)
	premium.Plan = models.PlanPremium

	require.NoError(t, EnsurePlan(free, ""))
	require.NoError(t, EnsurePlan(free, models.PlanFree))
	require.ErrorIs(t, EnsurePlan(free, models.PlanPremium), ErrPlanRequired)

	// Premium satisfies both gates.
	require.NoError(t, EnsurePlan(premium, models.PlanFree))
	require.NoError(t, EnsurePlan(premium, models.PlanPremium))

	// Teachers and admins preview gated exams freely.
	require.NoError(t, EnsurePlan(teacherContext(3), models.PlanPremium))
	require.NoError(t, EnsurePlan(adminContext(4), models.PlanPremium))
}

func TestEnsureGrade(t *testing.T) {
	ungraded := studentContext(1)
	ninth := studentContext(2)
	ninth.GradeLevel = intPointer(9)

	require.NoError(t, EnsureGrade(ungraded, nil))
	require.ErrorIs(t, EnsureGrade(ungraded, intPointer(9)), ErrGradeMismatch)
	require.NoError(t, EnsureGrade(ninth, intPointer(9)))
	require.ErrorIs(t, EnsureGrade(ninth, intPointer(10)), ErrGradeMismatch)

	require.NoError(t, EnsureGrade(teacherContext(3), intPointer(9)))
}

func TestRequireRole(t *testing.T) {
	require.NoError(t, RequireRole(teacherContext(1), models.RoleTeacher, models.RoleAdmin))
	require.ErrorIs(t, RequireRole(studentContext(2), models.RoleTeacher, models.RoleAdmin), ErrForbidden)
}
