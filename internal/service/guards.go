package service

import (
	"errors"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/models"
)

// Closed set of authorization/domain errors. Handlers map these to HTTP
// statuses exactly once in their handleError switches.
var (
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUser indicates the username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already registered")
	// ErrForbidden indicates a role or ownership check failed.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrPlanRequired indicates the exam requires a higher subscription plan.
	ErrPlanRequired = errors.New("plan upgrade required")
	// ErrGradeMismatch indicates the student's grade level does not satisfy the exam gate.
	ErrGradeMismatch = errors.New("grade level requirement not met")
	// ErrNotAssigned indicates the student has no assignment for the exam.
	ErrNotAssigned = errors.New("exam not assigned")
	// ErrInvalidState indicates the requested lifecycle transition is not allowed.
	ErrInvalidState = errors.New("invalid state for requested operation")
)

// RequireRole checks that the actor holds one of the allowed roles.
func RequireRole(actor dto.AuthContext, roles ...string) error {
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// EnsurePlan verifies plan gating. Empty requiredPlan means no gate. Admins
// and teachers previewing content bypass the gate.
func EnsurePlan(actor dto.AuthContext, requiredPlan string) error {
	if requiredPlan == "" {
		return nil
	}
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleTeacher {
		return nil
	}
	// Premium satisfies every gate; free satisfies only free.
	if requiredPlan == models.PlanPremium && actor.Plan != models.PlanPremium {
		return ErrPlanRequired
	}
	return nil
}

// EnsureGrade verifies grade-level gating with the same bypass policy as
// EnsurePlan.
func EnsureGrade(actor dto.AuthContext, requiredGrade *int) error {
	if requiredGrade == nil {
		return nil
	}
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleTeacher {
		return nil
	}
	if actor.GradeLevel == nil || *actor.GradeLevel != *requiredGrade {
		return ErrGradeMismatch
	}
	return nil
}

// requireExamAuthor checks ownership of an already-loaded exam.
func requireExamAuthor(actor dto.AuthContext, exam models.Exam) error {
	if actor.IsAdmin() || actor.UserID == exam.AuthorID {
		return nil
	}
	return ErrForbidden
}
