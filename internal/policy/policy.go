// Package policy is the single authority on who may do what.
//
// Every mutating service call resolves its precondition here before
// touching storage. The package is a pure decision table (role and
// target in, allow or deny out) with no I/O and no side effects, so
// the whole access model is testable with plain function calls.
//
// Denials are apperror.Forbidden values whose message names the rule
// that fired; handlers surface the message to the user unchanged.
//
// The table, in one place:
//
//	create post (directly visible)   admin, co-founder, founder
//	comment / react                  any signed-in, not banned
//	submit code (goes to pending)    any signed-in, not banned
//	approve / reject submission      admin, co-founder, founder
//	change role                      staff; never own role; founder immutable;
//	                                 admin can't touch admin+ or grant admin+
//	ban / unban                      staff; never self; leaders only vs leaders
//	delete user                      founder undeletable; admin+ targets need
//	                                 founder; member/partner targets need staff
//	create / delete section          admin, founder
//	application questions            co-founder, founder
//	review partner application       admin, co-founder, founder
//	create / delete video            admin, co-founder, founder
package policy

import (
	"fmt"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/model"
)

// RequireActive denies banned accounts. It is the baseline check for
// every mutation: a ban removes write access, not read access.
func RequireActive(actor *model.User) error {
	if actor == nil {
		return apperror.Unauthorized("you must be signed in")
	}
	if actor.IsBanned {
		return apperror.Forbidden("banned accounts cannot perform this action")
	}
	return nil
}

// CanCreatePost allows staff only. Everyone else publishes through the
// moderated submission path.
func CanCreatePost(actor *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.Role.Staff() {
		return apperror.Forbidden("only admins, co-founders, and founders can create posts")
	}
	return nil
}

// CanComment allows any active signed-in user to comment or react.
func CanComment(actor *model.User) error {
	return RequireActive(actor)
}

// CanSubmitCode allows any active signed-in user; the submission always
// enters the queue as pending regardless of the submitter's role.
func CanSubmitCode(actor *model.User) error {
	return RequireActive(actor)
}

// CanModerate allows staff to approve or reject pending submissions and
// to delete posts.
func CanModerate(actor *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.Role.Staff() {
		return apperror.Forbidden("only admins, co-founders, and founders can moderate content")
	}
	return nil
}

// CanChangeRole decides whether actor may set target's role to newRole.
//
// Rules, in the order they are checked:
//   - actor must be staff
//   - nobody changes their own role (covers both self-elevation and a
//     founder demoting themselves out of the leadership)
//   - the founder's role is immutable
//   - admins cannot modify other admins, co-founders, or founders
//   - granting admin, co-founder, or founder requires the leadership
func CanChangeRole(actor, target *model.User, newRole model.Role) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.Role.Staff() {
		return apperror.Forbidden("only admins, co-founders, and founders can change roles")
	}
	if actor.ID == target.ID {
		return apperror.Forbidden("you cannot change your own role")
	}
	if target.Role == model.RoleFounder {
		return apperror.Forbidden("the founder's role cannot be changed")
	}
	if actor.Role == model.RoleAdmin && target.Role.Staff() {
		return apperror.Forbidden(fmt.Sprintf("admins cannot change the role of a %s", target.Role))
	}
	if newRole.Staff() && !actor.Role.Leadership() {
		return apperror.Forbidden(fmt.Sprintf("only founders and co-founders can assign the %s role", newRole))
	}
	return nil
}

// CanBan decides whether actor may ban or unban target.
func CanBan(actor, target *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.Role.Staff() {
		return apperror.Forbidden("only admins, co-founders, and founders can ban users")
	}
	if actor.ID == target.ID {
		return apperror.Forbidden("you cannot ban yourself")
	}
	if target.Role.Leadership() && !actor.Role.Leadership() {
		return apperror.Forbidden("only founders and co-founders can ban a founder or co-founder")
	}
	return nil
}

// CanDeleteUser decides whether actor may delete target's account and
// its content. The founder account can never be deleted.
func CanDeleteUser(actor, target *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if actor.ID == target.ID {
		return apperror.Forbidden("you cannot delete your own account here")
	}
	if target.Role == model.RoleFounder {
		return apperror.Forbidden("the founder account cannot be deleted")
	}
	switch {
	case target.Role == model.RoleAdmin || target.Role == model.RoleCoFounder:
		if actor.Role != model.RoleFounder {
			return apperror.Forbidden(fmt.Sprintf("only the founder can delete a %s", target.Role))
		}
	default:
		if !actor.Role.Staff() {
			return apperror.Forbidden("only admins, co-founders, and founders can delete users")
		}
	}
	return nil
}

// CanManageSections allows admins and the founder to create and delete
// sections.
func CanManageSections(actor *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if actor.Role != model.RoleAdmin && actor.Role != model.RoleFounder {
		return apperror.Forbidden("only admins and founders can manage sections")
	}
	return nil
}

// CanManageQuestions restricts the partner application form to the
// leadership.
func CanManageQuestions(actor *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.Role.Leadership() {
		return apperror.Forbidden("only founders and co-founders can manage application questions")
	}
	return nil
}

// CanReviewApplications allows staff to approve or deny partner
// applications.
func CanReviewApplications(actor *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.Role.Staff() {
		return apperror.Forbidden("only admins, co-founders, and founders can review applications")
	}
	return nil
}

// CanManageVideos allows staff to add and remove videos.
func CanManageVideos(actor *model.User) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.Role.Staff() {
		return apperror.Forbidden("only admins, co-founders, and founders can manage videos")
	}
	return nil
}
