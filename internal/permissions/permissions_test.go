package permissions

import (
	"testing"

	"reviewhub/internal/models"

	"github.com/stretchr/testify/assert"
)

func principalWithRole(role string) Principal {
	return Principal{UserID: "user-123", Role: role, Authenticated: true}
}

func TestCatalogWrite_AdminOnly(t *testing.T) {
	for _, kind := range []Kind{KindCategory, KindGenre, KindTitle} {
		for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
			assert.Equal(t, Allow, Decide(principalWithRole(models.RoleAdmin), action, Resource{Kind: kind}))
			assert.Equal(t, Forbidden, Decide(principalWithRole(models.RoleModerator), action, Resource{Kind: kind}))
			assert.Equal(t, Forbidden, Decide(principalWithRole(models.RoleUser), action, Resource{Kind: kind}))
			assert.Equal(t, Unauthorized, Decide(Anonymous(), action, Resource{Kind: kind}))
		}
	}
}

func TestCatalogRead_Public(t *testing.T) {
	for _, kind := range []Kind{KindCategory, KindGenre, KindTitle} {
		assert.Equal(t, Allow, Decide(Anonymous(), ActionRead, Resource{Kind: kind}))
		assert.Equal(t, Allow, Decide(principalWithRole(models.RoleUser), ActionRead, Resource{Kind: kind}))
	}
}

func TestReviewCreate_AnyAuthenticated(t *testing.T) {
	assert.Equal(t, Allow, Decide(principalWithRole(models.RoleUser), ActionCreate, Resource{Kind: KindReview}))
	assert.Equal(t, Unauthorized, Decide(Anonymous(), ActionCreate, Resource{Kind: KindReview}))
}

func TestReviewMutate_OwnerModeratorAdmin(t *testing.T) {
	owned := Resource{Kind: KindReview, OwnerID: "user-123"}
	foreign := Resource{Kind: KindReview, OwnerID: "someone-else"}

	for _, action := range []Action{ActionUpdate, ActionDelete} {
		assert.Equal(t, Allow, Decide(principalWithRole(models.RoleUser), action, owned))
		assert.Equal(t, Forbidden, Decide(principalWithRole(models.RoleUser), action, foreign))
		assert.Equal(t, Allow, Decide(principalWithRole(models.RoleModerator), action, foreign))
		assert.Equal(t, Allow, Decide(principalWithRole(models.RoleAdmin), action, foreign))
		assert.Equal(t, Unauthorized, Decide(Anonymous(), action, foreign))
	}
}

func TestCommentRules_MatchReviewRules(t *testing.T) {
	foreign := Resource{Kind: KindComment, OwnerID: "someone-else"}

	assert.Equal(t, Allow, Decide(Anonymous(), ActionRead, foreign))
	assert.Equal(t, Allow, Decide(principalWithRole(models.RoleUser), ActionCreate, Resource{Kind: KindComment}))
	assert.Equal(t, Forbidden, Decide(principalWithRole(models.RoleUser), ActionDelete, foreign))
	assert.Equal(t, Allow, Decide(Principal{UserID: "someone-else", Role: models.RoleUser, Authenticated: true}, ActionDelete, foreign))
	assert.Equal(t, Allow, Decide(principalWithRole(models.RoleModerator), ActionUpdate, foreign))
}

func TestUserAdministration_AdminOnly(t *testing.T) {
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		assert.Equal(t, Allow, Decide(principalWithRole(models.RoleAdmin), action, Resource{Kind: KindUser}))
		assert.Equal(t, Forbidden, Decide(principalWithRole(models.RoleModerator), action, Resource{Kind: KindUser}))
		assert.Equal(t, Forbidden, Decide(principalWithRole(models.RoleUser), action, Resource{Kind: KindUser}))
		assert.Equal(t, Unauthorized, Decide(Anonymous(), action, Resource{Kind: KindUser}))
	}
}
