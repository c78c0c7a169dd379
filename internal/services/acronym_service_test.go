package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilapp/til/internal/models"
	"github.com/tilapp/til/internal/sanitize"
	"go.uber.org/zap/zaptest"
)

type acronymFixture struct {
	svc        *acronymService
	acronyms   *memoryAcronymStore
	categories *memoryCategoryStore
	users      *memoryUserStore
}

func newAcronymFixture(t *testing.T, acronyms ...models.Acronym) acronymFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := acronymFixture{
		acronyms:   newMemoryAcronymStore(acronyms...),
		categories: newMemoryCategoryStore(),
		users: newMemoryUserStore(
			hashedUser("alice", "password1", models.RoleStandard),
			hashedUser("bob", "password1", models.RoleStandard),
		),
	}
	categorySvc := NewCategoryService(f.categories, nil, logger)
	f.svc = NewAcronymService(f.acronyms, categorySvc, f.users, passthroughSanitizer{}, logger)
	return f
}

func categoriesPtr(names ...string) *[]string {
	return &names
}

func TestAcronymService_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        models.AcronymRequest
		validation bool
		categories []string
	}{
		{
			name:       "with categories",
			req:        models.AcronymRequest{Short: "OMG", Long: "Oh My God", Categories: categoriesPtr("Funny", "Teen", "Funny")},
			categories: []string{"Funny", "Teen"},
		},
		{
			name:       "without categories",
			req:        models.AcronymRequest{Short: "LOL", Long: "Laugh Out Loud"},
			categories: []string{},
		},
		{
			name:       "missing long",
			req:        models.AcronymRequest{Short: "LOL"},
			validation: true,
		},
		{
			name:       "letters of short missing from long",
			req:        models.AcronymRequest{Short: "XYZ", Long: "Laugh Out Loud"},
			validation: true,
		},
		{
			name:       "short too long",
			req:        models.AcronymRequest{Short: strings.Repeat("a", 256), Long: "a"},
			validation: true,
		},
		{
			name:       "category name too long",
			req:        models.AcronymRequest{Short: "LOL", Long: "Laugh Out Loud", Categories: categoriesPtr("Funny", strings.Repeat("x", 256))},
			validation: true,
		},
		{
			name:       "category name at column size",
			req:        models.AcronymRequest{Short: "LOL", Long: "Laugh Out Loud", Categories: categoriesPtr(strings.Repeat("é", 255))},
			categories: []string{strings.Repeat("é", 255)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAcronymFixture(t)
			owner := &models.User{ID: 1}
			req := tt.req

			acronym, err := f.svc.Create(context.Background(), owner, &req)

			if tt.validation {
				assert.True(t, models.IsValidationError(err), "got %v", err)
				assert.Nil(t, acronym)
				assert.Empty(t, f.acronyms.acronyms, "nothing is written when validation fails")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, acronym.UserID)
			assert.ElementsMatch(t, tt.categories, f.categories.attachedNames(acronym.ID))
		})
	}
}

func TestAcronymService_Create_SanitizesInput(t *testing.T) {
	f := newAcronymFixture(t)
	f.svc.sanitizer = sanitize.NewTextSanitizer()

	acronym, err := f.svc.Create(context.Background(), &models.User{ID: 1}, &models.AcronymRequest{
		Short: "<b>OMG</b>",
		Long:  "Oh My <script>alert(1)</script>God",
	})

	require.NoError(t, err)
	assert.Equal(t, "OMG", acronym.Short)
	assert.Equal(t, "Oh My God", acronym.Long)
}

func TestAcronymService_Update(t *testing.T) {
	f := newAcronymFixture(t, models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 1})
	ctx := context.Background()
	require.NoError(t, f.svc.categories.ApplyCategoryPlan(ctx, 1, Reconcile(nil, []string{"Funny", "Dumb"})))

	updated, err := f.svc.Update(ctx, &models.User{ID: 2}, 1, &models.AcronymRequest{
		Short:      "OMG",
		Long:       "Oh My Gosh",
		Categories: categoriesPtr("Funny", "Dark"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Oh My Gosh", updated.Long)
	assert.Equal(t, 2, updated.UserID)
	assert.Equal(t, []string{"Dark", "Funny"}, f.categories.attachedNames(1))
}

func TestAcronymService_Update_RejectsOversizedCategoryBeforeWriting(t *testing.T) {
	f := newAcronymFixture(t, models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 1})
	ctx := context.Background()
	require.NoError(t, f.svc.categories.ApplyCategoryPlan(ctx, 1, Reconcile(nil, []string{"Funny"})))

	_, err := f.svc.Update(ctx, &models.User{ID: 2}, 1, &models.AcronymRequest{
		Short:      "OMG",
		Long:       "Oh My Gosh",
		Categories: categoriesPtr("Dark", strings.Repeat("x", 300)),
	})

	assert.True(t, models.IsValidationError(err), "got %v", err)
	stored, err := f.acronyms.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Oh My God", stored.Long)
	assert.Equal(t, 1, stored.UserID)
	assert.Equal(t, []string{"Funny"}, f.categories.attachedNames(1))
}

func TestAcronymService_Update_WithoutCategoriesKeepsThem(t *testing.T) {
	f := newAcronymFixture(t, models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 1})
	ctx := context.Background()
	require.NoError(t, f.svc.categories.ApplyCategoryPlan(ctx, 1, Reconcile(nil, []string{"Funny"})))

	_, err := f.svc.Update(ctx, &models.User{ID: 1}, 1, &models.AcronymRequest{Short: "OMG", Long: "Oh My Goodness"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Funny"}, f.categories.attachedNames(1))
}

func TestAcronymService_Update_NotFound(t *testing.T) {
	f := newAcronymFixture(t)

	_, err := f.svc.Update(context.Background(), &models.User{ID: 1}, 5, &models.AcronymRequest{Short: "A", Long: "A"})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcronymService_FirstAndSorted(t *testing.T) {
	f := newAcronymFixture(t,
		models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 1},
		models.Acronym{Short: "BRB", Long: "Be Right Back", UserID: 1},
	)
	ctx := context.Background()

	first, err := f.svc.First(ctx, models.AcronymSortNone)
	require.NoError(t, err)
	assert.Equal(t, "OMG", first.Short)

	sorted, err := f.svc.List(ctx, models.AcronymSortShort)
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "BRB", sorted[0].Short)

	empty := newAcronymFixture(t)
	_, err = empty.svc.First(ctx, models.AcronymSortRecent)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcronymService_Search(t *testing.T) {
	f := newAcronymFixture(t,
		models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 1},
		models.Acronym{Short: "BRB", Long: "Be Right Back", UserID: 1},
	)

	result, err := f.svc.Search(context.Background(), "Be Right Back")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "BRB", result[0].Short)

	_, err = f.svc.Search(context.Background(), " ")
	assert.True(t, models.IsValidationError(err))
}

func TestAcronymService_GetUser(t *testing.T) {
	f := newAcronymFixture(t, models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 2})

	user, err := f.svc.GetUser(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, models.PublicUser{ID: 2, Name: "bob", Username: "bob"}, *user)

	_, err = f.svc.GetUser(context.Background(), 9)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcronymService_AttachAndDetachCategory(t *testing.T) {
	f := newAcronymFixture(t, models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 1})
	ctx := context.Background()
	f.categories.insert("Funny")

	require.NoError(t, f.svc.AttachCategory(ctx, 1, 1))
	categories, err := f.svc.GetCategories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: 1, Name: "Funny"}}, categories)

	assert.ErrorIs(t, f.svc.AttachCategory(ctx, 1, 7), models.ErrNotFound)

	require.NoError(t, f.svc.DetachCategory(ctx, 1, 1))
	assert.Empty(t, f.categories.attachedNames(1))

	assert.ErrorIs(t, f.svc.DetachCategory(ctx, 1, 7), models.ErrNotFound)
	assert.ErrorIs(t, f.svc.DetachCategory(ctx, 8, 1), models.ErrNotFound)
}

func TestAcronymService_Delete(t *testing.T) {
	f := newAcronymFixture(t, models.Acronym{Short: "OMG", Long: "Oh My God", UserID: 1})

	require.NoError(t, f.svc.Delete(context.Background(), 1))
	assert.ErrorIs(t, f.svc.Delete(context.Background(), 1), models.ErrNotFound)
}
