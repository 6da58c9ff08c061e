package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/logger"
	"github.com/GoArmGo/RecipeApp/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recipeFixture struct {
	store     *memStore
	files     *memFiles
	publisher *memPublisher
	uc        RecipeUseCase
	tags      TaxonomyUseCase[domain.Tag]
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	t.Helper()
	store := newMemStore()
	files := newMemFiles()
	publisher := &memPublisher{}
	log := logger.Discard()

	tags := memTaxonomy[domain.Tag]{s: store, kind: "tag"}
	uc := NewRecipeUseCase(
		store,
		memRecipes{s: store},
		tags,
		memTaxonomy[domain.Ingredient]{s: store, kind: "ingredient"},
		validation.New(),
		ImageOptions{Files: files, Cleanup: publisher, MaxBytes: 1 << 20},
		log,
	)
	return &recipeFixture{
		store:     store,
		files:     files,
		publisher: publisher,
		uc:        uc,
		tags:      NewTagUseCase(tags, log),
	}
}

func ptr[T any](v T) *T { return &v }

func names(in ...string) *[]domain.NameInput {
	out := make([]domain.NameInput, 0, len(in))
	for _, n := range in {
		out = append(out, domain.NameInput{Name: n})
	}
	return &out
}

func sampleInput(title string) domain.RecipeInput {
	return domain.RecipeInput{
		RecipeFields: domain.RecipeFields{
			Title:       ptr(title),
			TimeMinutes: ptr(30),
			Price:       ptr(decimal.RequireFromString("23")),
		},
	}
}

func tagNames(r *domain.Recipe) []string {
	out := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		out = append(out, t.Name)
	}
	return out
}

func TestCreateRecipe_ReusesExistingTag(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	indianID := f.store.addTaxonomy("tag", owner, "Indian")

	in := sampleInput("Pongal")
	in.Tags = names("Indian", "Breakfast")

	recipe, err := f.uc.CreateRecipe(context.Background(), owner, in)
	require.NoError(t, err)

	require.Len(t, recipe.Tags, 2)
	assert.Equal(t, 2, f.store.taxonomyCount("tag"))
	for _, tag := range recipe.Tags {
		assert.Equal(t, owner, tag.UserID)
		if tag.Name == "Indian" {
			assert.Equal(t, indianID, tag.ID)
		}
	}
	assert.Equal(t, owner, recipe.UserID)
	assert.True(t, recipe.Price.Equal(decimal.NewFromInt(23)))
}

func TestCreateRecipe_DoesNotReuseOtherUsersTag(t *testing.T) {
	f := newRecipeFixture(t)
	owner, other := uuid.New(), uuid.New()
	foreignID := f.store.addTaxonomy("tag", other, "Vegan")

	in := sampleInput("Salad")
	in.Tags = names("Vegan")

	recipe, err := f.uc.CreateRecipe(context.Background(), owner, in)
	require.NoError(t, err)
	require.Len(t, recipe.Tags, 1)
	assert.NotEqual(t, foreignID, recipe.Tags[0].ID)
	assert.Equal(t, owner, recipe.Tags[0].UserID)
}

func TestCreateRecipe_DuplicateNamesInPayload(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()

	in := sampleInput("Soup")
	in.Ingredients = names("Salt", " Salt ", "Pepper")

	recipe, err := f.uc.CreateRecipe(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, 2, f.store.taxonomyCount("ingredient"))
}

func TestCreateRecipe_RequiresScalarFields(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.uc.CreateRecipe(context.Background(), uuid.New(), domain.RecipeInput{
		RecipeFields: domain.RecipeFields{Title: ptr("No time")},
	})
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "time_minutes")
	assert.Contains(t, de.Details, "price")
}

func TestCreateRecipe_InvalidScalarsWriteNothing(t *testing.T) {
	f := newRecipeFixture(t)

	in := sampleInput("Broken")
	in.TimeMinutes = ptr(-5)
	in.Tags = names("New")

	_, err := f.uc.CreateRecipe(context.Background(), uuid.New(), in)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.store.taxonomyCount("tag"))
	assert.Empty(t, f.store.recipes)
}

func TestCreateRecipe_BlankNestedName(t *testing.T) {
	f := newRecipeFixture(t)

	in := sampleInput("Blank")
	in.Tags = names("Ok", "   ")

	_, err := f.uc.CreateRecipe(context.Background(), uuid.New(), in)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Details, "tags[1].name")
	assert.Zero(t, f.store.taxonomyCount("tag"))
}

func TestCreateRecipe_RollsBackOnStorageFailure(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()

	failing := &recipeUseCase{
		tx:          f.store,
		recipes:     failingReplace{memRecipes{s: f.store}},
		tags:        memTaxonomy[domain.Tag]{s: f.store, kind: "tag"},
		ingredients: memTaxonomy[domain.Ingredient]{s: f.store, kind: "ingredient"},
		validator:   validation.New(),
		logger:      logger.Discard(),
	}

	in := sampleInput("Half")
	in.Tags = names("A")
	in.Ingredients = names("B")

	_, err := failing.CreateRecipe(context.Background(), owner, in)
	require.Error(t, err)
	assert.Empty(t, f.store.recipes)
	assert.Zero(t, f.store.taxonomyCount("tag"))
	assert.Zero(t, f.store.taxonomyCount("ingredient"))
}

type failingReplace struct {
	memRecipes
}

func (failingReplace) ReplaceIngredients(context.Context, int64, []int64) error {
	return errors.New("connection reset")
}

func TestUpdateRecipe_ReplacesTags(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	in := sampleInput("Toast")
	in.Tags = names("A", "B")
	created, err := f.uc.CreateRecipe(ctx, owner, in)
	require.NoError(t, err)

	var bID int64
	for _, tag := range created.Tags {
		if tag.Name == "B" {
			bID = tag.ID
		}
	}

	updated, err := f.uc.UpdateRecipe(ctx, created.ID, owner, domain.RecipeInput{Tags: names("B", "C")}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, tagNames(updated))
	assert.Equal(t, bID, updated.Tags[0].ID)
	assert.Equal(t, 3, f.store.taxonomyCount("tag"))
}

func TestUpdateRecipe_EmptyListClearsAndOmittedKeeps(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	in := sampleInput("Eggs")
	in.Tags = names("A")
	created, err := f.uc.CreateRecipe(ctx, owner, in)
	require.NoError(t, err)

	kept, err := f.uc.UpdateRecipe(ctx, created.ID, owner, domain.RecipeInput{
		RecipeFields: domain.RecipeFields{Title: ptr("Scrambled eggs")},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "Scrambled eggs", kept.Title)
	assert.Equal(t, []string{"A"}, tagNames(kept))

	cleared, err := f.uc.UpdateRecipe(ctx, created.ID, owner, domain.RecipeInput{Tags: names()}, true)
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
	// сам тег остается у владельца
	assert.Equal(t, 1, f.store.taxonomyCount("tag"))
}

func TestUpdateRecipe_InvalidKeepsAssociations(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	in := sampleInput("Rice")
	in.Tags = names("A")
	created, err := f.uc.CreateRecipe(ctx, owner, in)
	require.NoError(t, err)

	bad := domain.RecipeInput{
		RecipeFields: domain.RecipeFields{Price: ptr(decimal.RequireFromString("-1"))},
		Tags:         names("X", "Y"),
	}
	_, err = f.uc.UpdateRecipe(ctx, created.ID, owner, bad, true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.uc.GetRecipe(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, tagNames(got))
	assert.Equal(t, 1, f.store.taxonomyCount("tag"))
}

func TestUpdateRecipe_FullRequiresAllFields(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Tea"))
	require.NoError(t, err)

	_, err = f.uc.UpdateRecipe(ctx, created.ID, owner, domain.RecipeInput{
		RecipeFields: domain.RecipeFields{Title: ptr("Green tea")},
	}, false)
	assert.ErrorIs(t, err, domain.ErrValidation)

	full := sampleInput("Green tea")
	full.Description = ptr("steep for 3 minutes")
	full.Link = ptr("https://example.com/tea")
	updated, err := f.uc.UpdateRecipe(ctx, created.ID, owner, full, false)
	require.NoError(t, err)
	assert.Equal(t, "Green tea", updated.Title)
	assert.Equal(t, "steep for 3 minutes", updated.Description)
	assert.Equal(t, "https://example.com/tea", updated.Link)
}

func TestUpdateRecipe_OwnerNeverChanges(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Bread"))
	require.NoError(t, err)

	_, err = f.uc.UpdateRecipe(ctx, created.ID, owner, sampleInput("Rye bread"), false)
	require.NoError(t, err)

	assert.Equal(t, owner, f.store.recipes[created.ID].UserID)
}

func TestRecipes_TenantIsolation(t *testing.T) {
	f := newRecipeFixture(t)
	owner, intruder := uuid.New(), uuid.New()
	ctx := context.Background()

	in := sampleInput("Secret")
	in.Tags = names("Private")
	created, err := f.uc.CreateRecipe(ctx, owner, in)
	require.NoError(t, err)

	_, err = f.uc.GetRecipe(ctx, created.ID, intruder)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.UpdateRecipe(ctx, created.ID, intruder, domain.RecipeInput{Tags: names()}, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.uc.DeleteRecipe(ctx, created.ID, intruder)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.uc.ListRecipes(ctx, intruder, domain.RecipeFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)

	tagID := created.Tags[0].ID
	_, err = f.tags.Get(ctx, tagID, intruder)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.tags.Rename(ctx, tagID, intruder, "Mine")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.tags.Delete(ctx, tagID, intruder), domain.ErrNotFound)

	got, err := f.uc.GetRecipe(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"Private"}, tagNames(got))
}

func TestListRecipes_NewestFirstAndFiltered(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	first := sampleInput("First")
	first.Tags = names("Vegan")
	r1, err := f.uc.CreateRecipe(ctx, owner, first)
	require.NoError(t, err)
	r2, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Second"))
	require.NoError(t, err)

	list, err := f.uc.ListRecipes(ctx, owner, domain.RecipeFilter{}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, r2.ID, list[0].ID)
	assert.Equal(t, r1.ID, list[1].ID)

	filtered, err := f.uc.ListRecipes(ctx, owner, domain.RecipeFilter{TagIDs: r1.TagIDs()}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, r1.ID, filtered[0].ID)

	paged, err := f.uc.ListRecipes(ctx, owner, domain.RecipeFilter{}, domain.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, r1.ID, paged[0].ID)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadImage_StoresUnderUUIDKey(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Pie"))
	require.NoError(t, err)

	recipe, err := f.uc.UploadImage(ctx, created.ID, owner, bytes.NewReader(pngBytes(t)), "Photo.PNG")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(recipe.Image, ImagePrefix+"/"))
	assert.True(t, strings.HasSuffix(recipe.Image, ".png"))
	base := strings.TrimSuffix(strings.TrimPrefix(recipe.Image, ImagePrefix+"/"), ".png")
	_, err = uuid.Parse(base)
	assert.NoError(t, err)

	assert.Contains(t, f.files.objects, recipe.Image)
	assert.Equal(t, recipe.Image, f.store.recipes[created.ID].Image)
	assert.Empty(t, f.publisher.payloads)
}

func TestUploadImage_ReplacementSchedulesCleanup(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Cake"))
	require.NoError(t, err)

	first, err := f.uc.UploadImage(ctx, created.ID, owner, bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	second, err := f.uc.UploadImage(ctx, created.ID, owner, bytes.NewReader(pngBytes(t)), "b")
	require.NoError(t, err)

	assert.NotEqual(t, first.Image, second.Image)
	assert.True(t, strings.HasSuffix(second.Image, ".png"))
	require.Len(t, f.publisher.payloads, 1)
	assert.Equal(t, first.Image, f.publisher.payloads[0].ObjectKey)
	assert.Equal(t, created.ID, f.publisher.payloads[0].RecipeID)
}

func TestUploadImage_CleanupFailureDoesNotFailRequest(t *testing.T) {
	f := newRecipeFixture(t)
	f.publisher.err = errors.New("broker down")
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Cake"))
	require.NoError(t, err)
	_, err = f.uc.UploadImage(ctx, created.ID, owner, bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	_, err = f.uc.UploadImage(ctx, created.ID, owner, bytes.NewReader(pngBytes(t)), "b.png")
	assert.NoError(t, err)
}

func TestUploadImage_NotAnImage(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Stew"))
	require.NoError(t, err)

	_, err = f.uc.UploadImage(ctx, created.ID, owner, strings.NewReader("notimage"), "x.jpg")
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "image")

	assert.Empty(t, f.store.recipes[created.ID].Image)
	assert.Empty(t, f.files.objects)
}

func TestUploadImage_TooLarge(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Big"))
	require.NoError(t, err)

	big := bytes.Repeat([]byte{0}, 2<<20)
	_, err = f.uc.UploadImage(ctx, created.ID, owner, bytes.NewReader(big), "big.png")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUploadImage_NotOwned(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, uuid.New(), sampleInput("Theirs"))
	require.NoError(t, err)

	_, err = f.uc.UploadImage(ctx, created.ID, uuid.New(), bytes.NewReader(pngBytes(t)), "a.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.files.objects)
}

func TestUploadImage_RemovesObjectWhenRecordFails(t *testing.T) {
	f := newRecipeFixture(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := f.uc.CreateRecipe(ctx, owner, sampleInput("Gone"))
	require.NoError(t, err)

	f.store.setImageErr = domain.NotFound("recipe")
	_, err = f.uc.UploadImage(ctx, created.ID, owner, bytes.NewReader(pngBytes(t)), "a.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.files.objects)
}

func TestImageExt(t *testing.T) {
	assert.Equal(t, ".jpg", imageExt("photo.JPG", "jpeg"))
	assert.Equal(t, ".webp", imageExt("noext", "webp"))
	assert.Equal(t, ".png", imageExt("", "png"))
}
